// Package metrics holds Prometheus instruments that are used across the
// service.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ActiveTenants = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_tenants",
			Help: "Number of tenants currently loaded in memory.",
		})

	TenantLoadTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tenant_load_total",
			Help: "Cumulative number of tenants successfully loaded.",
		})

	TenantLoadErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tenant_load_errors_total",
			Help: "Cumulative number of tenant load errors.",
		})

	TenantEvictTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tenant_evict_total",
			Help: "Cumulative number of tenants evicted from the cache.",
		})

	RedirectDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "https_redirect_decisions_total",
			Help: "Redirect decisions for eligible pages, by action (none, https, http).",
		}, []string{"action"})

	RedirectBypassTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "https_redirect_bypass_total",
			Help: "Requests skipped before classification, by reason.",
		}, []string{"reason"})

	ConfigReloadTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "config_reload_total",
			Help: "Configuration reload attempts, by result (ok, error).",
		}, []string{"result"})
)

func init() {
	prometheus.MustRegister(
		ActiveTenants,
		TenantLoadTotal,
		TenantLoadErrorsTotal,
		TenantEvictTotal,
		RedirectDecisionsTotal,
		RedirectBypassTotal,
		ConfigReloadTotal,
	)
}
