package main

import (
	"fmt"
	"io"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/yanizio/httpsredirect/internal/redirect"
)

// decideInput mirrors the flags of `web decide`.
type decideInput struct {
	URL         string
	ID          int
	DocType     string
	Template    string
	Explicit    bool
	Unpublished bool
	NotFound    bool
	Redirecting bool
	StatusSet   bool
}

var decideIn decideInput

var decideCmd = &cobra.Command{
	Use:   "decide",
	Short: "Dry-run a redirect decision against the global settings",
	Example: `  web decide --url http://example.com/checkout --id 42
  web decide --url https://example.com/blog --doc-type article`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, _, err := bootstrap(cmd.Context(), false)
		if err != nil {
			return err
		}
		return runDecide(cmd.OutOrStdout(), cfg.Redirect, decideIn)
	},
}

func init() {
	f := decideCmd.Flags()
	f.StringVar(&decideIn.URL, "url", "", "absolute request URL; its scheme decides whether the request is secure")
	f.IntVar(&decideIn.ID, "id", 0, "page id")
	f.StringVar(&decideIn.DocType, "doc-type", "", "page document type alias")
	f.StringVar(&decideIn.Template, "template", "", "page template name")
	f.BoolVar(&decideIn.Explicit, "explicit", false, "page carries the explicit HTTPS flag")
	f.BoolVar(&decideIn.Unpublished, "unpublished", false, "request has no published content")
	f.BoolVar(&decideIn.NotFound, "not-found", false, "request resolved to 404")
	f.BoolVar(&decideIn.Redirecting, "redirecting", false, "response is already redirecting")
	f.BoolVar(&decideIn.StatusSet, "status-set", false, "response status already set")
	_ = decideCmd.MarkFlagRequired("url")
}

// runDecide evaluates in against s and prints the outcome.
func runDecide(w io.Writer, s *redirect.Settings, in decideInput) error {
	u, err := url.Parse(in.URL)
	if err != nil {
		return fmt.Errorf("--url: %w", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("--url must be absolute, got %q", in.URL)
	}

	pc := redirect.PageContext{
		ID:                       in.ID,
		DocumentType:             in.DocType,
		Template:                 in.Template,
		ExplicitHTTPS:            in.Explicit,
		HasPublishedContent:      !in.Unpublished,
		IsNotFound:               in.NotFound,
		IsAlreadyRedirecting:     in.Redirecting,
		ResponseStatusAlreadySet: in.StatusSet,
	}
	rt := redirect.RequestTransport{IsSecure: u.Scheme == "https", URL: u}

	if reason := redirect.BypassReason(pc); reason != "" {
		fmt.Fprintf(w, "action: none\nbypass: %s\n", reason)
		return nil
	}

	a := redirect.Decide(pc, rt, s)
	fmt.Fprintf(w, "requires https: %t\naction: %s\n", redirect.RequiresHTTPS(pc, s), a.Kind)
	if a.Redirect() {
		fmt.Fprintf(w, "target: %s\nstatus: %d\n", a.Target, redirect.StatusCode(a))
	}
	return nil
}
