// internal/config/validator.go
//
// Thin wrapper around go-playground/validator.
//
// `LoadFrom` calls `validateStruct` right after secrets are resolved.  Any
// tag mismatch aborts startup, so the binary never runs with a missing DSN
// or an unparseable listen address.  Redirect keys are not validated here;
// `redirect.Load` owns their parsing and error messages.

package config

import "github.com/go-playground/validator/v10"

var v = validator.New()

// validateStruct returns the first validation error, or nil on success.
func validateStruct(c *Config) error {
	return v.Struct(c)
}
