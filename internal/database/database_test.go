package database

import (
	"strings"
	"testing"
)

func TestWithPassword(t *testing.T) {
	got, err := WithPassword("adept@tcp(127.0.0.1:3306)/adept", "s3cret")
	if err != nil {
		t.Fatalf("WithPassword: %v", err)
	}
	if !strings.HasPrefix(got, "adept:s3cret@tcp(127.0.0.1:3306)/adept") {
		t.Fatalf("password not injected: %q", got)
	}
	if !strings.Contains(got, "parseTime=true") {
		t.Fatalf("parseTime missing: %q", got)
	}
}

func TestWithPassword_Empty(t *testing.T) {
	got, err := WithPassword("adept:keep@tcp(db:3306)/adept", "")
	if err != nil {
		t.Fatalf("WithPassword: %v", err)
	}
	if !strings.HasPrefix(got, "adept:keep@") {
		t.Fatalf("existing password lost: %q", got)
	}
}

func TestWithPassword_BadDSN(t *testing.T) {
	if _, err := WithPassword("not a dsn", "x"); err == nil {
		t.Fatalf("expected parse error")
	}
}
