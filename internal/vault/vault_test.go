package vault

import (
	"context"
	"errors"
	"testing"

	vault "github.com/hashicorp/vault/api"
)

type fakeKV struct {
	mount string
	calls *int
	data  map[string]map[string]any
}

func (f fakeKV) Get(_ context.Context, p string) (*vault.KVSecret, error) {
	*f.calls++
	d, ok := f.data[f.mount+"/"+p]
	if !ok {
		return nil, errors.New("secret not found")
	}
	return &vault.KVSecret{Data: d}, nil
}

func newFake(data map[string]map[string]any) (*Client, *int) {
	calls := new(int)
	c := newClient(func(mount string) kvReader {
		return fakeKV{mount: mount, calls: calls, data: data}
	})
	return c, calls
}

func TestResolve(t *testing.T) {
	c, calls := newFake(map[string]map[string]any{
		"secret/adept/db": {"password": "s3cret", "port": 3306},
	})

	got, err := c.Resolve(context.Background(), "secret/adept/db#password")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != "s3cret" {
		t.Fatalf("got %q", got)
	}

	if _, err := c.Resolve(context.Background(), "secret/adept/db#password"); err != nil {
		t.Fatalf("cached Resolve: %v", err)
	}
	if *calls != 1 {
		t.Fatalf("calls = %d, want 1 (second read cached)", *calls)
	}
}

func TestResolve_Errors(t *testing.T) {
	c, _ := newFake(map[string]map[string]any{
		"secret/adept/db": {"port": 3306},
	})
	for _, ref := range []string{
		"secret/adept/db",          // no #key
		"secret/adept/db#password", // missing key
		"secret/adept/db#port",     // not a string
		"secret/other#password",    // missing secret
	} {
		if _, err := c.Resolve(context.Background(), ref); err == nil {
			t.Fatalf("%q: expected error", ref)
		}
	}
}

func TestSplitMount(t *testing.T) {
	m, r := splitMount("secret/adept/db")
	if m != "secret" || r != "adept/db" {
		t.Fatalf("got (%q, %q)", m, r)
	}
}
