package appid

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/fulmenhq/gofulmen/appidentity"
)

func TestGet_BuiltinIdentity(t *testing.T) {
	t.Setenv(appidentity.EnvIdentityPath, "")

	identity, err := Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if identity.BinaryName != "pharmaintel" {
		t.Fatalf("BinaryName = %q", identity.BinaryName)
	}
	if identity.EnvPrefix != "PHARMAINTEL_" {
		t.Fatalf("EnvPrefix = %q", identity.EnvPrefix)
	}

	// Mutating the returned copy must not leak into later calls.
	identity.BinaryName = "changed"
	again, err := Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if again.BinaryName != "pharmaintel" {
		t.Fatalf("identity copy leaked: %q", again.BinaryName)
	}
}

func TestGet_CanceledContext(t *testing.T) {
	t.Setenv(appidentity.EnvIdentityPath, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Get(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestGet_EnvVarRemainsAuthoritative(t *testing.T) {
	appidentity.Reset()
	t.Cleanup(func() { appidentity.Reset() })

	missing := filepath.Join(t.TempDir(), "missing-app.yaml")
	t.Setenv(appidentity.EnvIdentityPath, missing)

	_, err := Get(context.Background())
	if err == nil {
		t.Fatalf("expected error")
	}

	var notFound *appidentity.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %T: %v", err, err)
	}
}
