// Package appid resolves the process identity used for config discovery,
// env prefixes and the version endpoint.
package appid

import (
	"context"
	"os"
	"strings"

	"github.com/fulmenhq/gofulmen/appidentity"
)

// Built-in identity for pharmaintel.
var builtin = appidentity.Identity{
	BinaryName:  "pharmaintel",
	Vendor:      "prathikkv",
	EnvPrefix:   "PHARMAINTEL_",
	ConfigName:  "pharmaintel",
	Description: "Pharmaceutical combined-search aggregator",
}

// Get returns the application identity.
//
// An explicit identity file (FULMEN_APP_IDENTITY_PATH) stays authoritative;
// otherwise the built-in identity is returned. Callers receive a copy.
func Get(ctx context.Context) (*appidentity.Identity, error) {
	if strings.TrimSpace(os.Getenv(appidentity.EnvIdentityPath)) != "" {
		return appidentity.Get(ctx)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	identity := builtin
	return &identity, nil
}
