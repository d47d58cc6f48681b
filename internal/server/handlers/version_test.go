package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fulmenhq/gofulmen/appidentity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionHandlerIncludesIdentityMetadata(t *testing.T) {
	SetVersionInfo("1.2.3", "abcd123", "2026-01-07T12:00:00Z")
	SetAppIdentity(&appidentity.Identity{
		BinaryName:  "pharmaintel",
		Description: "Pharmaceutical combined-search aggregator",
		Vendor:      "prathikkv",
	})
	t.Cleanup(func() { SetAppIdentity(nil) })

	req := httptest.NewRequest(http.MethodGet, "/version", nil)
	rec := httptest.NewRecorder()

	VersionHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp VersionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

	assert.Equal(t, "pharmaintel", resp.App.Name)
	assert.Equal(t, "prathikkv", resp.App.Vendor)
	assert.Equal(t, "1.2.3", resp.App.Version)
	assert.Equal(t, "abcd123", resp.App.Commit)
	assert.NotEmpty(t, resp.Dependencies.Gofulmen)
	assert.NotEmpty(t, resp.Dependencies.Crucible)
}

func TestVersionHandlerFallsBackToExecutableName(t *testing.T) {
	SetAppIdentity(nil)

	rec := httptest.NewRecorder()
	VersionHandler(rec, httptest.NewRequest(http.MethodGet, "/version", nil))

	var resp VersionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.NotEmpty(t, resp.App.Name)
	assert.Empty(t, resp.App.Vendor)
}
