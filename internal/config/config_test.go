package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("FABLAB_JWT_SECRET", "jwt")
	t.Setenv("FABLAB_CONFIRM_SECRET", "confirm")
	t.Setenv("FABLAB_WORKSTATIONS", "front-desk:pw1, lab-2:pw2")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddress())
	require.Equal(t, 72*time.Hour, cfg.ConfirmMaxAge)
	require.Equal(t, int64(50*1024*1024), cfg.UploadMaxBytes)
	require.Equal(t, "postgres", cfg.DatabaseDriver)
	require.Equal(t, map[string]string{"front-desk": "pw1", "lab-2": "pw2"}, cfg.Workstations)
}

func TestLoadRequiresSecrets(t *testing.T) {
	t.Setenv("FABLAB_JWT_SECRET", "")
	t.Setenv("FABLAB_CONFIRM_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}

func TestParseWorkstationsRejectsMalformedPairs(t *testing.T) {
	_, err := ParseWorkstations("front-desk")
	require.Error(t, err)

	parsed, err := ParseWorkstations("")
	require.NoError(t, err)
	require.Empty(t, parsed)
}
