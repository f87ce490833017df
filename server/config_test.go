package server_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/leadwise/dispatch"
	"github.com/leadwise/dispatch/server"
	"github.com/leadwise/dispatch/types"
)

func TestLoadConfig(t *testing.T) {
	t.Run("empty path yields defaults", func(t *testing.T) {
		cfg, err := server.LoadConfig("")

		require.NoError(t, err)
		require.Equal(t, ":8080", cfg.Listen)
		require.Equal(t, dispatch.SelectorWeightedRandom, cfg.Engine.SelectorStrategy)
	})

	t.Run("file values override defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "dispatch.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
listen: ":9090"
readTimeout: 5s
engine:
  selectorStrategy: smooth
rateLimit:
  enabled: true
  rps: 10
  burst: 20
`), 0o600))

		cfg, err := server.LoadConfig(path)

		require.NoError(t, err)
		require.Equal(t, ":9090", cfg.Listen)
		require.Equal(t, 5*time.Second, cfg.ReadTimeout)
		require.Equal(t, dispatch.SelectorSmooth, cfg.Engine.SelectorStrategy)
		require.True(t, cfg.RateLimit.Enabled)
		require.InEpsilon(t, 10.0, cfg.RateLimit.RPS, 1e-9)
		// Untouched fields keep their defaults.
		require.Equal(t, 30*time.Second, cfg.WriteTimeout)
	})

	t.Run("invalid engine config is rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "dispatch.yaml")
		require.NoError(t, os.WriteFile(path, []byte("engine:\n  selectorStrategy: bogus\n"), 0o600))

		_, err := server.LoadConfig(path)

		require.ErrorIs(t, err, types.ErrInvalidConfig)
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := server.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))

		require.Error(t, err)
	})
}
