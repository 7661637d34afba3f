package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/taxbase/metricshub/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err, "an explicitly named missing file is an error")
	require.Nil(t, cfg)

	cfg, err = config.Load("")
	require.NoError(t, err)
	require.Equal(t, "Metricshub", cfg.GetAppName())
	require.Equal(t, "http://localhost:8080", cfg.GetBackendURL())
	require.Equal(t, "NÃO IDENTIFICADO", cfg.GetUnidentifiedClient())
	require.Contains(t, cfg.GetExcludedClients(), "TAXBASE INTERNO")
	require.Equal(t, filepath.Join("./data", "sso_token"), cfg.GetSSOTokenPath())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app_name: Painel
backend_url: https://metrics.example.test
excluded_clients:
  - INTERNO
unidentified_client: DESCONHECIDO
`), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "Painel", cfg.GetAppName())
	require.Equal(t, "https://metrics.example.test", cfg.GetBackendURL())
	require.Equal(t, []string{"INTERNO"}, cfg.GetExcludedClients())
	require.Equal(t, "DESCONHECIDO", cfg.GetUnidentifiedClient())
	// Untouched keys keep their defaults.
	require.Equal(t, "https://hub.taxbase.app", cfg.GetHubURL())
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend_url: https://from-file\n"), 0o600))

	t.Setenv("METRICS_BACKEND_URL", "https://from-env")
	t.Setenv("EXCLUDED_CLIENTS", "A , B")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "https://from-env", cfg.GetBackendURL())
	require.Equal(t, []string{"A", "B"}, cfg.GetExcludedClients())
	require.Equal(t, "debug", cfg.GetLogLevel())
}

func TestLoadRejectsBrokenYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app_name: [unclosed"), 0o600))

	_, err := config.Load(path)
	require.Error(t, err)
}
