package config

// Config is the full configuration surface consumed by the SDK and the CLI.
type Config interface {
	EnvConfig
	FilterConfig
}

// EnvConfig covers environment level settings.
type EnvConfig interface {
	GetAppName() string
	GetBackendURL() string
	GetHubURL() string
	GetDataDir() string
	GetSSOTokenPath() string
	GetLogLevel() string
}

// FilterConfig covers the record validity sentinels used by aggregation.
type FilterConfig interface {
	GetExcludedClients() []string
	GetUnidentifiedClient() string
}

// New returns a Config backed by environment variables only.
func New() Config {
	cfg, _ := Load("")
	return cfg
}
