package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	appNameVar      = "APP_NAME"
	backendURLVar   = "METRICS_BACKEND_URL"
	hubURLVar       = "HUB_URL"
	dataDirVar      = "DATA_DIR"
	ssoTokenPathVar = "SSO_TOKEN_PATH"
	logLevelVar     = "LOG_LEVEL"
)

// fileValues is the YAML shape of an optional config file.
type fileValues struct {
	AppName            string   `yaml:"app_name"`
	BackendURL         string   `yaml:"backend_url"`
	HubURL             string   `yaml:"hub_url"`
	DataDir            string   `yaml:"data_dir"`
	SSOTokenPath       string   `yaml:"sso_token_path"`
	LogLevel           string   `yaml:"log_level"`
	ExcludedClients    []string `yaml:"excluded_clients"`
	UnidentifiedClient string   `yaml:"unidentified_client"`
}

type resolved struct {
	fileValues
}

var _ Config = resolved{}

// Load builds a Config with precedence: environment > file > defaults.
//
// If path is empty, ./metricshub.yaml and ~/.config/metricshub/config.yaml
// are tried; a missing file is not an error.
func Load(path string) (Config, error) {
	vals := defaults()

	explicit := path != ""
	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if explicit {
				return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
			}
		} else {
			var fileCfg fileValues
			if err := yaml.Unmarshal(data, &fileCfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
			merge(&vals, fileCfg)
		}
	}

	applyEnv(&vals)
	if vals.SSOTokenPath == "" {
		vals.SSOTokenPath = filepath.Join(vals.DataDir, "sso_token")
	}
	return resolved{vals}, nil
}

func defaults() fileValues {
	return fileValues{
		AppName:            "Metricshub",
		BackendURL:         "http://localhost:8080",
		HubURL:             "https://hub.taxbase.app",
		DataDir:            "./data",
		LogLevel:           "info",
		ExcludedClients:    []string{"TAXBASE INTERNO", "IGNORAR", "NÃO IDENTIFICADO"},
		UnidentifiedClient: "NÃO IDENTIFICADO",
	}
}

func merge(dst *fileValues, src fileValues) {
	if src.AppName != "" {
		dst.AppName = src.AppName
	}
	if src.BackendURL != "" {
		dst.BackendURL = src.BackendURL
	}
	if src.HubURL != "" {
		dst.HubURL = src.HubURL
	}
	if src.DataDir != "" {
		dst.DataDir = src.DataDir
	}
	if src.SSOTokenPath != "" {
		dst.SSOTokenPath = src.SSOTokenPath
	}
	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}
	if len(src.ExcludedClients) > 0 {
		dst.ExcludedClients = src.ExcludedClients
	}
	if src.UnidentifiedClient != "" {
		dst.UnidentifiedClient = src.UnidentifiedClient
	}
}

func applyEnv(vals *fileValues) {
	vals.AppName = GetEnv(appNameVar, vals.AppName)
	vals.BackendURL = GetEnv(backendURLVar, vals.BackendURL)
	vals.HubURL = GetEnv(hubURLVar, vals.HubURL)
	vals.DataDir = GetEnv(dataDirVar, vals.DataDir)
	vals.SSOTokenPath = GetEnv(ssoTokenPathVar, vals.SSOTokenPath)
	vals.LogLevel = GetEnv(logLevelVar, vals.LogLevel)
	if v := os.Getenv("EXCLUDED_CLIENTS"); v != "" {
		parts := strings.Split(v, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		vals.ExcludedClients = parts
	}
	vals.UnidentifiedClient = GetEnv("UNIDENTIFIED_CLIENT", vals.UnidentifiedClient)
}

func findConfigFile() string {
	if _, err := os.Stat("metricshub.yaml"); err == nil {
		return "metricshub.yaml"
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	path := filepath.Join(home, ".config", "metricshub", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

func (r resolved) GetAppName() string      { return r.AppName }
func (r resolved) GetBackendURL() string   { return r.BackendURL }
func (r resolved) GetHubURL() string       { return r.HubURL }
func (r resolved) GetDataDir() string      { return r.DataDir }
func (r resolved) GetSSOTokenPath() string { return r.SSOTokenPath }
func (r resolved) GetLogLevel() string     { return r.LogLevel }

func (r resolved) GetExcludedClients() []string  { return r.ExcludedClients }
func (r resolved) GetUnidentifiedClient() string { return r.UnidentifiedClient }

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
