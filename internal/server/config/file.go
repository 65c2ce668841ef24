package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/lifelog/internal/flagx"
	"github.com/dmitrijs2005/lifelog/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig mirrors Config for JSON and YAML decoding. Durations use
// timex.Duration so both "5s" and integer nanoseconds are accepted.
type FileConfig struct {
	EndpointAddrGRPC            string         `json:"endpoint_addr_grpc" yaml:"endpoint_addr_grpc"`
	DatabaseDriver              string         `json:"database_driver" yaml:"database_driver"`
	DatabaseDSN                 string         `json:"database_dsn" yaml:"database_dsn"`
	DatabaseMaxOpenConns        int            `json:"database_max_open_conns" yaml:"database_max_open_conns"`
	SecretKey                   string         `json:"secret_key" yaml:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration" yaml:"access_token_validity_duration"`
	ProviderTimeout             timex.Duration `json:"provider_timeout" yaml:"provider_timeout"`
	KeycloakServerURL           string         `json:"keycloak_server_url" yaml:"keycloak_server_url"`
	KeycloakRealm               string         `json:"keycloak_realm" yaml:"keycloak_realm"`
	KeycloakClientID            string         `json:"keycloak_client_id" yaml:"keycloak_client_id"`
	KeycloakClientSecret        string         `json:"keycloak_client_secret" yaml:"keycloak_client_secret"`
	KeycloakVerifyTLS           bool           `json:"keycloak_verify_tls" yaml:"keycloak_verify_tls"`
	GoogleClientID              string         `json:"google_client_id" yaml:"google_client_id"`
	LogLevel                    string         `json:"log_level" yaml:"log_level"`
}

func fromConfig(c *Config) *FileConfig {
	return &FileConfig{
		EndpointAddrGRPC:            c.EndpointAddrGRPC,
		DatabaseDriver:              c.DatabaseDriver,
		DatabaseDSN:                 c.DatabaseDSN,
		DatabaseMaxOpenConns:        c.DatabaseMaxOpenConns,
		SecretKey:                   c.SecretKey,
		AccessTokenValidityDuration: timex.Duration{Duration: c.AccessTokenValidityDuration},
		ProviderTimeout:             timex.Duration{Duration: c.ProviderTimeout},
		KeycloakServerURL:           c.KeycloakServerURL,
		KeycloakRealm:               c.KeycloakRealm,
		KeycloakClientID:            c.KeycloakClientID,
		KeycloakClientSecret:        c.KeycloakClientSecret,
		KeycloakVerifyTLS:           c.KeycloakVerifyTLS,
		GoogleClientID:              c.GoogleClientID,
		LogLevel:                    c.LogLevel,
	}
}

func (f *FileConfig) apply(c *Config) {
	c.EndpointAddrGRPC = f.EndpointAddrGRPC
	c.DatabaseDriver = f.DatabaseDriver
	c.DatabaseDSN = f.DatabaseDSN
	c.DatabaseMaxOpenConns = f.DatabaseMaxOpenConns
	c.SecretKey = f.SecretKey
	c.AccessTokenValidityDuration = f.AccessTokenValidityDuration.Duration
	c.ProviderTimeout = f.ProviderTimeout.Duration
	c.KeycloakServerURL = f.KeycloakServerURL
	c.KeycloakRealm = f.KeycloakRealm
	c.KeycloakClientID = f.KeycloakClientID
	c.KeycloakClientSecret = f.KeycloakClientSecret
	c.KeycloakVerifyTLS = f.KeycloakVerifyTLS
	c.GoogleClientID = f.GoogleClientID
	c.LogLevel = f.LogLevel
}

// parseFile overlays the file named by -c/-config onto config. Keys absent
// from the file keep their current values. Files ending in .yaml or .yml
// are read as YAML, anything else as JSON. Unreadable or malformed files
// panic.
func parseFile(config *Config) {
	path := flagx.ConfigFileFlag()

	// nothing to load
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	fc := fromConfig(config)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	default:
		err = json.Unmarshal(data, fc)
	}
	if err != nil {
		panic(err)
	}

	fc.apply(config)
}
