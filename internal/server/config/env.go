package config

import (
	"os"
	"strconv"
	"time"
)

// Environment variables read by parseEnv.
const (
	EnvEndpointAddrGRPC     = "ENDPOINT_ADDR_GRPC"
	EnvDatabaseDriver       = "DATABASE_DRIVER"
	EnvDatabaseDSN          = "DATABASE_DSN"
	EnvSecretKey            = "SECRET_KEY"
	EnvAccessTokenTTL       = "ACCESS_TOKEN_VALIDITY_DURATION"
	EnvProviderTimeout      = "PROVIDER_TIMEOUT"
	EnvKeycloakServerURL    = "KEYCLOAK_SERVER_URL"
	EnvKeycloakRealm        = "KEYCLOAK_REALM"
	EnvKeycloakClientID     = "KEYCLOAK_CLIENT_ID"
	EnvKeycloakClientSecret = "KEYCLOAK_CLIENT_SECRET"
	EnvKeycloakVerifyTLS    = "KEYCLOAK_VERIFY_TLS"
	EnvGoogleClientID       = "GOOGLE_CLIENT_ID"
	EnvLogLevel             = "LOG_LEVEL"
)

// parseEnv overlays set environment variables onto config. Durations use Go
// syntax ("30s"); malformed numeric or boolean values panic, as a bad config
// file does.
func parseEnv(config *Config) {
	setString(&config.EndpointAddrGRPC, EnvEndpointAddrGRPC)
	setString(&config.DatabaseDriver, EnvDatabaseDriver)
	setString(&config.DatabaseDSN, EnvDatabaseDSN)
	setString(&config.SecretKey, EnvSecretKey)
	setDuration(&config.AccessTokenValidityDuration, EnvAccessTokenTTL)
	setDuration(&config.ProviderTimeout, EnvProviderTimeout)
	setString(&config.KeycloakServerURL, EnvKeycloakServerURL)
	setString(&config.KeycloakRealm, EnvKeycloakRealm)
	setString(&config.KeycloakClientID, EnvKeycloakClientID)
	setString(&config.KeycloakClientSecret, EnvKeycloakClientSecret)
	setBool(&config.KeycloakVerifyTLS, EnvKeycloakVerifyTLS)
	setString(&config.GoogleClientID, EnvGoogleClientID)
	setString(&config.LogLevel, EnvLogLevel)
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(err)
	}
	*dst = d
}

func setBool(dst *bool, key string) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		panic(err)
	}
	*dst = b
}
