// Package common contains shared constants and sentinel errors used across
// lifelog components.
package common

// AuthorizationHeaderName is the gRPC metadata key carrying the bearer
// credential on inbound requests.
const AuthorizationHeaderName = "authorization"

// BearerScheme prefixes the credential inside the authorization header.
const BearerScheme = "Bearer"
