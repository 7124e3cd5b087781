package common

// AuthorizationHeaderName is the HTTP header carrying the bearer session token.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the token in the Authorization header value.
const BearerPrefix = "Bearer "

// RequestIDMetadataKey is the gRPC metadata key used to forward the gateway
// request id to the identity service.
const RequestIDMetadataKey = "x-request-id"

// ErrorDomain identifies identity-service errors carried in gRPC status details.
const ErrorDomain = "gatekeeper.identity"
