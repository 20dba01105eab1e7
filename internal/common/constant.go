package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on authenticated calls.
const AccessTokenHeaderName = "authorization"

// BearerPrefix is stripped from the access token header when present.
const BearerPrefix = "Bearer "
