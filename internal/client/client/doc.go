// Package client is the gRPC client of the gophauth credential service.
//
// GRPCClient keeps the access/refresh pair returned by Login, attaches the
// access token to calls that require it and, when the server reports the
// token expired, exchanges the refresh token once and retries the call.
//
// gRPC status codes are mapped back to sentinel errors: ErrUnauthorized,
// ErrUnavailable, common.ErrorAlreadyExists, common.ErrReuseViolation, and
// *common.ValidationError rebuilt from the BadRequest details.
package client
