// Package cli implements credctl, the gophauth command-line tool.
//
// Administrative commands (migrate, audience, user) open the server stack
// directly using the server configuration. Account commands (register,
// login, refresh, passwd, prefs, logout, token) talk to a running server
// over gRPC and keep the token pair in a local SQLite session file.
package cli
