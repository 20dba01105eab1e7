// Package config loads runtime configuration for the credctl client
// commands.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. GOPHAUTH_SERVER_ADDR, GOPHAUTH_AUDIENCE_TOKEN, GOPHAUTH_SESSION_FILE and
//     GOPHAUTH_REQUEST_TIMEOUT.
//  4. credctl's own flags, applied by the CLI.
//
// # JSON schema
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "audience_token": "3f1c...",
//	  "session_file": "/home/me/.gophauth-session.db",
//	  "request_timeout": "15s"
//	}
package config
