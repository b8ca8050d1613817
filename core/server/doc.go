// Package server holds configuration for the HTTP trigger server.
//
// The server itself is assembled in cmd/start.go; this package only defines
// the settings (listen port, API key) so core/config can aggregate them.
package server
