// Package cli translates command-line arguments into a validated app.Config.
// It owns usage text and exit codes, keeping the app package free of
// flag-parsing concerns.
package cli
