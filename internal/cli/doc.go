// Package cli holds the command-line plumbing shared by the yoctl commands
// and the console.
//
// # Connection Resolution
//
// ResolveConnection picks the manager endpoint and access token with the
// precedence explicit flag > --context > YOCTL_CONTEXT > current context >
// default. YOCTL_ENDPOINT and YOCTL_TOKEN feed the flag defaults, so they sit
// at flag level.
//
// # Output
//
// Printer renders command results as:
//   - table: kubectl-style plain columns (PlainTableWriter)
//   - wide: the table with extra columns
//   - json: indented JSON
//   - yaml: YAML converted from the JSON form
//   - template: a Go template with the sprig function set
//
// Detail views use go-pretty tables with the rounded style. Network calls
// show a spinner unless output is quiet or machine-readable.
//
// # Errors
//
// AuthRequiredError, AuthFailedError, ValidationError and ConnectionError
// carry actionable messages; ExitCode maps them to process exit codes.
package cli
