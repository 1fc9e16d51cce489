// Package cli turns command-line arguments and DISCRETEGO_* environment
// variables into a validated app.Config. Flags override the environment,
// and invalid input is reported as an ExitError carrying the process exit
// code.
package cli
