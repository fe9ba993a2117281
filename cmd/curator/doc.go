// Package main hosts the curator CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once, opens the configured
// catalog, and hands off to the coordinator for scans and reconciliation
// runs. Reports go to stdout as tables or JSON; logs go to stderr and the log
// file so that stdout stays machine readable.
//
// Exit status is 0 when the catalog is clean after the command and 1 when
// issues remain or the command failed.
package main
