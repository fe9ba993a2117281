// Package coordinator drives one bounded reconciliation run.
//
// A run moves through Idle, Scanning, Reconciling (one step per batch), a
// second Scanning pass, Reporting, and back to Idle. The work list comes
// from a fresh scan every time, capped per run and rotated by the checkpoint
// cursor so that entries nothing can fix do not starve the rest. Writing runs
// hold a file lock in the state directory; dry runs take no lock and persist
// nothing.
package coordinator
