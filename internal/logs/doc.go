// Package logs reads curator's log file for the `curator logs` command.
//
// Last returns the trailing lines with bounded memory, and Follow polls for
// lines appended after an offset. Both accept a Matcher, so callers can narrow
// output to a single run id in either the console or the JSON log format.
package logs
