// Package report renders run and scan summaries as terminal tables or JSON
// documents. Tables use go-pretty; colour is only applied when the output is
// a terminal.
package report
