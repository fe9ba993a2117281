package report

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

// Kind grades a status line or table row.
type Kind int

const (
	KindInfo Kind = iota
	KindOK
	KindWarn
	KindError
)

var kindLabels = map[Kind]string{
	KindInfo:  "INFO",
	KindOK:    "OK",
	KindWarn:  "WARN",
	KindError: "ERROR",
}

// kindColors paints lines of a kind. Info stays plain inside tables, so only
// StatusLine colours it.
func kindColors(kind Kind) text.Colors {
	switch kind {
	case KindOK:
		return text.Colors{text.FgGreen}
	case KindWarn:
		return text.Colors{text.FgYellow}
	case KindError:
		return text.Colors{text.FgRed}
	default:
		return nil
	}
}

const labelWidth = 20

// StatusLine renders "  label:   [KIND] message".
func StatusLine(label string, kind Kind, message string, colorize bool) string {
	tag, ok := kindLabels[kind]
	if !ok {
		kind, tag = KindInfo, kindLabels[KindInfo]
	}
	line := fmt.Sprintf("  %-*s [%s]", labelWidth, label+":", tag)
	if message != "" {
		line += " " + message
	}
	if !colorize {
		return line
	}
	colors := kindColors(kind)
	if kind == KindInfo {
		colors = text.Colors{text.FgBlue}
	}
	return colors.Sprint(line)
}

// IssueKind grades a count of open issues: none is OK, any is a warning.
func IssueKind(n int) Kind {
	if n <= 0 {
		return KindOK
	}
	return KindWarn
}

// issueLine reports a count of open issues. zero replaces "0" in the message
// when set.
func issueLine(label string, n int, zero string, colorize bool) string {
	message := strconv.Itoa(max(n, 0))
	if n <= 0 && zero != "" {
		message = zero
	}
	return StatusLine(label, IssueKind(n), message, colorize)
}

// SectionHeader renders a titled rule.
func SectionHeader(title string, colorize bool) []string {
	line := "== " + strings.TrimSpace(title) + " =="
	rule := strings.Repeat("-", len(line))
	if colorize {
		heading := text.Colors{text.FgBlue, text.Bold}
		line, rule = heading.Sprint(line), heading.Sprint(rule)
	}
	return []string{line, rule}
}

// ShouldColorize reports whether writer is a terminal.
func ShouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
