package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"curator/internal/logging"
)

// DefaultPoll is the Follow polling interval.
const DefaultPoll = 250 * time.Millisecond

const maxLineBytes = 1024 * 1024

// Matcher selects log lines. A nil Matcher accepts every line.
type Matcher func(line string) bool

// RunMatcher accepts lines tagged with runID by the console or JSON handler.
// An empty runID accepts everything.
func RunMatcher(runID string) Matcher {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return nil
	}
	console := logging.FieldRunID + "=" + runID
	jsonField := fmt.Sprintf("%q:%q", logging.FieldRunID, runID)
	return func(line string) bool {
		return strings.Contains(line, jsonField) || containsToken(line, console)
	}
}

// containsToken matches needle as a whole space-delimited token.
func containsToken(line, needle string) bool {
	for rest := line; ; {
		idx := strings.Index(rest, needle)
		if idx < 0 {
			return false
		}
		end := idx + len(needle)
		if (idx == 0 || rest[idx-1] == ' ') && (end == len(rest) || rest[end] == ' ') {
			return true
		}
		rest = rest[end:]
	}
}

// Last returns up to limit trailing lines of path that match, and the offset
// of the end of the file. A missing file yields no lines and offset 0.
func Last(path string, limit int, match Matcher) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if limit <= 0 {
		offset, err := file.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, 0, fmt.Errorf("seek log file: %w", err)
		}
		return nil, offset, nil
	}

	ring := make([]string, limit)
	count, idx := 0, 0
	offset, err := scanLines(file, func(line string) {
		if match != nil && !match(line) {
			return
		}
		ring[idx] = line
		idx = (idx + 1) % limit
		count = min(count+1, limit)
	})
	if err != nil {
		return nil, 0, err
	}

	lines := make([]string, count)
	if count == limit {
		for i := range count {
			lines[i] = ring[(idx+i)%limit]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, offset, nil
}

// Follow emits matching lines appended after offset until ctx is done. A file
// that shrinks below offset was truncated or rotated and is read from the
// start.
func Follow(ctx context.Context, path string, offset int64, poll time.Duration, match Matcher, emit func(string)) error {
	if poll <= 0 {
		poll = DefaultPoll
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		next, err := readFrom(path, offset, match, emit)
		if err != nil {
			return err
		}
		offset = next

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func readFrom(path string, offset int64, match Matcher, emit func(string)) (int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return offset, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return offset, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return offset, fmt.Errorf("log path %q is a directory", path)
	}
	if offset < 0 || offset > info.Size() {
		offset = 0
	}
	if offset == info.Size() {
		return offset, nil
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return offset, fmt.Errorf("seek log file: %w", err)
	}

	consumed, err := scanLines(file, func(line string) {
		if match == nil || match(line) {
			emit(line)
		}
	})
	if err != nil {
		return offset, err
	}
	return consumed, nil
}

// scanLines feeds complete lines from the file's current position to fn and
// returns the offset just past the last complete line. A trailing partial
// line is left for the next read.
func scanLines(file *os.File, fn func(string)) (int64, error) {
	start, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, fmt.Errorf("determine log offset: %w", err)
	}
	reader := bufio.NewReaderSize(file, 64*1024)
	offset := start
	for {
		line, err := reader.ReadString('\n')
		if errors.Is(err, io.EOF) {
			return offset, nil
		}
		if err != nil {
			return offset, fmt.Errorf("read log file: %w", err)
		}
		offset += int64(len(line))
		if len(line) > maxLineBytes {
			line = line[:maxLineBytes]
		}
		fn(strings.TrimRight(line, "\r\n"))
	}
}
