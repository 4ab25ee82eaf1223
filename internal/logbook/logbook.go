// Package logbook is the console's activity log. Entries are single lines of
// the form
//
//	2024-03-01T10:00:00Z ERROR Failed to fetch leads | op=list-leads kind=server status=500 req=3f2a
//
// where the key=value attributes after the bar come from errors passed as
// format arguments that implement Attributed.
package logbook

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Level represents the severity of a log entry.
type Level string

const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Attributed is implemented by errors that carry request metadata worth
// keeping next to the message, such as a backend request id.
type Attributed interface {
	LogAttrs() []string
}

const attrSeparator = " | "

// Entry is one parsed logbook line.
type Entry struct {
	Time    time.Time
	Level   Level
	Message string
	Attrs   []string
}

// String renders the entry in its on-disk form.
func (e Entry) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %-5s %s", e.Time.UTC().Format(time.RFC3339), string(e.Level), e.Message)
	if len(e.Attrs) > 0 {
		b.WriteString(attrSeparator)
		b.WriteString(strings.Join(e.Attrs, " "))
	}
	return b.String()
}

// ParseEntry reads a line written by Append. Lines that do not carry a
// timestamp and level come back as an INFO entry holding the raw text.
func ParseEntry(line string) Entry {
	stamp, rest, ok := strings.Cut(line, " ")
	ts, err := time.Parse(time.RFC3339, stamp)
	if !ok || err != nil {
		return Entry{Level: LevelInfo, Message: line}
	}
	level, message, _ := strings.Cut(strings.TrimLeft(rest, " "), " ")
	entry := Entry{Time: ts, Level: Level(level), Message: strings.TrimLeft(message, " ")}
	if i := strings.LastIndex(entry.Message, attrSeparator); i >= 0 {
		attrs := strings.Fields(entry.Message[i+len(attrSeparator):])
		if len(attrs) > 0 && allPairs(attrs) {
			entry.Attrs = attrs
			entry.Message = entry.Message[:i]
		}
	}
	return entry
}

func allPairs(attrs []string) bool {
	for _, a := range attrs {
		if k, _, ok := strings.Cut(a, "="); !ok || k == "" {
			return false
		}
	}
	return true
}

// Logbook appends console activity to a plain text file. The TUI owns the
// terminal, so this file is the only place failures are recorded in full.
type Logbook struct {
	path  string
	clock func() time.Time
	mu    sync.Mutex
}

// New creates a logbook that writes to the provided path.
func New(path string) (*Logbook, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("logbook: ensure log dir: %w", err)
	}
	return &Logbook{path: path, clock: time.Now}, nil
}

// Path returns the file backing this logbook.
func (l *Logbook) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Append writes a single entry. Multi-line messages are folded onto one
// line so Tail stays line oriented.
func (l *Logbook) Append(level Level, message string, attrs ...string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	entry := Entry{
		Time:    l.clock(),
		Level:   level,
		Message: strings.Join(strings.Fields(message), " "),
		Attrs:   attrs,
	}
	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return
	}
	defer file.Close()
	_, _ = file.WriteString(entry.String() + "\n")
}

// Tail returns up to maxLines of the most recent entries, oldest first, and
// the total number of entries in the file.
func (l *Logbook) Tail(maxLines int) ([]Entry, int) {
	if l == nil || maxLines <= 0 {
		return nil, 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	file, err := os.Open(l.path)
	if err != nil {
		return nil, 0
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	total := len(lines)
	if total == 0 {
		return nil, 0
	}
	if total > maxLines {
		lines = lines[total-maxLines:]
	}
	entries := make([]Entry, len(lines))
	for i, line := range lines {
		entries[i] = ParseEntry(line)
	}
	return entries, total
}

// Info appends an informational entry.
func (l *Logbook) Info(format string, args ...any) {
	l.Append(LevelInfo, fmt.Sprintf(format, args...), attrsOf(args)...)
}

// Warn appends a warning entry.
func (l *Logbook) Warn(format string, args ...any) {
	l.Append(LevelWarn, fmt.Sprintf(format, args...), attrsOf(args)...)
}

// Error appends an error entry.
func (l *Logbook) Error(format string, args ...any) {
	l.Append(LevelError, fmt.Sprintf(format, args...), attrsOf(args)...)
}

func attrsOf(args []any) []string {
	var attrs []string
	for _, arg := range args {
		err, ok := arg.(error)
		if !ok {
			continue
		}
		var attributed Attributed
		if errors.As(err, &attributed) {
			attrs = append(attrs, attributed.LogAttrs()...)
		}
	}
	return attrs
}
