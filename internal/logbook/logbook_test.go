package logbook

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

type attributedErr struct{ req string }

func (e attributedErr) Error() string      { return "backend said no [request " + e.req + "]" }
func (e attributedErr) LogAttrs() []string { return []string{"kind=server", "req=" + e.req} }

func TestTailReturnsRecentEntriesAndTotal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "console.log")
	book, err := New(path)
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	for i := 0; i < 5; i++ {
		book.Info("entry-%d", i)
	}
	entries, total := book.Tail(3)
	if total != 5 {
		t.Fatalf("total entries = %d, want 5", total)
	}
	if len(entries) != 3 {
		t.Fatalf("len(entries) = %d, want 3", len(entries))
	}
	for idx, want := range []string{"entry-2", "entry-3", "entry-4"} {
		if entries[idx].Message != want || entries[idx].Level != LevelInfo {
			t.Fatalf("entry %d = %+v, want INFO %s", idx, entries[idx], want)
		}
	}
}

func TestAppendFormatsLevelAndFoldsNewlines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "console.log")
	book, err := New(path)
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	book.clock = func() time.Time { return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC) }
	book.Error("patch failed:\n  status 500")
	book.Warn("slow")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", lines)
	}
	if lines[0] != "2024-03-01T10:00:00Z ERROR patch failed: status 500" {
		t.Fatalf("unexpected line %q", lines[0])
	}
	if lines[1] != "2024-03-01T10:00:00Z WARN  slow" {
		t.Fatalf("expected padded level, got %q", lines[1])
	}
}

func TestErrorArgumentsContributeAttributes(t *testing.T) {
	book, err := New(filepath.Join(t.TempDir(), "console.log"))
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	book.clock = func() time.Time { return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC) }
	wrapped := fmt.Errorf("list leads: %w", attributedErr{req: "r-7"})
	book.Error("Failed to fetch leads: %v", wrapped)
	book.Warn("Plain failure: %v", errors.New("no attrs"))

	entries, _ := book.Tail(2)
	got := entries[0]
	if got.Level != LevelError || got.Message != "Failed to fetch leads: list leads: backend said no [request r-7]" {
		t.Fatalf("unexpected entry %+v", got)
	}
	if !reflect.DeepEqual(got.Attrs, []string{"kind=server", "req=r-7"}) {
		t.Fatalf("unexpected attrs %v", got.Attrs)
	}
	if !got.Time.Equal(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected time %v", got.Time)
	}
	if entries[1].Attrs != nil {
		t.Fatalf("plain errors carry no attrs, got %v", entries[1].Attrs)
	}
}

func TestParseEntryKeepsForeignLines(t *testing.T) {
	e := ParseEntry("not a logbook line | a=b")
	if e.Level != LevelInfo || e.Message != "not a logbook line | a=b" || !e.Time.IsZero() {
		t.Fatalf("unexpected entry %+v", e)
	}
	e = ParseEntry("2024-03-01T10:00:00Z INFO  choose a | b")
	if e.Message != "choose a | b" || e.Attrs != nil {
		t.Fatalf("bar without pairs must stay in the message, got %+v", e)
	}
}

func TestNilLogbookIsSafe(t *testing.T) {
	var book *Logbook
	book.Info("ignored")
	if entries, total := book.Tail(5); entries != nil || total != 0 {
		t.Fatalf("nil logbook must return nothing")
	}
	if book.Path() != "" {
		t.Fatalf("nil logbook has no path")
	}
}
