// Package export writes leads in the spreadsheet-friendly CSV layout the
// outreach team imports.
package export

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kingrea/lead-radar/internal/lead"
)

// DefaultFileName is used when no output path is given.
const DefaultFileName = "leads_export.csv"

// Header is the fixed column set.
var Header = []string{"Product", "Source", "Score", "Status", "Tagline", "Website", "Date"}

// WriteCSV writes the header and one row per lead. Rows are joined by "\n"
// with no trailing newline. Only the tagline is quoted.
func WriteCSV(w io.Writer, leads []lead.Lead) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(strings.Join(Header, ",")); err != nil {
		return fmt.Errorf("export: write header: %w", err)
	}
	for _, l := range leads {
		if _, err := bw.WriteString("\n" + Row(l)); err != nil {
			return fmt.Errorf("export: write row %s: %w", l.ID, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("export: flush: %w", err)
	}
	return nil
}

// Row renders one lead.
func Row(l lead.Lead) string {
	fields := []string{
		l.ProductName,
		string(l.Source),
		strconv.Itoa(l.Score),
		string(l.Status),
		quote(l.Tagline),
		l.Website,
		l.LaunchDate,
	}
	return strings.Join(fields, ",")
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// WriteFile writes the CSV to path, creating parent directories. An empty
// path writes DefaultFileName in the current directory.
func WriteFile(path string, leads []lead.Lead) (string, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultFileName
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("export: create %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("export: create %s: %w", path, err)
	}
	if err := WriteCSV(f, leads); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("export: close %s: %w", path, err)
	}
	return path, nil
}
