// Package writer persists generated record sets.
//
// File writers follow a directory-per-table layout under a root directory:
//
//	<root>/<table>/<domain>__<table>.<ext>
//
// Every writer emits the schema fields in declaration order followed by the
// envelope columns. The PostgreSQL writer targets a database instead of the
// layout and is constructed separately with a pool.
package writer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/synthedata/internal/core"
	"github.com/JonMunkholm/synthedata/internal/logging"
	"github.com/JonMunkholm/synthedata/internal/schema"
)

// ErrUnknownFormat is returned for an unsupported output format name.
var ErrUnknownFormat = errors.New("unknown output format")

// Format names an output format.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatJSONL   Format = "jsonl"
	FormatParquet Format = "parquet"
	FormatDuckDB  Format = "duckdb"
	FormatReport  Format = "dq"
)

var fileFormats = map[Format]bool{
	FormatCSV:     true,
	FormatJSONL:   true,
	FormatParquet: true,
	FormatDuckDB:  true,
	FormatReport:  true,
}

// FormatNames returns the supported file format names, sorted.
func FormatNames() []string {
	out := make([]string, 0, len(fileFormats))
	for f := range fileFormats {
		out = append(out, string(f))
	}
	sort.Strings(out)
	return out
}

// ParseFormats validates format names. Duplicates are dropped.
func ParseFormats(names []string) ([]Format, error) {
	seen := make(map[Format]bool)
	var out []Format
	for _, n := range names {
		f := Format(strings.ToLower(strings.TrimSpace(n)))
		if f == "" || seen[f] {
			continue
		}
		if !fileFormats[f] {
			return nil, fmt.Errorf("%w: %q (supported: %s)", ErrUnknownFormat, n, strings.Join(FormatNames(), ", "))
		}
		seen[f] = true
		out = append(out, f)
	}
	return out, nil
}

// Writer persists one record set.
type Writer interface {
	Write(ctx context.Context, rs *core.RecordSet) error
}

// Layout computes file paths under a root directory.
type Layout struct {
	Root string
}

// Path returns <root>/<table>/<domain>__<table>.<ext>.
func (l Layout) Path(id schema.TableID, ext string) string {
	return filepath.Join(l.Root, id.Table, id.Domain+"__"+id.Table+"."+ext)
}

// create makes the table directory and opens the target file.
func (l Layout) create(id schema.TableID, ext string) (*os.File, string, error) {
	path := l.Path(id, ext)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, "", fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, "", fmt.Errorf("create %s: %w", path, err)
	}
	return f, path, nil
}

// New returns the file writer for f under root.
func New(f Format, root string) (Writer, error) {
	l := Layout{Root: root}
	switch f {
	case FormatCSV:
		return &CSVWriter{Layout: l}, nil
	case FormatJSONL:
		return &JSONLWriter{Layout: l}, nil
	case FormatParquet:
		return &ParquetWriter{Layout: l}, nil
	case FormatDuckDB:
		return &DuckDBWriter{Layout: l}, nil
	case FormatReport:
		return &ReportWriter{Layout: l}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

// NewAll builds one writer per format.
func NewAll(formats []Format, root string) ([]Writer, error) {
	out := make([]Writer, 0, len(formats))
	for _, f := range formats {
		w, err := New(f, root)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}

// WriteAll writes every record set with every writer. Tables are written
// concurrently, at most parallelism at a time; the writers of one table run
// in order. The first failure cancels the remaining writes.
func WriteAll(ctx context.Context, sets map[string]*core.RecordSet, writers []Writer, parallelism int) error {
	if parallelism <= 0 {
		parallelism = 1
	}
	names := make([]string, 0, len(sets))
	for name := range sets {
		names = append(names, name)
	}
	sort.Strings(names)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)

	for _, name := range names {
		rs := sets[name]
		g.Go(func() error {
			for _, w := range writers {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := w.Write(gctx, rs); err != nil {
					return fmt.Errorf("write %s: %w", name, err)
				}
			}
			logging.FromContext(gctx).Debug("table written", "table", name, "rows", rs.Len(), "writers", len(writers))
			return nil
		})
	}
	return g.Wait()
}
