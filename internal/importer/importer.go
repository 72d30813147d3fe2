// Package importer turns CSV files from different sources into ledger
// records. Each source format has a Parser; the Registry picks one by name
// or by sniffing the header row.
package importer

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pocketbook-dev/pocketbook/internal/csvio"
	"github.com/pocketbook-dev/pocketbook/internal/model"
)

// Parser converts a CSV file into ledger records.
type Parser interface {
	Parse(r io.Reader) (csvio.Import, error)
	Format() string
	// Accepts reports whether a header row looks like this parser's format.
	Accepts(header []string) bool
}

// Registry holds named parsers.
type Registry struct {
	parsers map[string]Parser
	order   []string
}

// FileInfo describes a CSV file in the inbox directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = p
	r.order = append(r.order, key)
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format string) Parser {
	return r.parsers[strings.ToLower(format)]
}

// Formats lists registered formats in registration order.
func (r *Registry) Formats() []string {
	return append([]string(nil), r.order...)
}

// Detect returns the first registered parser accepting header, or nil.
func (r *Registry) Detect(header []string) Parser {
	for _, key := range r.order {
		if p := r.parsers[key]; p.Accepts(header) {
			return p
		}
	}
	return nil
}

// DefaultRegistry returns a registry with all built-in parsers.
func DefaultRegistry(opts csvio.Options) *Registry {
	r := NewRegistry()
	r.Register(&StandardParser{Options: opts})
	r.Register(&ChaseParser{})
	return r
}

// ParseFile reads path with the named format, or detects the format from
// the header when format is empty.
func (r *Registry) ParseFile(path, format string) (csvio.Import, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return csvio.Import{}, "", &model.IOError{Op: "read", Path: path, Err: err}
	}
	defer f.Close()

	br := bufio.NewReader(f)
	var p Parser
	if format != "" {
		if p = r.Get(format); p == nil {
			return csvio.Import{}, "", fmt.Errorf("unknown import format %q (known: %s)", format, strings.Join(r.order, ", "))
		}
	} else {
		header, err := peekHeader(br)
		if err != nil {
			return csvio.Import{}, "", fmt.Errorf("reading %s: %w", path, err)
		}
		if p = r.Detect(header); p == nil {
			return csvio.Import{}, "", fmt.Errorf("%s: unrecognized header %q", path, strings.Join(header, ","))
		}
	}

	imp, err := p.Parse(br)
	if err != nil {
		return imp, p.Format(), fmt.Errorf("parsing %s as %s: %w", path, p.Format(), err)
	}
	return imp, p.Format(), nil
}

func peekHeader(br *bufio.Reader) ([]string, error) {
	// Peek far enough for any realistic header line.
	buf, err := br.Peek(4096)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, err
	}
	line := string(buf)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	if strings.TrimSpace(line) == "" {
		return nil, nil
	}
	return csv.NewReader(strings.NewReader(line)).Read()
}

// inboxDir is the workspace subdirectory scanned for CSVs.
const inboxDir = "import"

// processedDir is where imported inbox files are moved.
const processedDir = "import/processed"

// Scan returns CSV files in <root>/import/.
func Scan(root string) ([]FileInfo, error) {
	dir := filepath.Join(root, inboxDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// MarkProcessed moves a file from import/ to import/processed/.
func MarkProcessed(root, fileName string) error {
	src := filepath.Join(root, inboxDir, fileName)
	dstDir := filepath.Join(root, processedDir)

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	dst := filepath.Join(dstDir, fileName)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}
