package corpus

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// DefaultColumn is the CSV header the loader reads sentences from.
const DefaultColumn = "Compliment"

// ErrColumnNotFound is returned when a CSV file has no header with the requested name.
var ErrColumnNotFound = errors.New("column not found")

// LoadLines reads one sentence per line. Trailing line breaks are removed and
// blank lines are skipped.
func LoadLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read lines: %w", err)
	}
	return lines, nil
}

// LoadCSV reads the named column of a CSV document whose first row is a header.
// Empty cells are skipped.
func LoadCSV(r io.Reader, column string) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: %q (no header row)", ErrColumnNotFound, column)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	idx := -1
	for i, name := range header {
		if strings.TrimSpace(strings.TrimPrefix(name, "\uFEFF")) == column {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, column)
	}

	var sentences []string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv record: %w", err)
		}
		if idx >= len(record) || strings.TrimSpace(record[idx]) == "" {
			continue
		}
		sentences = append(sentences, record[idx])
	}
	return sentences, nil
}

// Cleaner transforms a loaded corpus before it is returned.
type Cleaner interface {
	Clean(lines []string) []string
}

// Loader reads corpora from the filesystem.
type Loader struct {
	column  string
	cleaner Cleaner
	logger  *slog.Logger
}

// Option is a function that configures a Loader.
type Option func(*Loader)

// WithColumn sets the CSV column sentences are read from.
// Default: "Compliment"
func WithColumn(column string) Option {
	return func(l *Loader) {
		if column != "" {
			l.column = column
		}
	}
}

// WithCleaner runs every loaded corpus through c. Each file is cleaned on its
// own, so corpus-wide word filters apply per file.
func WithCleaner(c Cleaner) Option {
	return func(l *Loader) {
		l.cleaner = c
	}
}

// WithLogger sets the logger for the Loader. By default, all logs are discarded.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoader creates a Loader configured by opts.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		column: DefaultColumn,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Column returns the CSV column the loader reads.
func (l *Loader) Column() string {
	return l.column
}

// LoadFile reads a single file. Files ending in .csv are read as CSV, anything
// else as line-delimited text.
func (l *Loader) LoadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus file: %w", err)
	}
	defer f.Close()

	var sentences []string
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		sentences, err = LoadCSV(f, l.column)
	} else {
		sentences, err = LoadLines(f)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", filepath.Base(path), err)
	}
	if l.cleaner != nil {
		sentences = l.cleaner.Clean(sentences)
	}
	return sentences, nil
}

// LoadDir reads every .txt and .csv file directly inside dir, in name order.
// Other files and subdirectories are ignored. It returns the sentences and the
// names of the files that were read. A CSV without the configured column
// aborts the load.
func (l *Loader) LoadDir(ctx context.Context, dir string) ([]string, []string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read corpus directory: %w", err)
	}

	var sentences []string
	var files []string
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		if entry.IsDir() || !isCorpusFile(entry.Name()) {
			continue
		}
		lines, err := l.LoadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, nil, err
		}
		sentences = append(sentences, lines...)
		files = append(files, entry.Name())
	}

	l.logger.Info("Corpus loaded",
		slog.String("dir", dir),
		slog.Int("files", len(files)),
		slog.Int("sentences", len(sentences)),
	)
	return sentences, files, nil
}

// Load reads path as a directory if it is one, otherwise as a single file.
func (l *Loader) Load(ctx context.Context, path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat corpus: %w", err)
	}
	if info.IsDir() {
		sentences, _, err := l.LoadDir(ctx, path)
		return sentences, err
	}
	sentences, err := l.LoadFile(path)
	if err != nil {
		return nil, err
	}
	l.logger.Info("Corpus loaded", slog.String("file", path), slog.Int("sentences", len(sentences)))
	return sentences, nil
}

var corpusExtensions = []string{".txt", ".csv"}

func isCorpusFile(name string) bool {
	return slices.Contains(corpusExtensions, strings.ToLower(filepath.Ext(name)))
}
