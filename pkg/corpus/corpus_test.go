package corpus

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadLines(t *testing.T) {
	got, err := LoadLines(strings.NewReader("you are kind\r\n\n   \nyou are bright\nlast"))
	if err != nil {
		t.Fatalf("LoadLines failed: %v", err)
	}
	want := []string{"you are kind", "you are bright", "last"}
	if !slices.Equal(got, want) {
		t.Errorf("LoadLines() = %q, want %q", got, want)
	}
}

func TestLoadCSV(t *testing.T) {
	doc := "\uFEFFId,Compliment\n1,\"You are kind, truly\"\n2,\n3,You glow\n4\n"
	got, err := LoadCSV(strings.NewReader(doc), "Compliment")
	if err != nil {
		t.Fatalf("LoadCSV failed: %v", err)
	}
	want := []string{"You are kind, truly", "You glow"}
	if !slices.Equal(got, want) {
		t.Errorf("LoadCSV() = %q, want %q", got, want)
	}
}

func TestLoadCSVColumnNotFound(t *testing.T) {
	testCases := []struct {
		name string
		doc  string
	}{
		{"missing header", "Id,Text\n1,hello\n"},
		{"empty document", ""},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadCSV(strings.NewReader(tc.doc), "Compliment")
			if !errors.Is(err, ErrColumnNotFound) {
				t.Errorf("expected ErrColumnNotFound, got %v", err)
			}
		})
	}
}

type upperCleaner struct{}

func (upperCleaner) Clean(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = strings.ToUpper(l)
	}
	return out
}

func TestLoaderLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.csv", "Praise\nyou shine\n")
	writeFile(t, dir, "a.txt", "you are kind\nyou are wise\n")
	writeFile(t, dir, "notes.md", "ignored\n")
	if err := os.Mkdir(filepath.Join(dir, "sub.txt"), 0755); err != nil {
		t.Fatalf("Failed to create subdirectory: %v", err)
	}

	loader := NewLoader(WithColumn("Praise"), WithCleaner(upperCleaner{}))
	sentences, files, err := loader.LoadDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}
	if want := []string{"a.txt", "b.csv"}; !slices.Equal(files, want) {
		t.Errorf("files = %q, want %q", files, want)
	}
	if want := []string{"YOU ARE KIND", "YOU ARE WISE", "YOU SHINE"}; !slices.Equal(sentences, want) {
		t.Errorf("sentences = %q, want %q", sentences, want)
	}
}

func TestLoaderLoadDirMissingColumn(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "you are kind\n")
	writeFile(t, dir, "b.csv", "Other\nvalue\n")

	_, _, err := NewLoader().LoadDir(context.Background(), dir)
	if !errors.Is(err, ErrColumnNotFound) {
		t.Fatalf("expected ErrColumnNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "b.csv") {
		t.Errorf("expected error to name the file, got %v", err)
	}
}

func TestLoaderLoadDirCancelled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "you are kind\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := NewLoader().LoadDir(ctx, dir); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestLoaderLoad(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "corpus.csv", "Compliment\nyou are kind\n")
	loader := NewLoader()

	fromFile, err := loader.Load(context.Background(), file)
	if err != nil {
		t.Fatalf("Load(file) failed: %v", err)
	}
	fromDir, err := loader.Load(context.Background(), dir)
	if err != nil {
		t.Fatalf("Load(dir) failed: %v", err)
	}
	if !slices.Equal(fromFile, fromDir) || len(fromFile) != 1 {
		t.Errorf("Load(file) = %q, Load(dir) = %q", fromFile, fromDir)
	}

	if _, err := loader.Load(context.Background(), filepath.Join(dir, "missing.txt")); err == nil {
		t.Error("expected an error for a missing path")
	}
}

func TestLoaderEmptyDir(t *testing.T) {
	sentences, files, err := NewLoader().LoadDir(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}
	if len(sentences) != 0 || len(files) != 0 {
		t.Errorf("expected nothing loaded, got %q from %q", sentences, files)
	}
}
