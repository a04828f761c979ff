package compliment

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Compliment is one generated sentence.
type Compliment struct {
	// Number is the 1-based position of the compliment in its batch.
	Number int `json:"number"`
	// Text is the decorated sentence.
	Text string `json:"text"`
	// Raw is the sentence as the model generated it.
	Raw string `json:"raw"`
}

// Decorate capitalizes the first letter of s and appends a period.
// An empty string stays empty.
func Decorate(s string) string {
	if s == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:] + "."
}

// New numbers and decorates raw sentences.
func New(raw []string) []Compliment {
	out := make([]Compliment, len(raw))
	for i, s := range raw {
		out[i] = Compliment{Number: i + 1, Text: Decorate(s), Raw: s}
	}
	return out
}

// Texts returns the decorated text of each compliment.
func Texts(cs []Compliment) []string {
	texts := make([]string, len(cs))
	for i, c := range cs {
		texts[i] = c.Text
	}
	return texts
}

// AppendFile appends text to the file at path, creating the file and its
// directory if needed. A trailing newline is added when missing.
func AppendFile(path, text string) error {
	if text == "" {
		return nil
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create save directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open save file: %w", err)
	}
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	if _, err = f.WriteString(text); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write save file: %w", err)
	}
	return f.Close()
}
