package markov

import "strings"

// Tokenizer splits a single sentence into word tokens. Cleaning the input is
// not the tokenizer's job; it only decides where one word ends and the next
// begins.
type Tokenizer interface {
	Tokens(sentence string) []string
}

// WhitespaceTokenizer is the default Tokenizer. It splits on any run of
// Unicode whitespace and treats every resulting field as an opaque word, so
// mixed case and punctuation survive untouched.
type WhitespaceTokenizer struct{}

// NewWhitespaceTokenizer returns the default tokenizer.
func NewWhitespaceTokenizer() WhitespaceTokenizer {
	return WhitespaceTokenizer{}
}

// Tokens returns the whitespace-delimited fields of sentence. An empty or
// whitespace-only sentence yields no tokens.
func (WhitespaceTokenizer) Tokens(sentence string) []string {
	return strings.Fields(sentence)
}

// TokenizerFunc adapts a plain function to the Tokenizer interface.
type TokenizerFunc func(sentence string) []string

// Tokens calls f(sentence).
func (f TokenizerFunc) Tokens(sentence string) []string {
	return f(sentence)
}
