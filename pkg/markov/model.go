package markov

import (
	"io"
	"iter"
	"log/slog"
	"slices"
	"sort"
)

// chain is the successor table of a single predecessor. Tokens are sorted by
// ID and cumulative[i] holds the sum of the frequencies of tokens[0..i], so a
// weighted draw is a binary search instead of an expansion of every
// observation.
type chain struct {
	tokens     []ChainToken
	cumulative []int
	total      int
}

// Model is a trained first-order transition model. It maps every predecessor
// (a word or Start) to the words observed directly after it, with counts.
// A Model is immutable once built and safe for concurrent use.
type Model struct {
	vocab          []string // token_id -> token_text, vocab[SOCTokenID] is display only
	ids            map[string]int
	chains         map[int]*chain
	sentences      int
	endTransitions bool
}

// newModel freezes raw link counts into a Model. Links with a non-positive
// frequency are dropped, so every stored count is at least 1.
func newModel(vocab []string, links map[int]map[int]int, sentences int, endTransitions bool) *Model {
	ids := make(map[string]int, len(vocab))
	for id, text := range vocab {
		if id == SOCTokenID || text == "" {
			continue
		}
		ids[text] = id
	}

	chains := make(map[int]*chain, len(links))
	for prefixID, next := range links {
		c := &chain{tokens: make([]ChainToken, 0, len(next))}
		for tokenID, freq := range next {
			if freq <= 0 {
				continue
			}
			c.tokens = append(c.tokens, ChainToken{Id: tokenID, Freq: freq})
		}
		if len(c.tokens) == 0 {
			continue
		}
		sort.Slice(c.tokens, func(i, j int) bool {
			return c.tokens[i].Id < c.tokens[j].Id
		})
		c.cumulative = make([]int, len(c.tokens))
		for i, token := range c.tokens {
			c.total += token.Freq
			c.cumulative[i] = c.total
		}
		chains[prefixID] = c
	}

	return &Model{
		vocab:          vocab,
		ids:            ids,
		chains:         chains,
		sentences:      sentences,
		endTransitions: endTransitions,
	}
}

// Builder accumulates transitions sentence by sentence. It is not safe for
// concurrent use; the Models it produces are.
type Builder struct {
	tokenizer      Tokenizer
	endTransitions bool
	logger         *slog.Logger
	ids            map[string]int
	vocab          []string
	links          map[int]map[int]int
	sentences      int
}

// BuildOption is a function that configures a Builder.
type BuildOption func(*Builder)

// WithTokenizer sets the tokenizer used to split sentences.
// Default: WhitespaceTokenizer
func WithTokenizer(t Tokenizer) BuildOption {
	return func(b *Builder) {
		if t != nil {
			b.tokenizer = t
		}
	}
}

// WithEndTransitions makes the builder record a lastWord -> Start link for
// every sentence, so that generation can end on the words the corpus ends on.
// Default: false, sentences only end where a word has no successor.
func WithEndTransitions(enabled bool) BuildOption {
	return func(b *Builder) {
		b.endTransitions = enabled
	}
}

// WithBuildLogger sets the logger used to report finished builds.
// By default, all logs are discarded.
func WithBuildLogger(logger *slog.Logger) BuildOption {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBuilder creates an empty Builder.
func NewBuilder(opts ...BuildOption) *Builder {
	b := &Builder{
		tokenizer: NewWhitespaceTokenizer(),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		ids:       make(map[string]int),
		vocab:     []string{SOCTokenText},
		links:     make(map[int]map[int]int),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Builder) intern(word string) int {
	if id, ok := b.ids[word]; ok {
		return id
	}
	id := len(b.vocab)
	b.vocab = append(b.vocab, word)
	b.ids[word] = id
	return id
}

func (b *Builder) link(prefixID, nextID int) {
	next, ok := b.links[prefixID]
	if !ok {
		next = make(map[int]int)
		b.links[prefixID] = next
	}
	next[nextID]++
}

// Add tokenizes a sentence and records Start -> first word and one link per
// adjacent word pair. Sentences without tokens are ignored, and so are empty
// tokens a custom Tokenizer may return.
func (b *Builder) Add(sentence string) {
	words := b.tokenizer.Tokens(sentence)
	if len(words) == 0 {
		return
	}

	prev := SOCTokenID
	linked := false
	for _, word := range words {
		if word == "" {
			continue
		}
		linked = true
		cur := b.intern(word)
		b.link(prev, cur)
		prev = cur
	}
	if !linked {
		return
	}
	if b.endTransitions {
		b.link(prev, SOCTokenID)
	}
	b.sentences++
}

// Model freezes everything added so far into a new Model. The Builder can keep
// accepting sentences afterwards without affecting the returned Model.
func (b *Builder) Model() *Model {
	m := newModel(slices.Clone(b.vocab), b.links, b.sentences, b.endTransitions)

	b.logger.Info("Model built",
		slog.Int("sentences_processed", m.sentences),
		slog.Int("vocab_size", len(m.ids)),
		slog.Int("predecessors", len(m.chains)),
	)
	return m
}

// Build creates a Model from a corpus snapshot. An empty corpus yields a valid
// empty Model.
func Build(sentences []string, opts ...BuildOption) *Model {
	return BuildSeq(slices.Values(sentences), opts...)
}

// BuildSeq is like Build but reads the corpus from an iterator.
func BuildSeq(sentences iter.Seq[string], opts ...BuildOption) *Model {
	b := NewBuilder(opts...)
	for sentence := range sentences {
		b.Add(sentence)
	}
	return b.Model()
}

func (m *Model) tokenID(t Token) (int, bool) {
	if t.SOC {
		return SOCTokenID, true
	}
	id, ok := m.ids[t.Text]
	return id, ok
}

func (m *Model) token(id int) Token {
	if id == SOCTokenID {
		return Start
	}
	return Word(m.vocab[id])
}

// Successors returns the observed successors of t and their counts, ordered by
// token id. Build interns ids in first-seen order and FromSnapshot keeps the
// relative order of the ids it is given. The boolean is false if t was never
// seen as a predecessor.
func (m *Model) Successors(t Token) ([]Transition, bool) {
	id, ok := m.tokenID(t)
	if !ok {
		return nil, false
	}
	c, ok := m.chains[id]
	if !ok {
		return nil, false
	}
	transitions := make([]Transition, len(c.tokens))
	for i, token := range c.tokens {
		transitions[i] = Transition{Next: m.token(token.Id), Freq: token.Freq}
	}
	return transitions, true
}

// Contains reports whether word is part of the model vocabulary.
func (m *Model) Contains(word string) bool {
	_, ok := m.ids[word]
	return ok
}

// Empty reports whether the model has no way out of Start, in which case every
// generated sentence is empty.
func (m *Model) Empty() bool {
	_, ok := m.chains[SOCTokenID]
	return !ok
}

// Sentences returns the number of non-empty sentences the model was built from.
func (m *Model) Sentences() int {
	return m.sentences
}

// EndTransitions reports whether the model records lastWord -> Start links.
func (m *Model) EndTransitions() bool {
	return m.endTransitions
}

// links returns a mutable copy of the link counts, for deriving new models.
func (m *Model) links() map[int]map[int]int {
	links := make(map[int]map[int]int, len(m.chains))
	for prefixID, c := range m.chains {
		next := make(map[int]int, len(c.tokens))
		for _, token := range c.tokens {
			next[token.Id] = token.Freq
		}
		links[prefixID] = next
	}
	return links
}
