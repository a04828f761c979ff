package preprocess

import (
	"io"
	"log/slog"
	"regexp"
	"slices"
	"strings"
)

const (
	// DefaultRareWords is the number of least frequent words removed from a corpus.
	DefaultRareWords = 10
	// punctuation is the ASCII punctuation set removed from every line.
	punctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"
)

var (
	initialNumberRegex = regexp.MustCompile(`^\d+\.?`)
	urlRegex           = regexp.MustCompile(`https?://\S+|www\.\S+`)
	emojiRegex         = regexp.MustCompile(`[` +
		`\x{1F600}-\x{1F64F}` + // emoticons
		`\x{1F300}-\x{1F5FF}` + // symbols & pictographs
		`\x{1F680}-\x{1F6FF}` + // transport & map symbols
		`\x{1F1E0}-\x{1F1FF}` + // flags
		`\x{2702}-\x{1F251}` +
		`]+`)
)

// Cleaner normalizes corpus lines. Its behavior can be customized with
// functional options. A Cleaner is safe for concurrent use once created.
type Cleaner struct {
	rareWords       int
	frequentWords   int
	removeStopwords bool
	stopwords       map[string]struct{}
	logger          *slog.Logger
}

// Option is a function that configures a Cleaner.
type Option func(*Cleaner)

// WithRareWords sets how many of the least frequent words are removed from the
// corpus. Zero disables the filter.
// Default: 10
func WithRareWords(n int) Option {
	return func(c *Cleaner) {
		c.rareWords = n
	}
}

// WithFrequentWords sets how many of the most frequent words are removed from
// the corpus. Zero disables the filter.
// Default: 0
func WithFrequentWords(n int) Option {
	return func(c *Cleaner) {
		c.frequentWords = n
	}
}

// WithStopwords enables removal of common English stopwords.
// Default: false
func WithStopwords(enabled bool) Option {
	return func(c *Cleaner) {
		c.removeStopwords = enabled
	}
}

// WithStopwordList replaces the stopword list. It does not enable the filter
// on its own.
func WithStopwordList(words []string) Option {
	return func(c *Cleaner) {
		c.stopwords = makeSet(words)
	}
}

// WithLogger sets the logger for the Cleaner. By default, all logs are discarded.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cleaner) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCleaner creates a new cleaner with default settings, which can be
// overridden by providing one or more Option functions.
func NewCleaner(opts ...Option) *Cleaner {
	c := &Cleaner{
		rareWords: DefaultRareWords,
		stopwords: makeSet(EnglishStopwords),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CleanLine applies the per-line steps: lowercase, strip a leading list
// number, strip emoji, strip URLs, strip ASCII punctuation and, if enabled,
// drop stopwords. Runs of whitespace collapse to single spaces.
func (c *Cleaner) CleanLine(text string) string {
	text = strings.ToLower(text)
	text = strings.TrimSpace(initialNumberRegex.ReplaceAllString(text, ""))
	text = emojiRegex.ReplaceAllString(text, "")
	text = urlRegex.ReplaceAllString(text, "")
	text = strings.Map(func(r rune) rune {
		if strings.ContainsRune(punctuation, r) {
			return -1
		}
		return r
	}, text)

	words := strings.Fields(text)
	if c.removeStopwords {
		words = slices.DeleteFunc(words, func(w string) bool {
			_, stop := c.stopwords[w]
			return stop
		})
	}
	return strings.Join(words, " ")
}

// Clean cleans every line and then removes the corpus-wide rare and frequent
// words. Lines that end up with no words are dropped.
func (c *Cleaner) Clean(lines []string) []string {
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = c.CleanLine(line); line != "" {
			cleaned = append(cleaned, line)
		}
	}

	ranked := rankWords(cleaned)
	drop := make(map[string]struct{})
	if c.frequentWords > 0 {
		for _, w := range ranked[:min(c.frequentWords, len(ranked))] {
			drop[w.text] = struct{}{}
		}
	}
	if c.rareWords > 0 {
		for _, w := range ranked[max(len(ranked)-c.rareWords, 0):] {
			drop[w.text] = struct{}{}
		}
	}

	out := cleaned
	if len(drop) > 0 {
		out = make([]string, 0, len(cleaned))
		for _, line := range cleaned {
			words := slices.DeleteFunc(strings.Fields(line), func(w string) bool {
				_, dropped := drop[w]
				return dropped
			})
			if len(words) > 0 {
				out = append(out, strings.Join(words, " "))
			}
		}
	}

	c.logger.Info("Corpus cleaned",
		slog.Int("lines_in", len(lines)),
		slog.Int("lines_out", len(out)),
		slog.Int("distinct_words", len(ranked)),
		slog.Int("words_dropped", len(drop)),
	)
	return out
}

type wordCount struct {
	text  string
	count int
}

// rankWords orders words by descending count. Ties keep the order in which
// the words were first seen, so the rarest words are the last ones seen among
// those with the lowest count.
func rankWords(lines []string) []wordCount {
	index := make(map[string]int)
	var ranked []wordCount
	for _, line := range lines {
		for _, w := range strings.Fields(line) {
			if i, ok := index[w]; ok {
				ranked[i].count++
				continue
			}
			index[w] = len(ranked)
			ranked = append(ranked, wordCount{text: w, count: 1})
		}
	}
	slices.SortStableFunc(ranked, func(a, b wordCount) int {
		return b.count - a.count
	})
	return ranked
}

func makeSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
