package markov

import (
	"errors"
	"log/slog"
	"math"
	"math/rand/v2"
	"slices"
	"sort"
	"strings"
)

var (
	// ErrInvalidMaxLength is returned when a non-positive maximum length is requested.
	ErrInvalidMaxLength = errors.New("markov: max length must be positive")
	// ErrInvalidExtension is returned when a negative extension budget is requested.
	ErrInvalidExtension = errors.New("markov: extend attempts must not be negative")
)

const (
	// DefaultMaxLength is the number of words after which generation starts
	// looking for a natural end.
	DefaultMaxLength = 20
	// DefaultExtendAttempts is how many extra words may be sampled while
	// looking for a natural end past the maximum length.
	DefaultExtendAttempts = 10
)

// generateOptions Is used by the generate functions to configure default options.
type generateOptions struct {
	maxLength      int
	extendAttempts int
	temperature    float64
	topK           int
	rng            *rand.Rand
	logger         *slog.Logger
}

func defaultGenerateOptions() *generateOptions {
	return &generateOptions{
		maxLength:      DefaultMaxLength,
		extendAttempts: DefaultExtendAttempts,
		temperature:    1.0,
		topK:           0,
	}
}

func (o *generateOptions) intN(n int) int {
	if o.rng != nil {
		return o.rng.IntN(n)
	}
	return rand.IntN(n)
}

func (o *generateOptions) float64() float64 {
	if o.rng != nil {
		return o.rng.Float64()
	}
	return rand.Float64()
}

// GenerateOption is a function that configures generation parameters.
type GenerateOption func(*generateOptions)

// WithMaxLength sets the soft limit on the number of generated words. Once it
// is reached, generation keeps sampling for up to the extension budget in
// search of a natural end.
func WithMaxLength(n int) GenerateOption {
	return func(o *generateOptions) { o.maxLength = n }
}

// WithExtendAttempts sets how many words may be sampled past the maximum
// length while looking for a natural end. Zero stops exactly at the limit.
func WithExtendAttempts(n int) GenerateOption {
	return func(o *generateOptions) { o.extendAttempts = n }
}

// WithTemperature adjusts the randomness of the token selection.
// A value of 1.0 is exact frequency-weighted selection.
// Values > 1.0 flatten the distribution, values < 1.0 sharpen it.
// A value of 0 or less always picks the most frequent successor.
func WithTemperature(t float64) GenerateOption {
	return func(o *generateOptions) { o.temperature = t }
}

// WithTopK restricts selection to the k most frequent successors at each step.
// A value of 0 disables Top-K sampling.
func WithTopK(k int) GenerateOption {
	return func(o *generateOptions) { o.topK = k }
}

// WithRand sets the random source used for sampling. By default, the global
// math/rand/v2 source is used.
func WithRand(r *rand.Rand) GenerateOption {
	return func(o *generateOptions) { o.rng = r }
}

// WithGenerateLogger sets a logger that receives a debug event describing why
// each generation stopped. By default, nothing is logged.
func WithGenerateLogger(logger *slog.Logger) GenerateOption {
	return func(o *generateOptions) { o.logger = logger }
}

// SampleNext draws a successor of current in proportion to its observed
// frequency. The boolean is false if current has no successors.
func (m *Model) SampleNext(current Token, opts ...GenerateOption) (Token, bool) {
	options := defaultGenerateOptions()
	for _, opt := range opts {
		opt(options)
	}
	id, ok := m.tokenID(current)
	if !ok {
		return Token{}, false
	}
	next, ok := m.sampleNext(id, options)
	if !ok {
		return Token{}, false
	}
	return m.token(next), true
}

func (m *Model) sampleNext(prefixID int, options *generateOptions) (int, bool) {
	c, ok := m.chains[prefixID]
	if !ok || c.total == 0 {
		return 0, false
	}
	return chooseNextToken(c, options), true
}

// genState is the stopping policy state of a single generation.
type genState int

const (
	stateRunning genState = iota
	stateExtending
	stateDone
)

// GenerateTokens walks the chain from Start and returns the generated words.
// An empty model yields no words and no error.
func (m *Model) GenerateTokens(opts ...GenerateOption) ([]string, error) {
	options := defaultGenerateOptions()
	for _, opt := range opts {
		opt(options)
	}
	if options.maxLength <= 0 {
		return nil, ErrInvalidMaxLength
	}
	if options.extendAttempts < 0 {
		return nil, ErrInvalidExtension
	}

	var output []string
	current := SOCTokenID
	state := stateRunning
	attempts := 0

	for state != stateDone {
		if state == stateExtending && attempts >= options.extendAttempts {
			if options.logger != nil {
				options.logger.Debug("Generation terminated after exhausting extension",
					slog.Int("max_length", options.maxLength),
					slog.Int("generated_length", len(output)),
				)
			}
			state = stateDone
			continue
		}

		next, ok := m.sampleNext(current, options)
		if state == stateExtending {
			attempts++
		}
		// A dead end or a sampled Start is a natural end. The word that ends
		// the sentence is never part of the output.
		if !ok || next == SOCTokenID {
			if options.logger != nil {
				options.logger.Debug("Generation terminated at natural end",
					slog.Bool("dead_end", !ok),
					slog.Int("generated_length", len(output)),
				)
			}
			state = stateDone
			continue
		}

		output = append(output, m.vocab[next])
		current = next

		if state == stateRunning && len(output) == options.maxLength {
			state = stateExtending
		}
	}

	return output, nil
}

// Generate returns one sentence, its words joined by single spaces. A model
// with no transitions out of Start yields an empty string.
func (m *Model) Generate(opts ...GenerateOption) (string, error) {
	words, err := m.GenerateTokens(opts...)
	if err != nil {
		return "", err
	}
	return strings.Join(words, " "), nil
}

// chooseNextToken abstracts the token selection logic from the generation loop.
func chooseNextToken(c *chain, options *generateOptions) int {
	if options.topK <= 0 || options.topK >= len(c.tokens) {
		if options.temperature == 1.0 {
			return weightedChoice(c, options)
		}
		return temperatureChoice(c.tokens, options)
	}

	// The chain is shared, so ranking happens on a copy.
	choices := slices.Clone(c.tokens)
	sort.SliceStable(choices, func(i, j int) bool {
		return choices[i].Freq > choices[j].Freq
	})
	choices = choices[:options.topK]

	if options.temperature == 1.0 {
		var total int
		for _, choice := range choices {
			total += choice.Freq
		}
		randChoice := options.intN(total)
		for _, choice := range choices {
			randChoice -= choice.Freq
			if randChoice < 0 {
				return choice.Id
			}
		}
		return choices[len(choices)-1].Id
	}
	return temperatureChoice(choices, options)
}

// weightedChoice draws uniformly over the sum of all frequencies and finds the
// owning token by binary search over the cumulative weights.
func weightedChoice(c *chain, options *generateOptions) int {
	randChoice := options.intN(c.total)
	i := sort.SearchInts(c.cumulative, randChoice+1)
	return c.tokens[i].Id
}

func temperatureChoice(choices []ChainToken, options *generateOptions) int {
	if options.temperature <= 0 { // Deterministic
		nextToken := choices[0].Id
		maxFreq := -1
		for _, choice := range choices {
			if choice.Freq > maxFreq {
				maxFreq = choice.Freq
				nextToken = choice.Id
			}
		}
		return nextToken
	}

	logProbabilities := make([]float64, len(choices))
	epsilon := math.Inf(-1)
	for i, choice := range choices {
		lp := math.Log(float64(choice.Freq)) / options.temperature
		logProbabilities[i] = lp
		if lp > epsilon {
			epsilon = lp
		}
	}
	var totalWeight float64
	weights := make([]float64, len(choices))
	for i, lp := range logProbabilities {
		w := math.Exp(lp - epsilon)
		weights[i] = w
		totalWeight += w
	}
	randChoice := options.float64() * totalWeight
	for i, choice := range choices {
		randChoice -= weights[i]
		if randChoice < 0 {
			return choice.Id
		}
	}
	return choices[len(choices)-1].Id
}
