package compliment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/CTAG07/Flattery/pkg/markov"
)

// DefaultMaxCount is the largest batch Generate accepts by default.
const DefaultMaxCount = 100

var (
	// ErrNoModel is returned when no model has been loaded yet.
	ErrNoModel = errors.New("compliment: no model loaded")
	// ErrInvalidCount is returned for a batch size outside 1..max.
	ErrInvalidCount = errors.New("compliment: invalid count")
)

// Source produces the sentences a model is trained on.
type Source func(ctx context.Context) ([]string, error)

// Service holds the current model and generates compliments from it.
// All methods are safe for concurrent use.
type Service struct {
	current   atomic.Pointer[markov.Model]
	maxCount  int
	buildOpts []markov.BuildOption
	logger    *slog.Logger
	writeMu   sync.Mutex
}

// Option is a function that configures a Service.
type Option func(*Service)

// WithMaxCount sets the largest batch size Generate accepts.
// Default: 100
func WithMaxCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxCount = n
		}
	}
}

// WithBuildOptions sets the options used when Reload builds a model.
func WithBuildOptions(opts ...markov.BuildOption) Option {
	return func(s *Service) {
		s.buildOpts = opts
	}
}

// WithLogger sets the logger for the Service. By default, all logs are discarded.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates a Service. m may be nil, in which case Generate returns
// ErrNoModel until a model is loaded.
func NewService(m *markov.Model, opts ...Option) *Service {
	s := &Service{
		maxCount: DefaultMaxCount,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if m != nil {
		s.current.Store(m)
	}
	return s
}

// Model returns the current model, or nil if none is loaded.
func (s *Service) Model() *markov.Model {
	return s.current.Load()
}

// Swap installs m as the current model and returns the previous one.
func (s *Service) Swap(m *markov.Model) *markov.Model {
	old := s.current.Swap(m)
	if m != nil {
		stats := m.Stats()
		s.logger.Info("Model swapped",
			slog.Int("sentences", stats.Sentences),
			slog.Int("vocabulary", stats.VocabSize),
			slog.Int("chains", stats.TotalChains),
		)
	}
	return old
}

// MaxCount returns the largest batch size Generate accepts.
func (s *Service) MaxCount() int {
	return s.maxCount
}

// Generate produces count decorated compliments from the current model. All
// compliments in a batch come from the same model even if a reload happens
// meanwhile. Options that carry a *rand.Rand must not be shared between
// concurrent calls.
func (s *Service) Generate(count int, opts ...markov.GenerateOption) ([]Compliment, error) {
	if count < 1 || count > s.maxCount {
		return nil, fmt.Errorf("%w: %d (must be between 1 and %d)", ErrInvalidCount, count, s.maxCount)
	}
	m := s.current.Load()
	if m == nil {
		return nil, ErrNoModel
	}

	raw := make([]string, 0, count)
	for range count {
		sentence, err := m.Generate(opts...)
		if err != nil {
			return nil, err
		}
		raw = append(raw, sentence)
	}
	return New(raw), nil
}

// Replace computes a new model from the current one (nil if none is loaded)
// and installs it. Replacements and reloads run one at a time, so fn always
// sees the latest model. If fn fails the current model is kept.
func (s *Service) Replace(fn func(current *markov.Model) (*markov.Model, error)) (*markov.Model, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	m, err := fn(s.current.Load())
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrNoModel
	}
	s.Swap(m)
	return m, nil
}

// Reload builds a new model from source and installs it. If the source fails
// the current model is kept and the error is returned. Concurrent reloads are
// serialized.
func (s *Service) Reload(ctx context.Context, source Source) (*markov.Model, error) {
	return s.Replace(func(*markov.Model) (*markov.Model, error) {
		sentences, err := source(ctx)
		if err != nil {
			s.logger.Error("Reload failed, keeping current model", "error", err)
			return nil, fmt.Errorf("failed to load corpus: %w", err)
		}
		if err = ctx.Err(); err != nil {
			return nil, err
		}

		opts := append([]markov.BuildOption{markov.WithBuildLogger(s.logger)}, s.buildOpts...)
		return markov.Build(sentences, opts...), nil
	})
}

// Sentences returns a Source that yields a fixed set of sentences.
func Sentences(sentences []string) Source {
	return func(context.Context) ([]string, error) {
		return sentences, nil
	}
}
