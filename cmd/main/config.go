package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/CTAG07/Flattery/pkg/compliment"
	"github.com/CTAG07/Flattery/pkg/corpus"
	"github.com/CTAG07/Flattery/pkg/markov"
	"github.com/natefinch/atomic"
)

// ServerConfig holds the configuration for the HTTP server and its storage.
type ServerConfig struct {
	ApiAddr      string `json:"api_addr"`
	LogLevel     string `json:"log_level"`
	DataDir      string `json:"data_dir"`
	DatabasePath string `json:"database_path"`
}

// CorpusConfig describes where the model is trained from on startup.
type CorpusConfig struct {
	// DefaultPath is a corpus file or a directory of .txt/.csv files. Empty
	// starts the server without a model.
	DefaultPath    string `json:"default_path"`
	Column         string `json:"column"`
	Preprocess     bool   `json:"preprocess"`
	EndTransitions bool   `json:"end_transitions"`
}

// GenerateConfig holds the default generation parameters.
type GenerateConfig struct {
	MaxLength      int     `json:"max_length"`
	ExtendAttempts int     `json:"extend_attempts"`
	MaxCount       int     `json:"max_count"`
	Temperature    float64 `json:"temperature"`
	TopK           int     `json:"top_k"`
	// Upper bounds for the per-request max_length and extend_attempts
	// overrides.
	MaxLengthLimit      int `json:"max_length_limit"`
	ExtendAttemptsLimit int `json:"extend_attempts_limit"`
}

// OutputConfig controls how compliments are rendered and saved.
type OutputConfig struct {
	LineTemplate string `json:"line_template"`
	SavePath     string `json:"save_path"`
}

// Config is the top-level configuration struct that aggregates all other configs.
type Config struct {
	Server   *ServerConfig   `json:"server_config"`
	Corpus   *CorpusConfig   `json:"corpus_config"`
	Generate *GenerateConfig `json:"generate_config"`
	Output   *OutputConfig   `json:"output_config"`
}

// DefaultServerConfig creates a server configuration with default values.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		ApiAddr:      ":7280",
		LogLevel:     "info",
		DataDir:      "./data",
		DatabasePath: "./data/flattery.db",
	}
}

// DefaultCorpusConfig trains from ./data/corpus with the original column name.
func DefaultCorpusConfig() *CorpusConfig {
	return &CorpusConfig{
		DefaultPath: "./data/corpus",
		Column:      corpus.DefaultColumn,
	}
}

func DefaultGenerateConfig() *GenerateConfig {
	return &GenerateConfig{
		MaxLength:      markov.DefaultMaxLength,
		ExtendAttempts: markov.DefaultExtendAttempts,
		MaxCount:       compliment.DefaultMaxCount,
		Temperature:    1.0,
		TopK:           0,

		MaxLengthLimit:      200,
		ExtendAttemptsLimit: 50,
	}
}

func DefaultOutputConfig() *OutputConfig {
	return &OutputConfig{
		LineTemplate: compliment.DefaultLineTemplate,
		SavePath:     "./data/generated_compliments.txt",
	}
}

// DefaultConfig returns a Config with every section filled with defaults.
func DefaultConfig() *Config {
	return &Config{
		Server:   DefaultServerConfig(),
		Corpus:   DefaultCorpusConfig(),
		Generate: DefaultGenerateConfig(),
		Output:   DefaultOutputConfig(),
	}
}

// Validate reports the first setting that would make generation fail.
func (c *Config) Validate() error {
	if c.Server == nil || c.Corpus == nil || c.Generate == nil || c.Output == nil {
		return errors.New("every config section must be present")
	}
	if c.Generate.MaxLength <= 0 {
		return fmt.Errorf("generate_config.max_length: %w", markov.ErrInvalidMaxLength)
	}
	if c.Generate.ExtendAttempts < 0 {
		return fmt.Errorf("generate_config.extend_attempts: %w", markov.ErrInvalidExtension)
	}
	if c.Generate.MaxCount <= 0 {
		return errors.New("generate_config.max_count must be positive")
	}
	if c.Generate.MaxLengthLimit < c.Generate.MaxLength {
		return fmt.Errorf("generate_config.max_length_limit must be at least max_length (%d)", c.Generate.MaxLength)
	}
	if c.Generate.ExtendAttemptsLimit < c.Generate.ExtendAttempts {
		return fmt.Errorf("generate_config.extend_attempts_limit must be at least extend_attempts (%d)", c.Generate.ExtendAttempts)
	}
	if c.Generate.TopK < 0 {
		return errors.New("generate_config.top_k must not be negative")
	}
	if _, err := compliment.NewFormatter(c.Output.LineTemplate); err != nil {
		return fmt.Errorf("output_config.line_template: %w", err)
	}
	return nil
}

func (c *Config) clone() Config {
	server, corpusCfg, generate, output := *c.Server, *c.Corpus, *c.Generate, *c.Output
	return Config{Server: &server, Corpus: &corpusCfg, Generate: &generate, Output: &output}
}

// GenerateOptions converts the generation defaults into markov options.
func (g *GenerateConfig) GenerateOptions() []markov.GenerateOption {
	return []markov.GenerateOption{
		markov.WithMaxLength(g.MaxLength),
		markov.WithExtendAttempts(g.ExtendAttempts),
		markov.WithTemperature(g.Temperature),
		markov.WithTopK(g.TopK),
	}
}

// LoadConfig reads the configuration from a JSON file at the given path.
// If the file doesn't exist, it creates one with default values.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	file, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			var data []byte
			data, err = json.MarshalIndent(config, "", "  ")
			if err != nil {
				return nil, fmt.Errorf("failed to marshal default config: %w", err)
			}
			if err = atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
				// The server can still run with defaults.
				fmt.Printf("warning: failed to write default config file: %v\n", err)
			}
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Sections missing from the file keep their defaults.
	if err = json.Unmarshal(file, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err = config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}

	return config, nil
}

// ConfigManager handles thread-safe access to the configuration and persists
// updates.
type ConfigManager struct {
	config     *Config
	mu         sync.RWMutex
	configPath string
	logger     *slog.Logger
}

// NewConfigManager wraps an already loaded config that is saved back to path.
func NewConfigManager(config *Config, path string, logger *slog.Logger) *ConfigManager {
	return &ConfigManager{
		config:     config,
		configPath: path,
		logger:     logger,
	}
}

// Get returns a deep copy of the current configuration.
func (cm *ConfigManager) Get() Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config.clone()
}

// Generate returns a copy of the generation settings.
func (cm *ConfigManager) Generate() GenerateConfig {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return *cm.config.Generate
}

// Output returns a copy of the output settings.
func (cm *ConfigManager) Output() OutputConfig {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return *cm.config.Output
}

// Update validates the configuration, saves it to disk and makes it current.
// An invalid config is rejected and the current one is kept.
func (cm *ConfigManager) Update(newConfig Config) error {
	if err := newConfig.Validate(); err != nil {
		return err
	}

	cm.mu.Lock()
	defer cm.mu.Unlock()

	data, err := json.MarshalIndent(&newConfig, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err = atomic.WriteFile(cm.configPath, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	*cm.config = newConfig.clone()
	cm.logger.Info("Configuration updated", "path", cm.configPath)
	return nil
}
