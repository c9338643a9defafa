package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds the application configuration.
type Config struct {
	Detector DetectorConfig `json:"detector"`
	Analyzer AnalyzerConfig `json:"analyzer"`
	Output   OutputConfig   `json:"output"`
}

// DetectorConfig selects and parameterizes the face detection backend.
type DetectorConfig struct {
	Backend     string `json:"backend"` // "mesh" or "ollama"
	ServerURL   string `json:"server_url"`
	Model       string `json:"model"` // vision model name, ollama backend only
	SendFormat  string `json:"send_format"`
	SendMaxDim  int    `json:"send_max_dim"`
	SendQuality int    `json:"send_quality"`
}

// AnalyzerConfig holds configuration for the analysis pipeline.
type AnalyzerConfig struct {
	ModelVersion string `json:"model_version"`
	MinImageSize int    `json:"min_image_size"`
}

// OutputConfig holds configuration for result and overlay output.
type OutputConfig struct {
	OutputDir      string `json:"output_dir"`
	OverlayFormat  string `json:"overlay_format"`
	OverlayQuality int    `json:"overlay_quality"`
}

// Default returns a configuration with default values.
func Default() *Config {
	return &Config{
		Detector: DetectorConfig{
			Backend:     "mesh",
			ServerURL:   "",
			Model:       "openbmb/minicpm-v4.5",
			SendFormat:  "jpg",
			SendMaxDim:  1536,
			SendQuality: 85,
		},
		Analyzer: AnalyzerConfig{
			ModelVersion: "1.0.0",
			MinImageSize: 64,
		},
		Output: OutputConfig{
			OutputDir:      "./out",
			OverlayFormat:  "png",
			OverlayQuality: 92,
		},
	}
}

// LoadFromFile loads configuration from a JSON file.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// SaveToFile saves configuration to a JSON file.
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Detector.Backend {
	case "mesh", "ollama":
	default:
		return fmt.Errorf("detector.backend must be \"mesh\" or \"ollama\"")
	}

	if c.Detector.SendQuality < 1 || c.Detector.SendQuality > 100 {
		return fmt.Errorf("detector.send_quality must be between 1 and 100")
	}

	if c.Detector.SendMaxDim < 0 {
		return fmt.Errorf("detector.send_max_dim must not be negative")
	}

	if c.Analyzer.ModelVersion == "" {
		return fmt.Errorf("analyzer.model_version cannot be empty")
	}

	if c.Analyzer.MinImageSize < 1 {
		return fmt.Errorf("analyzer.min_image_size must be positive")
	}

	if c.Output.OverlayQuality < 1 || c.Output.OverlayQuality > 100 {
		return fmt.Errorf("output.overlay_quality must be between 1 and 100")
	}

	return nil
}

// GetConfigPath returns the default configuration file path.
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "face-analyzer", "config.json")
}
