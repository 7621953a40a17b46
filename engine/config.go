package engine

/*------------------------------------------------------------------
 *
 * Purpose: Engine-wide configuration options.
 *
 * Description: Kept as one flat struct populated either by
 * cmd/sfzplay's pflag-driven flags or by an optional YAML overlay
 * file.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// StealingAlgorithm selects the voice-stealing policy.
type StealingAlgorithm int

const (
	StealFirst StealingAlgorithm = iota
	StealOldest
	StealEnvelopeAndAge
)

func (s StealingAlgorithm) String() string {
	switch s {
	case StealFirst:
		return "first"
	case StealOldest:
		return "oldest"
	case StealEnvelopeAndAge:
		return "envelope_and_age"
	default:
		return "unknown"
	}
}

// ParseStealingAlgorithm maps a config string onto a StealingAlgorithm,
// defaulting to StealEnvelopeAndAge for anything unrecognised.
func ParseStealingAlgorithm(s string) StealingAlgorithm {
	switch s {
	case "first":
		return StealFirst
	case "oldest":
		return StealOldest
	case "envelope_and_age":
		return StealEnvelopeAndAge
	default:
		return StealEnvelopeAndAge
	}
}

// Config aggregates every configuration option the engine exposes.
type Config struct {
	SampleRate     int `yaml:"sample_rate"`
	SamplesPerBlock int `yaml:"samples_per_block"`
	NumVoices      int `yaml:"num_voices"`

	PreloadSize  int `yaml:"preload_size"`
	Oversampling int `yaml:"oversampling"`

	NumEffectBuses int `yaml:"num_effect_buses"`
	FileWorkers    int `yaml:"file_workers"`

	StealingAlgorithm StealingAlgorithm `yaml:"-"`
	StealingAlgorithmName string        `yaml:"stealing_algorithm"`

	Freewheeling bool `yaml:"freewheeling"`

	SampleQualityLive      int `yaml:"sample_quality_live"`
	SampleQualityFreewheel int `yaml:"sample_quality_freewheel"`

	TuningRootKey   int     `yaml:"tuning_root_key"`
	TuningFrequency float64 `yaml:"tuning_frequency"`
	ScalaFile       string  `yaml:"scala_file"`

	LoggingPrefix string `yaml:"logging_prefix"`
}

// DefaultConfig returns the engine's documented defaults.
func DefaultConfig() Config {
	return Config{
		SampleRate:             48000,
		SamplesPerBlock:        1024,
		NumVoices:              64,
		PreloadSize:            8192,
		Oversampling:           1,
		NumEffectBuses:         2,
		FileWorkers:            2,
		StealingAlgorithm:      StealEnvelopeAndAge,
		StealingAlgorithmName:  "envelope_and_age",
		Freewheeling:           false,
		SampleQualityLive:      2,
		SampleQualityFreewheel: 10,
		TuningRootKey:          60,
		TuningFrequency:        440,
	}
}

// Validate enforces each field's valid range. It returns
// ErrConfigurationInvalid wrapped with the offending field: configuration
// errors are fatal at the API boundary, unlike everything on the audio thread.
func (c *Config) Validate() error {
	switch {
	case c.SamplesPerBlock < 1 || c.SamplesPerBlock > 8192:
		return fmt.Errorf("%w: samples_per_block=%d out of [1,8192]", ErrConfigurationInvalid, c.SamplesPerBlock)
	case c.NumVoices < 1 || c.NumVoices > 512:
		return fmt.Errorf("%w: num_voices=%d out of [1,512]", ErrConfigurationInvalid, c.NumVoices)
	case c.SampleRate <= 0:
		return fmt.Errorf("%w: sample_rate=%d must be positive", ErrConfigurationInvalid, c.SampleRate)
	case c.Oversampling != 1 && c.Oversampling != 2 && c.Oversampling != 4 && c.Oversampling != 8:
		return fmt.Errorf("%w: oversampling=%d must be one of 1,2,4,8", ErrConfigurationInvalid, c.Oversampling)
	case c.TuningRootKey < 0 || c.TuningRootKey > 127:
		return fmt.Errorf("%w: tuning_root_key=%d out of [0,127]", ErrConfigurationInvalid, c.TuningRootKey)
	}

	return nil
}

// LoadConfigFile overlays YAML file contents onto a base config, following
// a pattern of reading a file to populate defaults before the engine
// starts.
func LoadConfigFile(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("sfzcore: reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &base); err != nil {
		return base, fmt.Errorf("sfzcore: parsing config file: %w", err)
	}

	if base.StealingAlgorithmName != "" {
		base.StealingAlgorithm = ParseStealingAlgorithm(base.StealingAlgorithmName)
	}

	return base, nil
}
