// Package config carries the generation-time tunables gencrypto needs
// outside any one Platform or Generator: default platform selection, the
// interpreter's instruction-count ceiling, scheduling-hint retention, and
// trace verbosity. It follows the teacher's config.Config shape exactly —
// a struct of nested TOML-tagged sections, a DefaultConfig constructor,
// and a Load/Save pair backed by github.com/BurntSushi/toml — adapted
// from a debugger/emulator's settings to a code generator's.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config holds gencrypto's generation-time configuration.
type Config struct {
	// Generation settings control defaults for code-generation runs.
	Generation struct {
		DefaultPlatform string `toml:"default_platform"` // e.g. "avr-like"
		LimbWidth       int    `toml:"limb_width"`        // 0 means "platform native"
		KeepScheduleHints bool `toml:"keep_schedule_hints"`
	} `toml:"generation"`

	// Interpreter settings bound KAT execution.
	Interpreter struct {
		MaxInstructions uint64 `toml:"max_instructions"`
		StackBytes      int    `toml:"stack_bytes"`
		MemoryBytes     int    `toml:"memory_bytes"`
		TraceOnMismatch bool   `toml:"trace_on_mismatch"`
	} `toml:"interpreter"`

	// Emitter settings control assembly text rendering.
	Emitter struct {
		BytesPerSBoxLine int  `toml:"bytes_per_sbox_line"`
		EmitFrameComment bool `toml:"emit_frame_comment"`
	} `toml:"emitter"`

	// Trace settings bound the KAT driver's bounded trace buffer.
	Trace struct {
		MaxEntries int  `toml:"max_entries"`
		IncludeFlags bool `toml:"include_flags"`
	} `toml:"trace"`
}

// DefaultConfig returns a Config populated with gencrypto's defaults.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Generation.DefaultPlatform = "avr-like"
	cfg.Generation.LimbWidth = 0
	cfg.Generation.KeepScheduleHints = true

	cfg.Interpreter.MaxInstructions = 10_000_000
	cfg.Interpreter.StackBytes = 4096
	cfg.Interpreter.MemoryBytes = 65536
	cfg.Interpreter.TraceOnMismatch = true

	cfg.Emitter.BytesPerSBoxLine = 16
	cfg.Emitter.EmitFrameComment = true

	cfg.Trace.MaxEntries = 10000
	cfg.Trace.IncludeFlags = true

	return cfg
}

// GetConfigPath returns the platform-specific config file path.
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "gencrypto")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "gencrypto")

	default:
		return "config.toml"
	}

	if err := os.MkdirAll(configDir, 0750); err != nil {
		return "config.toml"
	}

	return filepath.Join(configDir, "config.toml")
}

// GetLogPath returns the platform-specific log directory path, used for
// interpreter trace dumps on KAT mismatch.
func GetLogPath() string {
	var logDir string

	switch runtime.GOOS {
	case "windows":
		logDir = os.Getenv("APPDATA")
		if logDir == "" {
			logDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		logDir = filepath.Join(logDir, "gencrypto", "logs")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "logs"
		}
		logDir = filepath.Join(homeDir, ".local", "share", "gencrypto", "logs")

	default:
		return "logs"
	}

	if err := os.MkdirAll(logDir, 0750); err != nil {
		return "logs"
	}

	return logDir
}

// Load loads configuration from the default config file.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from the specified file, returning
// defaults (no error) when the file does not exist.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save saves configuration to the default config file.
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo saves configuration to the specified file, creating parent
// directories as needed.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 -- caller-controlled config path
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close config file: %w", closeErr)
		}
	}()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}
