package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Generation.DefaultPlatform != "avr-like" {
		t.Errorf("Expected DefaultPlatform=avr-like, got %s", cfg.Generation.DefaultPlatform)
	}
	if !cfg.Generation.KeepScheduleHints {
		t.Error("Expected KeepScheduleHints=true")
	}

	if cfg.Interpreter.MaxInstructions != 10_000_000 {
		t.Errorf("Expected MaxInstructions=10000000, got %d", cfg.Interpreter.MaxInstructions)
	}
	if cfg.Interpreter.StackBytes != 4096 {
		t.Errorf("Expected StackBytes=4096, got %d", cfg.Interpreter.StackBytes)
	}
	if !cfg.Interpreter.TraceOnMismatch {
		t.Error("Expected TraceOnMismatch=true")
	}

	if cfg.Emitter.BytesPerSBoxLine != 16 {
		t.Errorf("Expected BytesPerSBoxLine=16, got %d", cfg.Emitter.BytesPerSBoxLine)
	}

	if cfg.Trace.MaxEntries != 10000 {
		t.Errorf("Expected MaxEntries=10000, got %d", cfg.Trace.MaxEntries)
	}
}

func TestGetConfigPath(t *testing.T) {
	path := GetConfigPath()

	if path == "" {
		t.Error("GetConfigPath returned empty string")
	}
	if filepath.Base(path) != "config.toml" {
		t.Errorf("Expected path to end with config.toml, got %s", path)
	}

	switch runtime.GOOS {
	case "windows":
		if !filepath.IsAbs(path) && path != "config.toml" {
			t.Errorf("Expected absolute path on Windows, got %s", path)
		}
	case "darwin", "linux":
		dir := filepath.Dir(path)
		if filepath.Base(dir) != "gencrypto" && path != "config.toml" {
			t.Errorf("Expected path in gencrypto directory or fallback, got %s", path)
		}
	}
}

func TestGetLogPath(t *testing.T) {
	path := GetLogPath()

	if path == "" {
		t.Error("GetLogPath returned empty string")
	}

	switch runtime.GOOS {
	case "windows":
		if !filepath.IsAbs(path) && path != "logs" {
			t.Errorf("Expected absolute path on Windows, got %s", path)
		}
	case "darwin", "linux":
		if filepath.Base(path) != "logs" {
			t.Errorf("Expected path to end with logs, got %s", path)
		}
	}
}

func TestSaveAndLoad(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "test_config.toml")

	cfg := DefaultConfig()
	cfg.Interpreter.MaxInstructions = 5_000_000
	cfg.Interpreter.TraceOnMismatch = false
	cfg.Generation.DefaultPlatform = "arm32-three-address"
	cfg.Generation.LimbWidth = 32
	cfg.Trace.MaxEntries = 500

	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("Config file was not created")
	}

	loaded, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if loaded.Interpreter.MaxInstructions != 5_000_000 {
		t.Errorf("Expected MaxInstructions=5000000, got %d", loaded.Interpreter.MaxInstructions)
	}
	if loaded.Interpreter.TraceOnMismatch {
		t.Error("Expected TraceOnMismatch=false")
	}
	if loaded.Generation.DefaultPlatform != "arm32-three-address" {
		t.Errorf("Expected DefaultPlatform=arm32-three-address, got %s", loaded.Generation.DefaultPlatform)
	}
	if loaded.Trace.MaxEntries != 500 {
		t.Errorf("Expected MaxEntries=500, got %d", loaded.Trace.MaxEntries)
	}
}

func TestLoadNonExistent(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "nonexistent.toml")

	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("LoadFrom should not error on non-existent file: %v", err)
	}

	if cfg.Interpreter.MaxInstructions != 10_000_000 {
		t.Error("Expected default config when file doesn't exist")
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "invalid.toml")

	invalidTOML := `
[interpreter]
max_instructions = "not a number"
`
	if err := os.WriteFile(configPath, []byte(invalidTOML), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	_, err := LoadFrom(configPath)
	if err == nil {
		t.Error("Expected error when loading invalid TOML")
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	tempDir := t.TempDir()

	configPath := filepath.Join(tempDir, "subdir1", "subdir2", "config.toml")

	cfg := DefaultConfig()
	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("Config file was not created")
	}

	dir := filepath.Dir(configPath)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Error("Parent directories were not created")
	}
}
