package main

import (
	"os"
	"path/filepath"
	"testing"
)

func Test_LoadConfig_Returns_Defaults_When_File_Missing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.LockTries != 10 {
		t.Fatalf("LockTries=%d, want 10", cfg.LockTries)
	}
	if cfg.Mode != "0644" {
		t.Fatalf("Mode=%q, want %q", cfg.Mode, "0644")
	}
}

func Test_LoadConfig_Parses_HuJSON_With_Comments(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		// lock budget for the lock command
		"lock_tries": 3,
		"history_file": "/tmp/h",
		"mode": "0600", // trailing comma allowed
	}`

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.LockTries != 3 {
		t.Fatalf("LockTries=%d, want 3", cfg.LockTries)
	}
	if cfg.HistoryFile != "/tmp/h" {
		t.Fatalf("HistoryFile=%q, want %q", cfg.HistoryFile, "/tmp/h")
	}

	mode, err := cfg.FileMode()
	if err != nil {
		t.Fatalf("FileMode: %v", err)
	}
	if mode != 0o600 {
		t.Fatalf("FileMode=%o, want 0600", mode)
	}
}

func Test_LoadConfig_Rejects_Non_Positive_Lock_Tries(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"lock_tries": 0}`), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("LoadConfig accepted lock_tries=0")
	}
}

func Test_LoadConfig_Fails_On_Missing_Explicit_Path(t *testing.T) {
	t.Parallel()

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("LoadConfig accepted a missing explicit config path")
	}
}

func Test_Config_FileMode_Rejects_Garbage(t *testing.T) {
	t.Parallel()

	cfg := Config{Mode: "rwxr"}
	if _, err := cfg.FileMode(); err == nil {
		t.Fatal("FileMode accepted a non-octal mode string")
	}
}

func Test_BuildFlags_Defaults_To_Read_Write_Create(t *testing.T) {
	t.Parallel()

	flags := buildFlags(false, false, false, false, false, false)
	if err := flags.Validate(); err != nil {
		t.Fatalf("default flags invalid: %v", err)
	}

	if flags.String() != "opened/created for reading and writing" {
		t.Fatalf("default flags = %s", flags)
	}
}
