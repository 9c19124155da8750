package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAppliesDefaultsAndResolvesUDPPort(t *testing.T) {
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.ServerPort != 42069 {
		t.Errorf("ServerPort = %d, want 42069", cfg.ServerPort)
	}
	if cfg.UDPPort != cfg.ServerPort+1 {
		t.Errorf("UDPPort = %d, want %d", cfg.UDPPort, cfg.ServerPort+1)
	}
	if cfg.WorldSeed != 69420 {
		t.Errorf("WorldSeed = %d, want 69420", cfg.WorldSeed)
	}
	if cfg.LogDir != "." {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, ".")
	}
}

func TestLoadFlagsOverrideDefaults(t *testing.T) {
	cfg, err := Load([]string{"-server-port=9000", "-world-seed=1"})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.ServerPort != 9000 {
		t.Errorf("ServerPort = %d, want 9000", cfg.ServerPort)
	}
	if cfg.WorldSeed != 1 {
		t.Errorf("WorldSeed = %d, want 1", cfg.WorldSeed)
	}
	if cfg.UDPPort != 9001 {
		t.Errorf("UDPPort = %d, want 9001", cfg.UDPPort)
	}
}

// TestLoadHandlesConfigAndOtherFlagsInOneParse is a regression test for a
// config/flag layering bug: -config used to be parsed on a different
// FlagSet than -server-port/-world-seed/etc, so passing them together in
// one argv (as the real binary does) made the first parse reject the
// flags it didn't know about. They must all resolve from a single pass.
func TestLoadHandlesConfigAndOtherFlagsInOneParse(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "voxelterra.yaml")
	if err := os.WriteFile(yamlPath, []byte("server_port: 7000\ntick_rate: 30\n"), 0o644); err != nil {
		t.Fatalf("write yaml fixture: %v", err)
	}

	cfg, err := Load([]string{"-config=" + yamlPath, "-world-seed=5", "-log-dir=" + dir})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.ServerPort != 7000 {
		t.Errorf("ServerPort = %d, want 7000 (from yaml)", cfg.ServerPort)
	}
	if cfg.TickRate != 30 {
		t.Errorf("TickRate = %d, want 30 (from yaml)", cfg.TickRate)
	}
	if cfg.WorldSeed != 5 {
		t.Errorf("WorldSeed = %d, want 5 (from flag)", cfg.WorldSeed)
	}
	if cfg.LogDir != dir {
		t.Errorf("LogDir = %q, want %q (from flag)", cfg.LogDir, dir)
	}
}
