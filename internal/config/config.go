// Package config loads the process-wide constants of §6 from an optional
// YAML file, then lets command-line flags override them: a typed struct
// with defaults pre-populated, gopkg.in/yaml.v3 Unmarshal on top, flags
// applied last. Every flag this package defines -- including -config and
// -log-dir -- lives on one FlagSet parsed in a single pass, so the binary
// never runs a second, stricter parse over the same argv that would reject
// these flags as undefined.
package config

import (
	"flag"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds every knob in §6's configuration table, plus LogDir for the
// startup-dated log file (§6 "Log file").
type Config struct {
	ServerPort       int    `yaml:"server_port"`
	UDPPort          int    `yaml:"udp_port"`
	WorldSeed        int64  `yaml:"world_seed"`
	ChunkSizeXZ      int    `yaml:"chunk_size"`
	ChunkSizeY       int    `yaml:"chunk_size_y"`
	TickRate         int    `yaml:"tick_rate"`
	MaxCachedMeshes  int    `yaml:"max_cached_meshes"`
	MaxCachedColumns int    `yaml:"max_cached_columns"`
	LogDir           string `yaml:"log_dir"`
}

// Defaults returns the §6 default configuration. UDPPort is resolved to
// ServerPort+1 when not explicitly set, matching §6's "UDP_PORT ... default
// SERVER_PORT+1".
func Defaults() Config {
	return Config{
		ServerPort:       42069,
		UDPPort:          0, // resolved in Load if left zero
		WorldSeed:        69420,
		ChunkSizeXZ:      32,
		ChunkSizeY:       96,
		TickRate:         60,
		MaxCachedMeshes:  20000,
		MaxCachedColumns: 20000,
		LogDir:           ".",
	}
}

// Load builds a Config by layering, lowest precedence first: built-in
// defaults, an optional YAML file named by -config (skipped if unreadable),
// then explicitly-passed flags. args is typically os.Args[1:]. All flags are
// registered and parsed together on one FlagSet, so -config is resolved in
// the same pass as -server-port/-world-seed/etc. rather than a separate
// parse that would need to tolerate flags it doesn't know about.
func Load(args []string) (Config, error) {
	cfg := Defaults()

	fs := flag.NewFlagSet("voxelterra", flag.ContinueOnError)
	configFile := fs.String("config", "", "Optional YAML config file (overridden by flags)")
	logDir := fs.String("log-dir", cfg.LogDir, "Directory for the startup-dated log file")
	serverPort := fs.Int("server-port", cfg.ServerPort, "TCP bind port")
	udpPort := fs.Int("udp-port", cfg.UDPPort, "Datagram bind port (0 = server-port+1)")
	worldSeed := fs.Int64("world-seed", cfg.WorldSeed, "Deterministic world seed")
	tickRate := fs.Int("tick-rate", cfg.TickRate, "Tick loop cadence in Hz")
	maxCachedMeshes := fs.Int("max-cached-meshes", cfg.MaxCachedMeshes, "Mesh cache capacity")
	maxCachedColumns := fs.Int("max-cached-columns", cfg.MaxCachedColumns, "Column cache capacity")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	if *configFile != "" {
		data, err := os.ReadFile(*configFile)
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, err
			}
		}
	}

	// Only flags the caller actually passed override the YAML layer;
	// untouched flags still default to whatever was registered above
	// (the pre-YAML built-in default), so re-applying them here would
	// silently clobber a YAML value with that stale default.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "log-dir":
			cfg.LogDir = *logDir
		case "server-port":
			cfg.ServerPort = *serverPort
		case "udp-port":
			cfg.UDPPort = *udpPort
		case "world-seed":
			cfg.WorldSeed = *worldSeed
		case "tick-rate":
			cfg.TickRate = *tickRate
		case "max-cached-meshes":
			cfg.MaxCachedMeshes = *maxCachedMeshes
		case "max-cached-columns":
			cfg.MaxCachedColumns = *maxCachedColumns
		}
	})

	if cfg.UDPPort == 0 {
		cfg.UDPPort = cfg.ServerPort + 1
	}
	return cfg, nil
}
