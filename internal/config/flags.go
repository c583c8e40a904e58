package config

import (
	"flag"
	"strings"
)

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagWorkers    = flag.Int("workers", 0, "Number of batch workers")
	flagMtr        = flag.String("mtr", "", "Comma separated MTR search directories")
	flagLogFile    = flag.String("log-file", "", "Write logs to this file")
	flagDecompiler = flag.String("decompiler", "", "Decompiler command, {in} and {out} are substituted")
)

// ParseFlags parses the global flags that precede the subcommand. Call this
// early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the subcommand and its arguments.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagWorkers > 0 {
		cfg.Batch.Workers = *flagWorkers
	}
	if *flagMtr != "" {
		for _, dir := range strings.Split(*flagMtr, ",") {
			if dir = strings.TrimSpace(dir); dir != "" {
				cfg.Import.MtrPaths = append(cfg.Import.MtrPaths, dir)
			}
		}
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
	if *flagDecompiler != "" {
		cfg.Decompiler.Command = strings.Fields(*flagDecompiler)
	}
}
