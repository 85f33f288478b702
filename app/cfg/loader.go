package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

// Load parses command-line arguments. It returns nil, nil when help was shown.
func Load(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)
	parser.Name = "digest"

	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse arguments: %w", err)
	}

	cfg := &Cfg{Version: GetVersion()}

	switch parser.Active.Name {
	case "run":
		cfg.Command = "run"
		cfg.ConfigPath = raw.Run.Config
		cfg.LogLevel = raw.Run.LogLevel
	case "report":
		cfg.Command = "report"
		cfg.ConfigPath = raw.Report.Config
		cfg.LogLevel = raw.Report.LogLevel
	case "notify":
		cfg.Command = "notify"
		cfg.ConfigPath = raw.Notify.Config
		cfg.LogLevel = raw.Notify.LogLevel
	case "preview":
		cfg.Command = "preview"
		cfg.ConfigPath = raw.Preview.Config
		cfg.LogLevel = raw.Preview.LogLevel
		cfg.Port = raw.Preview.Port
		cfg.AccessKey = raw.Preview.AccessKey
	default:
		return nil, fmt.Errorf("unknown command %q", parser.Active.Name)
	}

	return cfg, nil
}

func (c *Cfg) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
