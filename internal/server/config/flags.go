package config

import (
	"flag"
	"fmt"
	"io"
	"strings"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   HTTP bind address (e.g., ":8000")
//	-d string   database URL (postgres://... or sqlite:<path>)
//	-s string   JWT HMAC secret
//	-g string   gRPC health bind address; empty disables it
//	-m int      database pool size
//	-l string   log level
//
// Flags this set does not define, -c/-config included, are dropped before
// parsing.
func parseFlags(config *Config, args []string) error {
	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseURL, "d", config.DatabaseURL, "database URL")
	fs.StringVar(&config.JWTSecret, "s", config.JWTSecret, "JWT secret")
	fs.StringVar(&config.GRPCHealthAddr, "g", config.GRPCHealthAddr, "gRPC health address")
	fs.IntVar(&config.DBMaxConns, "m", config.DBMaxConns, "database pool size")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(ownArgs(fs, args)); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	return nil
}

// configFilePath returns the value of -c or -config, the later one winning,
// or "" when neither is given.
func configFilePath(args []string) string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&path, "config", "", "path to config file")
	fs.StringVar(&path, "c", "", "path to config file (short)")
	_ = fs.Parse(ownArgs(fs, args))

	return path
}

// ownArgs keeps the arguments naming flags defined on fs, each with its
// value, in their original order. A separate value is taken only when the
// next argument does not start with "-". Positional arguments are dropped.
func ownArgs(fs *flag.FlagSet, args []string) []string {
	kept := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		name, inline := flagName(args[i])
		f := fs.Lookup(name)
		if name == "" || f == nil {
			continue
		}
		kept = append(kept, args[i])

		if inline || isBool(f) {
			continue
		}
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			i++
			kept = append(kept, args[i])
		}
	}

	return kept
}

// flagName parses "-n", "--n", "-n=v" and "--n=v". inline reports an "=v".
func flagName(arg string) (name string, inline bool) {
	if len(arg) < 2 || arg[0] != '-' || arg == "--" {
		return "", false
	}
	name = strings.TrimPrefix(arg[1:], "-")
	name, _, inline = strings.Cut(name, "=")
	return name, inline
}

func isBool(f *flag.Flag) bool {
	b, ok := f.Value.(interface{ IsBoolFlag() bool })
	return ok && b.IsBoolFlag()
}
