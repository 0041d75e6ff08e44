package config

import (
	"flag"
	"os"
	"time"

	"github.com/mkaraca/dukkan/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the document store (default from Config)
//	-f string   local database file path (default from Config)
//	-i int      online check interval in seconds (default from Config)
//	-n string   device name (default: hostname)
//	-l string   tenant login
//	-p string   tenant password
//
// The function filters os.Args to only the flags it knows about, using
// flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-f", "-i", "-n", "-l", "-p"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "base URL of the document store")
	fs.StringVar(&cfg.DatabasePath, "f", cfg.DatabasePath, "local database file path")
	fs.StringVar(&cfg.DeviceName, "n", cfg.DeviceName, "device name")
	fs.StringVar(&cfg.Login, "l", cfg.Login, "tenant login")
	fs.StringVar(&cfg.Password, "p", cfg.Password, "tenant password")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
}

func defaultDeviceName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "unknown-device"
	}
	return host
}
