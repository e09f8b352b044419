package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/wifivoucher/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-b string   public base URL for voucher links
//	-d string   PostgreSQL DSN
//	-t string   admin token
//	-m string   RouterOS API address (host:port)
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with flags of other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-b", "-d", "-t", "-m"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.BaseURL, "b", config.BaseURL, "public base URL")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.AdminToken, "t", config.AdminToken, "admin token")
	fs.StringVar(&config.RouterOSAddress, "m", config.RouterOSAddress, "RouterOS API address (host:port)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
