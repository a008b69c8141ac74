package command

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/memkv-go/internal/infra/buildinfo"
)

// ErrReply is returned when a one-shot command gets an error reply. The
// reply has already been printed.
var ErrReply = errors.New("server replied with an error")

// App creates the CLI application.
func App() *cli.App {
	cli.HelpFlag = &cli.BoolFlag{Name: "help", Usage: "show help"}

	return &cli.App{
		Name:            "memkv-cli",
		Usage:           "command-line client for memkv",
		UsageText:       "memkv-cli [options] [command [arg ...]]",
		Version:         buildinfo.String(),
		Flags:           globalFlags(),
		Action:          run,
		HideHelpCommand: true,
	}
}

// globalFlags returns the CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "config",
			Usage: "CLI config file (default ~/.memkv/cli.yaml)",
		},
		&cli.StringFlag{
			Name:    "host",
			Aliases: []string{"h"},
			Usage:   "server hostname",
		},
		&cli.IntFlag{
			Name:    "port",
			Aliases: []string{"p"},
			Usage:   "server port",
		},
		&cli.IntFlag{
			Name:    "db",
			Aliases: []string{"n"},
			Usage:   "database number",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format: text, raw, json, yaml, table",
		},
		&cli.BoolFlag{
			Name:  "raw",
			Usage: "shorthand for --output raw",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "per-command timeout",
		},
		&cli.BoolFlag{
			Name:  "tls",
			Usage: "connect over TLS",
		},
		&cli.StringFlag{
			Name:  "cacert",
			Usage: "CA certificate file to verify the server",
		},
		&cli.StringFlag{
			Name:  "cert",
			Usage: "client certificate file",
		},
		&cli.StringFlag{
			Name:  "key",
			Usage: "client private key file",
		},
		&cli.StringFlag{
			Name:  "sni",
			Usage: "server name for certificate verification",
		},
		&cli.BoolFlag{
			Name:  "insecure",
			Usage: "skip server certificate verification",
		},
		&cli.BoolFlag{
			Name:  "no-history",
			Usage: "do not read or write the REPL history file",
		},
	}
}

// flagOverrides maps the flags the user actually set onto config keys.
func flagOverrides(c *cli.Context) map[string]any {
	flags := map[string]any{}
	set := func(name, key string, value any) {
		if c.IsSet(name) {
			flags[key] = value
		}
	}
	set("host", "host", c.String("host"))
	set("port", "port", c.Int("port"))
	set("db", "db", c.Int("db"))
	set("output", "output", c.String("output"))
	set("timeout", "timeout", c.Duration("timeout").String())
	set("tls", "tls.enabled", c.Bool("tls"))
	set("cacert", "tls.ca_file", c.String("cacert"))
	set("cert", "tls.cert_file", c.String("cert"))
	set("key", "tls.key_file", c.String("key"))
	set("sni", "tls.server_name", c.String("sni"))
	set("insecure", "tls.insecure", c.Bool("insecure"))
	if c.Bool("raw") {
		flags["output"] = "raw"
	}
	if c.Bool("no-history") {
		flags["history.file"] = ""
	}
	return flags
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}

