package command

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"

	"github.com/yndnr/memkv-go/internal/cli/config"
	"github.com/yndnr/memkv-go/internal/cli/connection"
	"github.com/yndnr/memkv-go/internal/cli/output"
	"github.com/yndnr/memkv-go/internal/cli/repl"
	"github.com/yndnr/memkv-go/internal/infra/tlsroots"
)

func run(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"), flagOverrides(c))
	if err != nil {
		return err
	}

	tlsCfg, err := clientTLS(cfg)
	if err != nil {
		return err
	}

	mgr := connection.NewManager(connection.Options{
		Addr:    cfg.Addr(),
		DB:      cfg.DB,
		TLS:     tlsCfg,
		Timeout: cfg.Timeout,
	})
	defer mgr.Close()

	tty := isTerminal(c.App.Writer)
	format, err := output.ParseFormat(cfg.Output)
	if err != nil {
		return err
	}
	// Piped one-shot output defaults to raw values.
	if c.Args().Present() && !tty && !outputChosen(c) && format == output.FormatText {
		format = output.FormatRaw
	}
	formatter := output.NewFormatter(format, tty)

	if c.Args().Present() {
		return runOnce(c.Context, mgr, formatter, c.App.Writer, c.Args().Slice())
	}

	r := repl.New(mgr,
		repl.WithIO(c.App.Reader, c.App.Writer),
		repl.WithFormatter(formatter),
		repl.WithHistory(repl.NewHistory(cfg.History.File, cfg.History.Size)),
		repl.WithPrompt(prompt(mgr)),
	)
	return r.Run(c.Context)
}

// runOnce sends args as one command and prints the reply.
func runOnce(ctx context.Context, exec repl.Executor, f output.Formatter, w io.Writer, args []string) error {
	reply, err := exec.Do(ctx, args...)
	if err != nil {
		return err
	}
	if err := f.Format(w, reply); err != nil {
		return err
	}
	if reply.IsError() {
		return ErrReply
	}
	return nil
}

// prompt renders "host:port> " or "host:port[db]> ".
func prompt(mgr *connection.Manager) func() string {
	return func() string {
		p := mgr.Addr()
		if db := mgr.DB(); db != 0 {
			p += "[" + strconv.Itoa(db) + "]"
		}
		return p + "> "
	}
}

func clientTLS(cfg *config.CLIConfig) (*tls.Config, error) {
	if !cfg.TLS.Enabled {
		return nil, nil
	}
	tlsCfg, err := tlsroots.ClientConfig(tlsroots.ClientOptions{
		ServerName: cfg.TLS.ServerName,
		CAFile:     cfg.TLS.CAFile,
		CertFile:   cfg.TLS.CertFile,
		KeyFile:    cfg.TLS.KeyFile,
		Insecure:   cfg.TLS.Insecure,
	})
	if err != nil {
		return nil, fmt.Errorf("tls: %w", err)
	}
	return tlsCfg, nil
}

func outputChosen(c *cli.Context) bool {
	return c.IsSet("output") || c.Bool("raw")
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
