package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/yndnr/memkv-go/internal/cli/output"
	"github.com/yndnr/memkv-go/pkg/resp"
)

// Executor sends one command to the server.
type Executor interface {
	Do(ctx context.Context, args ...string) (resp.Element, error)
}

// REPL represents the Read-Eval-Print Loop.
type REPL struct {
	exec      Executor
	input     io.Reader
	output    io.Writer
	formatter output.Formatter
	completer *Completer
	history   *History
	prompt    func() string
}

// Option configures a REPL.
type Option func(*REPL)

// WithIO sets the input and output streams.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(r *REPL) {
		r.input = in
		r.output = out
	}
}

// WithFormatter sets how replies are printed.
func WithFormatter(f output.Formatter) Option {
	return func(r *REPL) { r.formatter = f }
}

// WithHistory sets the history store.
func WithHistory(h *History) Option {
	return func(r *REPL) { r.history = h }
}

// WithPrompt sets a function evaluated before each line.
func WithPrompt(fn func() string) Option {
	return func(r *REPL) { r.prompt = fn }
}

// New creates a REPL that sends commands to exec.
func New(exec Executor, opts ...Option) *REPL {
	r := &REPL{
		exec:      exec,
		input:     os.Stdin,
		output:    os.Stdout,
		formatter: &output.TextFormatter{},
		completer: NewCompleter(),
		history:   NewHistory("", DefaultHistorySize),
		prompt:    func() string { return "memkv> " },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run reads lines until EOF, exit or ctx is cancelled. History is loaded
// before the first prompt and saved on return.
func (r *REPL) Run(ctx context.Context) error {
	if err := r.history.Load(); err != nil {
		fmt.Fprintf(r.output, "Warning: load history: %v\n", err)
	}
	defer func() {
		if err := r.history.Save(); err != nil {
			fmt.Fprintf(r.output, "Warning: save history: %v\n", err)
		}
	}()

	r.refreshCommands(ctx)

	reader := bufio.NewReader(r.input)
	for {
		fmt.Fprint(r.output, r.prompt())

		line, err := reader.ReadString('\n')
		if err == io.EOF && strings.TrimSpace(line) == "" {
			fmt.Fprintln(r.output)
			return nil
		}
		if err != nil && err != io.EOF {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r.history.Add(line)

		if stop := r.execute(ctx, line); stop {
			return nil
		}
		if err == io.EOF {
			return nil
		}
	}
}

// execute runs one line and reports whether the loop should end.
func (r *REPL) execute(ctx context.Context, line string) bool {
	args, err := SplitArgs(line)
	if err != nil {
		fmt.Fprintln(r.output, "Invalid argument(s)")
		return false
	}
	if len(args) == 0 {
		return false
	}

	switch strings.ToLower(args[0]) {
	case "exit":
		return true
	case "clear":
		fmt.Fprint(r.output, "\x1b[H\x1b[2J")
		return false
	case "help":
		prefix := ""
		if len(args) > 1 {
			prefix = args[1]
		}
		for _, name := range r.completer.Complete(prefix) {
			fmt.Fprintln(r.output, name)
		}
		return false
	}

	reply, err := r.exec.Do(ctx, args...)
	if err != nil {
		fmt.Fprintf(r.output, "Error: %v\n", err)
		return false
	}
	if err := r.formatter.Format(r.output, reply); err != nil {
		fmt.Fprintf(r.output, "Error: %v\n", err)
	}
	return strings.EqualFold(args[0], "quit")
}

// refreshCommands replaces the completion table with the server's own.
func (r *REPL) refreshCommands(ctx context.Context) {
	reply, err := r.exec.Do(ctx, "COMMAND", "LIST")
	if err != nil {
		fmt.Fprintf(r.output, "Error: %v\n", err)
		return
	}
	if reply.Kind != resp.KindArray || reply.Null {
		return
	}
	names := make([]string, 0, len(reply.Elems))
	for _, el := range reply.Elems {
		if el.Kind == resp.KindBulkString && !el.Null {
			names = append(names, string(el.Bulk))
		}
	}
	if len(names) > 0 {
		r.completer.SetCommands(names)
	}
}
