package repl

import (
	"bufio"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// DefaultHistorySize is used when NewHistory gets a non-positive size.
const DefaultHistorySize = 1000

// History is the REPL's line history, oldest entry first. Lines that
// carry credentials are never recorded, matching redis-cli.
type History struct {
	lines []string
	limit int
	path  string
}

// NewHistory returns a History persisted at path. An empty path keeps the
// history in memory.
func NewHistory(path string, limit int) *History {
	if limit <= 0 {
		limit = DefaultHistorySize
	}
	return &History{limit: limit, path: path}
}

// Add records line unless it is blank, repeats the previous line or
// carries a credential.
func (h *History) Add(line string) {
	line = strings.TrimSpace(line)
	if line == "" || secretLine(line) {
		return
	}
	if n := len(h.lines); n > 0 && h.lines[n-1] == line {
		return
	}
	h.lines = append(h.lines, line)
	if over := len(h.lines) - h.limit; over > 0 {
		h.lines = slices.Delete(h.lines, 0, over)
	}
}

// Entries returns a copy of the history, oldest first.
func (h *History) Entries() []string {
	return slices.Clone(h.lines)
}

// secretLine reports whether line sends a password: AUTH, HELLO with an
// AUTH clause, CONFIG SET of requirepass or masterauth, MIGRATE with AUTH
// or AUTH2, and ACL SETUSER.
func secretLine(line string) bool {
	args, err := SplitArgs(line)
	if err != nil || len(args) == 0 {
		return false
	}
	upper := func(i int) string {
		if i < len(args) {
			return strings.ToUpper(args[i])
		}
		return ""
	}
	switch upper(0) {
	case "AUTH":
		return true
	case "HELLO", "MIGRATE":
		for i := 1; i < len(args); i++ {
			if a := upper(i); a == "AUTH" || a == "AUTH2" {
				return true
			}
		}
	case "CONFIG":
		if upper(1) == "SET" {
			for i := 2; i < len(args); i += 2 {
				if a := upper(i); a == "REQUIREPASS" || a == "MASTERAUTH" {
					return true
				}
			}
		}
	case "ACL":
		return upper(1) == "SETUSER"
	}
	return false
}

// Load appends the lines stored at the history path. A missing file is
// not an error.
func (h *History) Load() error {
	if h.path == "" {
		return nil
	}
	f, err := os.Open(h.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		h.Add(sc.Text())
	}
	return sc.Err()
}

// Save replaces the history file, readable by the owner only. The new
// content is written to a sibling file first so a crash never leaves a
// truncated history.
func (h *History) Save() error {
	if h.path == "" {
		return nil
	}
	dir := filepath.Dir(h.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(h.path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	for _, line := range h.lines {
		w.WriteString(line)
		w.WriteByte('\n')
	}
	if err := errors.Join(w.Flush(), tmp.Chmod(0o600), tmp.Close()); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), h.path)
}
