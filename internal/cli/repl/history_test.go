package repl

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestNewHistory(t *testing.T) {
	h := NewHistory("", 0)
	if h.limit != DefaultHistorySize {
		t.Errorf("limit = %d, want %d", h.limit, DefaultHistorySize)
	}
	if len(h.Entries()) != 0 {
		t.Errorf("Entries() = %q, want empty", h.Entries())
	}
}

func TestHistory_Add(t *testing.T) {
	h := NewHistory("", 10)

	h.Add("cmd1")
	h.Add("  ")
	h.Add("cmd2")
	h.Add("cmd2")
	h.Add("cmd1")

	if got, want := h.Entries(), []string{"cmd1", "cmd2", "cmd1"}; !slices.Equal(got, want) {
		t.Errorf("Entries() = %q, want %q", got, want)
	}
}

func TestHistory_Add_Limit(t *testing.T) {
	h := NewHistory("", 3)
	for _, line := range []string{"cmd1", "cmd2", "cmd3", "cmd4"} {
		h.Add(line)
	}
	if got, want := h.Entries(), []string{"cmd2", "cmd3", "cmd4"}; !slices.Equal(got, want) {
		t.Errorf("Entries() = %q, want %q", got, want)
	}
}

func TestHistory_SkipsSecrets(t *testing.T) {
	tests := []struct {
		line string
		kept bool
	}{
		{"AUTH hunter2", false},
		{"auth default hunter2", false},
		{"HELLO 3 AUTH default hunter2", false},
		{"CONFIG SET requirepass hunter2", false},
		{"config set maxclients 10 masterauth pw", false},
		{"MIGRATE host 6379 k 0 1000 AUTH pw", false},
		{"ACL SETUSER alice on >pw", false},
		{"HELLO 3", true},
		{"CONFIG GET requirepass", true},
		{"SET auth 1", true},
		{`SET "unterminated`, true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			h := NewHistory("", 10)
			h.Add(tt.line)
			if kept := len(h.Entries()) == 1; kept != tt.kept {
				t.Errorf("kept = %v, want %v", kept, tt.kept)
			}
		})
	}
}

func TestHistory_SaveLoad(t *testing.T) {
	file := filepath.Join(t.TempDir(), "nested", "history")

	h := NewHistory(file, 10)
	h.Add("SET a 1")
	h.Add("GET a")
	if err := h.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(file)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("mode = %o, want 600", perm)
	}
	leftovers, _ := filepath.Glob(file + ".*")
	if len(leftovers) != 0 {
		t.Errorf("temporary files left behind: %v", leftovers)
	}

	loaded := NewHistory(file, 10)
	if err := loaded.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got, want := loaded.Entries(), []string{"SET a 1", "GET a"}; !slices.Equal(got, want) {
		t.Errorf("loaded = %q, want %q", got, want)
	}
}

func TestHistory_Load_TrimsToLimit(t *testing.T) {
	file := filepath.Join(t.TempDir(), "history")
	if err := os.WriteFile(file, []byte("a\nb\nAUTH pw\nc\nd\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	h := NewHistory(file, 2)
	if err := h.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got, want := h.Entries(), []string{"c", "d"}; !slices.Equal(got, want) {
		t.Errorf("Entries() = %q, want %q", got, want)
	}
}

func TestHistory_NoFile(t *testing.T) {
	missing := NewHistory(filepath.Join(t.TempDir(), "missing"), 10)
	if err := missing.Load(); err != nil {
		t.Errorf("Load() of missing file = %v", err)
	}

	mem := NewHistory("", 10)
	mem.Add("x")
	if err := mem.Save(); err != nil {
		t.Errorf("Save() without file = %v", err)
	}
	if err := mem.Load(); err != nil {
		t.Errorf("Load() without file = %v", err)
	}
}
