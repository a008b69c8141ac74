package metric

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/yndnr/memkv-go/internal/core/domain"
	"github.com/yndnr/memkv-go/internal/storage/memory"
)

func TestRegistry_ObserveCommand(t *testing.T) {
	r := NewRegistry()

	r.ObserveCommand("GET", time.Millisecond, false)
	r.ObserveCommand("GET", time.Millisecond, false)
	r.ObserveCommand("GET", time.Millisecond, true)

	if got := testutil.ToFloat64(r.CommandsTotal.WithLabelValues("GET", StatusOK)); got != 2 {
		t.Errorf("ok count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.CommandsTotal.WithLabelValues("GET", StatusError)); got != 1 {
		t.Errorf("error count = %v, want 1", got)
	}
}

func TestRegistry_Connections(t *testing.T) {
	r := NewRegistry()

	r.ConnectionOpened()
	r.ConnectionOpened()
	r.ConnectionClosed()
	r.ConnectionRejected()
	r.ProtocolError()

	if got := testutil.ToFloat64(r.ConnectionsActive); got != 1 {
		t.Errorf("active = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.ConnectionsTotal); got != 2 {
		t.Errorf("total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.ConnectionsRejected); got != 1 {
		t.Errorf("rejected = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.ProtocolErrors); got != 1 {
		t.Errorf("protocol errors = %v, want 1", got)
	}
}

func TestRegistry_NilIsNoop(t *testing.T) {
	var r *Registry

	// Should not panic
	r.ConnectionOpened()
	r.ConnectionClosed()
	r.ConnectionRejected()
	r.ProtocolError()
	r.ObserveCommand("PING", time.Microsecond, false)
	r.MustRegister()
}

func TestRegistry_Handler(t *testing.T) {
	r := NewRegistry()
	ks := memory.New(2)
	db, _ := ks.DB(1)
	db.Set("k", domain.NewString([]byte("v")))
	r.MustRegister(NewKeyspaceCollector(ks))
	r.ObserveCommand("SET", time.Millisecond, false)

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	text := string(body)

	for _, want := range []string{
		`memkv_commands_total{command="SET",status="ok"} 1`,
		`memkv_keyspace_keys{db="1"} 1`,
		`go_goroutines`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestKeyspaceCollector(t *testing.T) {
	ks := memory.New(4)
	db0, _ := ks.DB(0)
	db3, _ := ks.DB(3)
	db0.Set("a", domain.NewString(nil))
	db3.Set("a", domain.NewString(nil))
	db3.Set("b", domain.NewString(nil))

	c := NewKeyspaceCollector(ks)
	if n := testutil.CollectAndCount(c); n != 2 {
		t.Errorf("CollectAndCount() = %d, want 2", n)
	}
}
