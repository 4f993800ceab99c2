package diag

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hordesim/simcore/internal/config"
	"github.com/hordesim/simcore/internal/sim"
	"github.com/hordesim/simcore/internal/world"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := NewServer(config.DiagConfig{Interval: 10 * time.Millisecond}, zap.NewNop())
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func sample(tick uint64) sim.Diagnostics {
	d := sim.Diagnostics{
		Tick:  tick,
		State: "running",
		Tier:  "normal",
		Live:  3,
		Cap:   600,
		Grid:  world.GridStats{Cells: 2, Entries: 3, MaxBucket: 2, Buckets: 2},
	}
	d.Counts[world.KindPlayer] = 1
	d.Counts[world.KindEnemy] = 2
	d.Pools[world.KindProjectile] = world.PoolStats{Free: 64, Max: 512}
	return d
}

func TestCountersBeforeFirstSnapshot(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/debug/counters")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestCountersServesMsgpack(t *testing.T) {
	s, ts := newTestServer(t)
	s.Publish(sample(42))

	resp, err := http.Get(ts.URL + "/debug/counters")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "application/msgpack" {
		t.Errorf("content type = %q", ct)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	var got Snapshot
	if err := msgpack.Unmarshal(body, &got); err != nil {
		t.Fatal(err)
	}
	if got.Tick != 42 || got.Counts["enemy"] != 2 || got.Pools["projectile"].Free != 64 || got.Grid.MaxBucket != 2 {
		t.Errorf("decoded %+v", got)
	}
	if _, ok := got.Counts["invalid"]; ok || len(got.Counts) != int(world.KindCount)-1 || len(got.Pools) != 2 {
		t.Errorf("counts %v pools %v", got.Counts, got.Pools)
	}
}

func TestCountersRejectsPost(t *testing.T) {
	s, ts := newTestServer(t)
	s.Publish(sample(1))
	resp, err := http.Post(ts.URL+"/debug/counters", "text/plain", strings.NewReader("x"))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestStreamPushesSnapshots(t *testing.T) {
	s, ts := newTestServer(t)
	s.Publish(sample(7))

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/debug/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	read := func() Snapshot {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		typ, raw, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if typ != websocket.BinaryMessage {
			t.Fatalf("message type %d", typ)
		}
		var d Snapshot
		if err := msgpack.Unmarshal(raw, &d); err != nil {
			t.Fatal(err)
		}
		return d
	}

	if d := read(); d.Tick != 7 {
		t.Errorf("first tick = %d", d.Tick)
	}
	s.Publish(sample(8))
	if d := read(); d.Tick != 8 {
		t.Errorf("second tick = %d", d.Tick)
	}
	if s.Clients() != 1 {
		t.Errorf("clients = %d", s.Clients())
	}
}

func TestPublishDoesNotAllocate(t *testing.T) {
	s := NewServer(config.DiagConfig{}, zap.NewNop())
	d := sample(1)
	allocs := testing.AllocsPerRun(100, func() {
		d.Tick++
		s.Publish(d)
	})
	if allocs != 0 {
		t.Errorf("Publish allocated %v times per call", allocs)
	}
	if got, ok := s.Latest(); !ok || got.Tick != d.Tick {
		t.Errorf("latest = %d, %v", got.Tick, ok)
	}
}
