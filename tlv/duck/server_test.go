package duck

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"
)

type recordingHandler struct {
	mu       sync.Mutex
	sections []*LogSection
	tables   []*LogTable
}

func (h *recordingHandler) HandleLogSection(m *LogSection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sections = append(h.sections, m)
}

func (h *recordingHandler) HandleLogTable(m *LogTable) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.tables = append(h.tables, m)
}

func TestServerLoggerRoundTrip(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()

	h := &recordingHandler{}
	srv := NewServer(ln, h, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Serve(ctx)

	nc, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer nc.Close()

	logger := NewLogger(nc)
	if err := logger.LogSection(0x100, true, []byte{0x01, 0x02, 0x03}); err != nil {
		t.Fatalf("LogSection: %v", err)
	}
	if err := logger.LogTable(0x200, true, [][]byte{{0xAA}, {0xBB}}); err != nil {
		t.Fatalf("LogTable: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		h.mu.Lock()
		n := len(h.sections) + len(h.tables)
		h.mu.Unlock()
		if n >= 2 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.sections) != 1 {
		t.Fatalf("got %d sections, want 1", len(h.sections))
	}
	if len(h.sections[0].Section) != 3 {
		t.Fatalf("got %d section bytes, want 3", len(h.sections[0].Section))
	}
	if len(h.tables) != 1 || len(h.tables[0].Sections) != 2 {
		t.Fatalf("got tables %+v, want 1 table of 2 sections", h.tables)
	}
}
