package xlog

import (
	"bytes"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, WARN, "ecmgload")

	if err := l.Debug("should be dropped"); err != nil {
		t.Fatalf("Debug: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("DEBUG line written despite WARN threshold: %q", buf.String())
	}

	if err := l.Error("boom"); err != nil {
		t.Fatalf("Error: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("ERROR line was dropped")
	}
}

func TestDiscardIsSilent(t *testing.T) {
	l := Discard()
	if err := l.Critical("anything"); err != nil {
		t.Fatalf("Critical on discard logger: %v", err)
	}
}
