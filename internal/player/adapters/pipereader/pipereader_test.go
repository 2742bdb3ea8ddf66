package pipereader

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestBackoffScheduleThenConstant(t *testing.T) {
	want := []time.Duration{1, 2, 4, 8, 15, 30, 60, 60, 60}
	for i, w := range want {
		if got := Backoff(i); got != w*time.Second {
			t.Errorf("Backoff(%d) = %v, want %v", i, got, w*time.Second)
		}
	}
}

func TestBackoffNegativeClampsToFirst(t *testing.T) {
	if got := Backoff(-1); got != 1*time.Second {
		t.Errorf("Backoff(-1) = %v, want 1s", got)
	}
}

func TestSourceOpensFile(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "pipe")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	f.WriteString("line one\n")
	f.Close()

	rc, err := Source(f.Name())
	if err != nil {
		t.Fatalf("Source: %v", err)
	}
	defer rc.Close()
}

func TestRunReadsLinesAndStopsOnCancel(t *testing.T) {
	path := t.TempDir() + "/events"
	if err := os.WriteFile(path, []byte("one\ntwo\n\nthree\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	var lines []string
	done := make(chan struct{})
	go func() {
		Run(ctx, path, func(line string) {
			lines = append(lines, line)
			if len(lines) == 3 {
				cancel()
			}
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}

	if len(lines) != 3 || lines[0] != "one" || lines[1] != "two" || lines[2] != "three" {
		t.Errorf("lines = %v", lines)
	}
}
