package endpoint

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewRotator_Empty(t *testing.T) {
	_, err := NewRotator(nil, quietLogger())
	if !errors.Is(err, ErrNoEndpoints) {
		t.Fatalf("expected ErrNoEndpoints, got %v", err)
	}

	_, err = NewRotator([]string{"", "   "}, quietLogger())
	if !errors.Is(err, ErrNoEndpoints) {
		t.Fatalf("expected ErrNoEndpoints for blank entries, got %v", err)
	}
}

func TestRotator_CurrentStartsAtFirst(t *testing.T) {
	r, err := NewRotator([]string{"https://a", "https://b"}, quietLogger())
	if err != nil {
		t.Fatalf("NewRotator: %v", err)
	}
	if got := r.Current(); got != "https://a" {
		t.Errorf("expected https://a, got %s", got)
	}
}

func TestRotator_RotateWraps(t *testing.T) {
	r, err := NewRotator([]string{"a", "b", "c"}, quietLogger())
	if err != nil {
		t.Fatalf("NewRotator: %v", err)
	}

	want := []string{"b", "c", "a", "b"}
	for i, w := range want {
		got := r.Rotate()
		if got != w {
			t.Errorf("rotation %d: expected %s, got %s", i+1, w, got)
		}
		if r.Current() != got {
			t.Errorf("rotation %d: Current %s differs from Rotate result %s", i+1, r.Current(), got)
		}
	}
}

func TestRotator_FullCycleReturnsToStart(t *testing.T) {
	for n := 1; n <= 7; n++ {
		endpoints := make([]string, n)
		for i := range endpoints {
			endpoints[i] = fmt.Sprintf("https://rpc-%d", i)
		}
		r, err := NewRotator(endpoints, quietLogger())
		if err != nil {
			t.Fatalf("NewRotator(%d): %v", n, err)
		}

		// Start from every possible index.
		for start := 0; start < n; start++ {
			origin := r.Current()
			for i := 0; i < n; i++ {
				r.Rotate()
			}
			if r.Current() != origin {
				t.Errorf("n=%d start=%d: expected %s after full cycle, got %s", n, start, origin, r.Current())
			}
			r.Rotate()
		}
	}
}

func TestRotator_SingleEndpoint(t *testing.T) {
	r, err := NewRotator([]string{"only"}, quietLogger())
	if err != nil {
		t.Fatalf("NewRotator: %v", err)
	}
	if got := r.Rotate(); got != "only" {
		t.Errorf("expected only, got %s", got)
	}
}

func TestRotator_EndpointsIsCopy(t *testing.T) {
	src := []string{"a", "b"}
	r, err := NewRotator(src, quietLogger())
	if err != nil {
		t.Fatalf("NewRotator: %v", err)
	}

	src[0] = "mutated"
	list := r.Endpoints()
	list[1] = "mutated"

	if r.Current() != "a" {
		t.Errorf("source slice mutation leaked into rotator: %s", r.Current())
	}
	if r.Endpoints()[1] != "b" {
		t.Errorf("Endpoints result mutation leaked into rotator")
	}
	if r.Len() != 2 {
		t.Errorf("expected 2 endpoints, got %d", r.Len())
	}
}
