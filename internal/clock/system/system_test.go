package system

import (
	"testing"
	"time"
)

// TestClockNowUTC ensures the clock returns UTC timestamps.
func TestClockNowUTC(t *testing.T) {
	t.Parallel()

	before := time.Now().UTC().Add(-time.Second)
	got := New().Now()
	after := time.Now().UTC().Add(time.Second)

	if got.Location() != time.UTC {
		t.Fatalf("expected UTC location, got %v", got.Location())
	}
	if got.Before(before) || got.After(after) {
		t.Fatalf("expected %v to be between %v and %v", got, before, after)
	}
}

func TestFixedClock(t *testing.T) {
	t.Parallel()

	moscow := time.FixedZone("MSK", 3*60*60)
	at := time.Date(2021, time.January, 5, 15, 0, 0, 0, moscow)
	clk := Fixed(at)

	if !clk.Now().Equal(at) || clk.Now().Location() != time.UTC {
		t.Fatalf("unexpected fixed time %v", clk.Now())
	}
	if !clk.Now().Equal(clk.Now()) {
		t.Fatal("fixed clock must not advance")
	}
}
