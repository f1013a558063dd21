package mockdata

import (
	"context"
	"reflect"
	"testing"
	"time"
)

func TestFetch_DeterministicWithinHour(t *testing.T) {
	src := NewSource([]string{"ep-1", "ep-2"}, 6)
	pinned := time.Date(2026, 8, 30, 12, 40, 0, 0, time.UTC)
	src.now = func() time.Time { return pinned }

	first, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if want := 2 * len(defaultArms) * 6; len(first) != want {
		t.Fatalf("rows = %d, want %d", len(first), want)
	}

	// A second fetch inside the same hour sees the identical window.
	src.now = func() time.Time { return pinned.Add(10 * time.Minute) }
	second, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("fetches within the same hour differ")
	}
}

func TestFetch_RowShape(t *testing.T) {
	src := NewSource(nil, 0)
	src.now = func() time.Time {
		return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	}

	rows, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	controls := 0
	for _, r := range rows {
		if r.IsControl {
			controls++
		}
		if r.EndpointID == "" || r.ArmID == "" {
			t.Fatalf("row missing identity: %+v", r)
		}
		if r.Impressions < 0 || r.Responses < 0 || r.Revenue < 0 || r.Cost < 0 {
			t.Fatalf("row has negative counters: %+v", r)
		}
		if r.BucketStart.IsZero() || !r.BucketStart.Equal(r.BucketStart.Truncate(time.Hour)) {
			t.Fatalf("row bucket not hour-aligned: %v", r.BucketStart)
		}
		if r.Cost >= r.Revenue {
			t.Fatalf("row margin not positive: revenue %v cost %v", r.Revenue, r.Cost)
		}
	}

	// Defaults: one endpoint, 24 hours, exactly one control arm per bucket.
	if want := len(defaultArms) * 24; len(rows) != want {
		t.Fatalf("rows = %d, want %d", len(rows), want)
	}
	if controls != 24 {
		t.Fatalf("control rows = %d, want 24", controls)
	}
}

func TestFetch_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewSource(nil, 0).Fetch(ctx); err == nil {
		t.Fatalf("fetch with cancelled context must fail")
	}
}
