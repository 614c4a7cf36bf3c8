package mockdata

import (
	"context"
	"testing"
)

func TestListCountersFixtures(t *testing.T) {
	store := New()

	items, err := store.ListCounters(context.Background())
	if err != nil {
		t.Fatalf("ListCounters() error = %v", err)
	}
	if len(items) != 6 {
		t.Fatalf("ListCounters() len = %d, want 6", len(items))
	}
	for i := 1; i < len(items); i++ {
		if items[i].CounterID <= items[i-1].CounterID {
			t.Fatalf("counters out of order at index %d", i)
		}
	}
	for _, c := range items {
		if c.Latitude < -90 || c.Latitude > 90 || c.Longitude < -180 || c.Longitude > 180 {
			t.Fatalf("counter %d has out-of-range coordinates", c.CounterID)
		}
	}
}

func TestDatastreamsReferenceCounters(t *testing.T) {
	store := New()
	ctx := context.Background()

	counters, err := store.ListCounters(ctx)
	if err != nil {
		t.Fatalf("ListCounters() error = %v", err)
	}

	total := 0
	for _, c := range counters {
		streams, err := store.ListDatastreams(ctx, c.CounterID)
		if err != nil {
			t.Fatalf("ListDatastreams(%d) error = %v", c.CounterID, err)
		}
		if len(streams) == 0 {
			t.Fatalf("counter %d has no datastreams", c.CounterID)
		}
		for _, ds := range streams {
			if ds.CounterID != c.CounterID {
				t.Fatalf("datastream %d references counter %d, listed under %d", ds.DatastreamID, ds.CounterID, c.CounterID)
			}
		}
		total += len(streams)
	}
	if total != 10 {
		t.Fatalf("total datastreams = %d, want 10", total)
	}
}

func TestCountsShape(t *testing.T) {
	store := New()
	ctx := context.Background()

	items, err := store.ListCounts(ctx, 1)
	if err != nil {
		t.Fatalf("ListCounts() error = %v", err)
	}
	// 7 days of 15-minute observations.
	if len(items) != 7*24*4 {
		t.Fatalf("ListCounts() len = %d, want %d", len(items), 7*24*4)
	}

	for i, c := range items {
		if c.DatastreamID != 1 {
			t.Fatalf("count %d references datastream %d", c.CountID, c.DatastreamID)
		}
		if c.RawCount == nil || *c.RawCount < 0 {
			t.Fatalf("count %d has bad raw_count %v", c.CountID, c.RawCount)
		}
		if c.Gap == nil || (*c.Gap != 0 && *c.Gap != 1) {
			t.Fatalf("count %d has bad gap flag %v", c.CountID, c.Gap)
		}
		if i > 0 && !items[i-1].DateTime.Before(c.DateTime) {
			t.Fatalf("counts out of order at index %d", i)
		}
	}
}

func TestDeterministicSeed(t *testing.T) {
	a, err := New().ListCounts(context.Background(), 4)
	if err != nil {
		t.Fatalf("ListCounts() error = %v", err)
	}
	b, err := New().ListCounts(context.Background(), 4)
	if err != nil {
		t.Fatalf("ListCounts() error = %v", err)
	}
	if len(a) != len(b) {
		t.Fatalf("run lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if *a[i].RawCount != *b[i].RawCount {
			t.Fatalf("raw_count differs at index %d: %d vs %d", i, *a[i].RawCount, *b[i].RawCount)
		}
	}
}

func TestExistenceChecks(t *testing.T) {
	store := New()
	ctx := context.Background()

	exists, err := store.CounterExists(ctx, 3)
	if err != nil {
		t.Fatalf("CounterExists() error = %v", err)
	}
	if !exists {
		t.Fatal("CounterExists(3) = false")
	}

	exists, err = store.CounterExists(ctx, 99)
	if err != nil {
		t.Fatalf("CounterExists() error = %v", err)
	}
	if exists {
		t.Fatal("CounterExists(99) = true")
	}

	exists, err = store.DatastreamExists(ctx, 10)
	if err != nil {
		t.Fatalf("DatastreamExists() error = %v", err)
	}
	if !exists {
		t.Fatal("DatastreamExists(10) = false")
	}

	exists, err = store.DatastreamExists(ctx, 11)
	if err != nil {
		t.Fatalf("DatastreamExists() error = %v", err)
	}
	if exists {
		t.Fatal("DatastreamExists(11) = true")
	}
}
