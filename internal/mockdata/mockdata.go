// Package mockdata is an in-memory traffic dataset for running the API
// without a database. The fixture set mirrors the Charlotte, NC pilot
// deployment and is generated deterministically so handler output is
// stable across runs.
package mockdata

import (
	"context"
	"math/rand"
	"sort"
	"time"

	"github.com/tracecapel/North-Carolina-Bike-and-Pedestrian-Visualization/internal/domain/traffic"
	"github.com/tracecapel/North-Carolina-Bike-and-Pedestrian-Visualization/internal/ports"
)

// countDays is the trailing window of generated 15-minute observations
// per datastream.
const countDays = 7

// anchor is the exclusive end of the generated window. Fixed so the
// fixture set never changes under the tests.
var anchor = time.Date(2025, time.June, 1, 0, 0, 0, 0, time.FixedZone("EDT", -4*3600))

type Store struct {
	counters    []traffic.Counter
	datastreams map[int64][]traffic.Datastream // by counter id
	counts      map[int64][]traffic.Count      // by datastream id
	streamIDs   map[int64]struct{}
}

var _ ports.TrafficReader = (*Store)(nil)

func New() *Store {
	s := &Store{
		datastreams: make(map[int64][]traffic.Datastream),
		counts:      make(map[int64][]traffic.Count),
		streamIDs:   make(map[int64]struct{}),
	}
	s.seed()
	return s
}

func (s *Store) ListCounters(ctx context.Context) ([]traffic.Counter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]traffic.Counter, len(s.counters))
	copy(out, s.counters)
	return out, nil
}

func (s *Store) CounterExists(ctx context.Context, counterID int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	for _, c := range s.counters {
		if c.CounterID == counterID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) ListDatastreams(ctx context.Context, counterID int64) ([]traffic.Datastream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows := s.datastreams[counterID]
	out := make([]traffic.Datastream, len(rows))
	copy(out, rows)
	return out, nil
}

func (s *Store) DatastreamExists(ctx context.Context, datastreamID int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, ok := s.streamIDs[datastreamID]
	return ok, nil
}

func (s *Store) ListCounts(ctx context.Context, datastreamID int64) ([]traffic.Count, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows := s.counts[datastreamID]
	out := make([]traffic.Count, len(rows))
	copy(out, rows)
	return out, nil
}

func strptr(s string) *string { return &s }

func (s *Store) seed() {
	s.counters = []traffic.Counter{
		{CounterID: 1, CounterCode: "BOA_STADIUM", CounterName: "Bank of America Stadium", Vendor: "SensorCorp", VendorSiteID: "24001", Latitude: 35.225833, Longitude: -80.852778, CounterNotes: strptr("Main entrance")},
		{CounterID: 2, CounterCode: "BOA_SOUTH", CounterName: "Stadium South Gate", Vendor: "SensorCorp", VendorSiteID: "24002", Latitude: 35.226, Longitude: -80.853, CounterNotes: strptr("South gate entrance")},
		{CounterID: 3, CounterCode: "FREEDOM_PARK", CounterName: "Freedom Park Main Entrance", Vendor: "TrailTech", VendorSiteID: "TT-1101", Latitude: 35.186, Longitude: -80.827, CounterNotes: strptr("Park main entrance")},
		{CounterID: 4, CounterCode: "SUGAR_CREEK", CounterName: "Little Sugar Creek Greenway", Vendor: "TrailTech", VendorSiteID: "TT-1102", Latitude: 35.198, Longitude: -80.840, CounterNotes: strptr("Trailhead counter")},
		{CounterID: 5, CounterCode: "ROMARE_BEARDEN", CounterName: "Romare Bearden Park", Vendor: "TrailTech", VendorSiteID: "TT-1103", Latitude: 35.225, Longitude: -80.844, CounterNotes: strptr("Downtown park entrance")},
		{CounterID: 6, CounterCode: "CONVENTION", CounterName: "Charlotte Convention Center", Vendor: "SensorCorp", VendorSiteID: "24003", Latitude: 35.223, Longitude: -80.841, CounterNotes: strptr("Main lobby entrance")},
	}

	type streamSpec struct {
		counterID int64
		typ       traffic.DatastreamType
		dir       traffic.DatastreamDirection
		name      string
	}
	specs := []streamSpec{
		{1, traffic.TypePedestrian, traffic.DirectionIn, "Stadium Main Entrance In"},
		{1, traffic.TypePedestrian, traffic.DirectionOut, "Stadium Main Entrance Out"},
		{2, traffic.TypePedestrian, traffic.DirectionCombined, "South Gate Combined"},
		{3, traffic.TypePedestrian, traffic.DirectionIn, "Freedom Park Pedestrian In"},
		{3, traffic.TypeSidewalkCyclist, traffic.DirectionCombined, "Freedom Park Sidewalk Cyclists"},
		{4, traffic.TypeCyclist, traffic.DirectionNorthbound, "Greenway Cyclists Northbound"},
		{4, traffic.TypeCyclist, traffic.DirectionSouthbound, "Greenway Cyclists Southbound"},
		{5, traffic.TypeCombined, traffic.DirectionCombined, "Romare Bearden Combined"},
		{6, traffic.TypePedestrian, traffic.DirectionIn, "Convention Lobby In"},
		{6, traffic.TypePedestrian, traffic.DirectionOut, "Convention Lobby Out"},
	}

	rng := rand.New(rand.NewSource(42))
	countID := int64(1)

	for i, spec := range specs {
		dsID := int64(i + 1)
		ds := traffic.Datastream{
			DatastreamID:        dsID,
			CounterID:           spec.counterID,
			DatastreamType:      spec.typ,
			DatastreamName:      spec.name,
			DatastreamDirection: spec.dir,
		}
		s.datastreams[spec.counterID] = append(s.datastreams[spec.counterID], ds)
		s.streamIDs[dsID] = struct{}{}
		s.counts[dsID] = generateCounts(rng, dsID, &countID)
	}

	for id := range s.counts {
		rows := s.counts[id]
		sort.Slice(rows, func(a, b int) bool { return rows[a].DateTime.Before(rows[b].DateTime) })
	}
}

// generateCounts produces countDays of 15-minute observations with a
// plausible daily shape: quiet overnight, commute peaks, midday plateau.
func generateCounts(rng *rand.Rand, dsID int64, nextID *int64) []traffic.Count {
	start := anchor.AddDate(0, 0, -countDays)
	intervals := countDays * 24 * 4

	one := int64(1)
	rows := make([]traffic.Count, 0, intervals)
	for i := 0; i < intervals; i++ {
		ts := start.Add(time.Duration(i) * 15 * time.Minute)

		base := hourlyShape(ts.Hour())
		raw := int64(float64(base) * (0.6 + 0.8*rng.Float64()))
		cleaned := float64(raw)

		flag := func() *int64 {
			if rng.Intn(200) == 0 {
				zero := int64(0)
				return &zero
			}
			return &one
		}

		rows = append(rows, traffic.Count{
			CountID:      *nextID,
			DatastreamID: dsID,
			DateTime:     ts,
			RawCount:     &raw,
			MaxDay:       flag(),
			MaxHour:      flag(),
			Gap:          flag(),
			Zero:         flag(),
			Stat:         flag(),
			CleanedCount: &cleaned,
		})
		*nextID++
	}
	return rows
}

func hourlyShape(hour int) int {
	switch {
	case hour < 6:
		return 2
	case hour < 9:
		return 40
	case hour < 16:
		return 25
	case hour < 19:
		return 50
	case hour < 22:
		return 15
	default:
		return 5
	}
}
