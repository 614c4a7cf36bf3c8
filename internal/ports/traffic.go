package ports

import (
	"context"
	"errors"

	"github.com/tracecapel/North-Carolina-Bike-and-Pedestrian-Visualization/internal/domain/traffic"
)

var (
	ErrCounterNotFound    = errors.New("counter not found")
	ErrDatastreamNotFound = errors.New("datastream not found")
)

// TrafficReader is the read surface the API serves from. It is implemented
// by the SQLite repository and by the in-memory mock fixture set.
type TrafficReader interface {
	ListCounters(ctx context.Context) ([]traffic.Counter, error)
	CounterExists(ctx context.Context, counterID int64) (bool, error)
	ListDatastreams(ctx context.Context, counterID int64) ([]traffic.Datastream, error)
	DatastreamExists(ctx context.Context, datastreamID int64) (bool, error)
	ListCounts(ctx context.Context, datastreamID int64) ([]traffic.Count, error)
}

// TrafficRepository adds the write surface used by the data loader.
type TrafficRepository interface {
	TrafficReader

	// ResetTable drops and recreates the entity's table.
	ResetTable(ctx context.Context, entity traffic.Entity) error
	InsertCounters(ctx context.Context, rows []traffic.Counter) error
	InsertDatastreams(ctx context.Context, rows []traffic.Datastream) error
	InsertCounts(ctx context.Context, rows []traffic.Count) error
	CountRows(ctx context.Context, entity traffic.Entity) (int64, error)
}
