package traffic

import (
	"context"
	"errors"
	"log/slog"

	"github.com/goccy/go-json"

	domain "github.com/tracecapel/North-Carolina-Bike-and-Pedestrian-Visualization/internal/domain/traffic"
	"github.com/tracecapel/North-Carolina-Bike-and-Pedestrian-Visualization/internal/bootstrap/logging"
	"github.com/tracecapel/North-Carolina-Bike-and-Pedestrian-Visualization/internal/errs"
	"github.com/tracecapel/North-Carolina-Bike-and-Pedestrian-Visualization/internal/ports"
)

// Counters returns every counter. The listing is small and read often by
// the dashboard, so it is served from the KV cache when one is wired.
func (s *Service) Counters(ctx context.Context) ([]domain.Counter, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if s.reader == nil {
		return nil, errors.New("traffic reader is required")
	}

	if s.cache != nil {
		cached, found, err := s.cache.Get(ctx, CountersCacheKey)
		if err != nil {
			logging.Warn(ctx, "counters cache read failed", slog.Any("err", errs.Loggable(err)))
		} else if found {
			var items []domain.Counter
			if err := json.Unmarshal([]byte(cached), &items); err == nil {
				return items, nil
			}
			logging.Warn(ctx, "counters cache entry invalid, refreshing")
		}
	}

	items, err := s.reader.ListCounters(ctx)
	if err != nil {
		return nil, errs.Wrap(err, "list counters")
	}

	if s.cache != nil {
		raw, err := json.Marshal(items)
		if err == nil {
			if err := s.cache.Set(ctx, CountersCacheKey, string(raw), 0); err != nil {
				logging.Warn(ctx, "counters cache write failed", slog.Any("err", errs.Loggable(err)))
			}
		}
	}

	return items, nil
}

// DatastreamsForCounter returns the datastreams of one counter.
// Returns ports.ErrCounterNotFound when the counter does not exist; an
// existing counter with no datastreams yields an empty slice.
func (s *Service) DatastreamsForCounter(ctx context.Context, counterID int64) ([]domain.Datastream, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if s.reader == nil {
		return nil, errors.New("traffic reader is required")
	}

	exists, err := s.reader.CounterExists(ctx, counterID)
	if err != nil {
		return nil, errs.Wrap(err, "check counter exists")
	}
	if !exists {
		return nil, ports.ErrCounterNotFound
	}

	items, err := s.reader.ListDatastreams(ctx, counterID)
	if err != nil {
		return nil, errs.Wrap(err, "list datastreams")
	}
	return items, nil
}

// CountsForDatastream returns the observations of one datastream in
// timestamp order. Returns ports.ErrDatastreamNotFound when the datastream
// does not exist; empty result sets are not an error.
func (s *Service) CountsForDatastream(ctx context.Context, datastreamID int64) ([]domain.Count, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if s.reader == nil {
		return nil, errors.New("traffic reader is required")
	}

	exists, err := s.reader.DatastreamExists(ctx, datastreamID)
	if err != nil {
		return nil, errs.Wrap(err, "check datastream exists")
	}
	if !exists {
		return nil, ports.ErrDatastreamNotFound
	}

	items, err := s.reader.ListCounts(ctx, datastreamID)
	if err != nil {
		return nil, errs.Wrap(err, "list counts")
	}
	return items, nil
}
