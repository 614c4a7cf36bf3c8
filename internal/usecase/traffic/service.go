package traffic

import (
	"github.com/tracecapel/North-Carolina-Bike-and-Pedestrian-Visualization/internal/ports"
)

// CountersCacheKey holds the cached JSON for the full counters listing.
// The loader deletes it whenever the counters table is rewritten.
const CountersCacheKey = "counters:list"

// Service exposes the read operations the API serves. The cache is
// optional; a nil cache disables counter-list caching (the mock backend
// runs without one).
type Service struct {
	reader ports.TrafficReader
	cache  ports.Cache
}

func NewService(reader ports.TrafficReader, cache ports.Cache) *Service {
	return &Service{
		reader: reader,
		cache:  cache,
	}
}
