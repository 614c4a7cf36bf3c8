package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tracecapel/North-Carolina-Bike-and-Pedestrian-Visualization/internal/domain/traffic"
	"github.com/tracecapel/North-Carolina-Bike-and-Pedestrian-Visualization/internal/errs"
	"github.com/tracecapel/North-Carolina-Bike-and-Pedestrian-Visualization/internal/infrastructure/persistence/sqlite/model"
	"github.com/tracecapel/North-Carolina-Bike-and-Pedestrian-Visualization/internal/ports"
)

// insertBatchSize bounds the rows per INSERT; SQLite limits bound variables
// per statement.
const insertBatchSize = 500

type TrafficRepository struct {
	db *gorm.DB
	// loc is the zone count timestamps are presented in. Storage is UTC
	// RFC3339 text so lexicographic date_time order is chronological.
	loc *time.Location
}

var _ ports.TrafficRepository = (*TrafficRepository)(nil)

func NewTrafficRepository(db *gorm.DB, loc *time.Location) *TrafficRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &TrafficRepository{db: db, loc: loc}
}

func (r *TrafficRepository) dbFromContext(ctx context.Context) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	tx := ports.TxFromContext(ctx)
	if tx == nil {
		return r.db.WithContext(ctx), nil
	}

	gormTx, ok := tx.(*gorm.DB)
	if !ok || gormTx == nil {
		return nil, fmt.Errorf("invalid tx in context: %T", tx)
	}
	return gormTx.WithContext(ctx), nil
}

func (r *TrafficRepository) ListCounters(ctx context.Context) ([]traffic.Counter, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.Counter
	if err := db.Order("counter_id asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query counters")
	}

	items := make([]traffic.Counter, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapCounter(row))
	}
	return items, nil
}

func (r *TrafficRepository) CounterExists(ctx context.Context, counterID int64) (bool, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return false, err
	}

	var n int64
	if err := db.Model(&model.Counter{}).Where("counter_id = ?", counterID).Count(&n).Error; err != nil {
		return false, errs.Wrap(err, "count counters by id")
	}
	return n > 0, nil
}

func (r *TrafficRepository) ListDatastreams(ctx context.Context, counterID int64) ([]traffic.Datastream, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.Datastream
	if err := db.
		Where("counter_id = ?", counterID).
		Order("datastream_id asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query datastreams")
	}

	items := make([]traffic.Datastream, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapDatastream(row))
	}
	return items, nil
}

func (r *TrafficRepository) DatastreamExists(ctx context.Context, datastreamID int64) (bool, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return false, err
	}

	var n int64
	if err := db.Model(&model.Datastream{}).Where("datastream_id = ?", datastreamID).Count(&n).Error; err != nil {
		return false, errs.Wrap(err, "count datastreams by id")
	}
	return n > 0, nil
}

func (r *TrafficRepository) ListCounts(ctx context.Context, datastreamID int64) ([]traffic.Count, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.Count
	if err := db.
		Where("datastream_id = ?", datastreamID).
		Order("date_time asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query counts")
	}

	items := make([]traffic.Count, 0, len(rows))
	for _, row := range rows {
		item, mapErr := r.mapCount(row)
		if mapErr != nil {
			return nil, mapErr
		}
		items = append(items, item)
	}
	return items, nil
}

func (r *TrafficRepository) ResetTable(ctx context.Context, entity traffic.Entity) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	m, err := modelFor(entity)
	if err != nil {
		return err
	}

	migrator := db.Migrator()
	if migrator.HasTable(m) {
		if err := migrator.DropTable(m); err != nil {
			return errs.Wrapf(err, "drop table %s", entity.Table())
		}
	}
	if err := db.AutoMigrate(m); err != nil {
		return errs.Wrapf(err, "recreate table %s", entity.Table())
	}
	return nil
}

func (r *TrafficRepository) InsertCounters(ctx context.Context, rows []traffic.Counter) error {
	if len(rows) == 0 {
		return nil
	}

	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	records := make([]model.Counter, 0, len(rows))
	for _, item := range rows {
		records = append(records, model.Counter(item))
	}
	if err := db.CreateInBatches(records, insertBatchSize).Error; err != nil {
		return errs.Wrap(err, "insert counters")
	}
	return nil
}

func (r *TrafficRepository) InsertDatastreams(ctx context.Context, rows []traffic.Datastream) error {
	if len(rows) == 0 {
		return nil
	}

	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	records := make([]model.Datastream, 0, len(rows))
	for _, item := range rows {
		records = append(records, model.Datastream{
			DatastreamID:        item.DatastreamID,
			CounterID:           item.CounterID,
			DatastreamType:      string(item.DatastreamType),
			DatastreamName:      item.DatastreamName,
			DatastreamDirection: string(item.DatastreamDirection),
			DatastreamNotes:     item.DatastreamNotes,
		})
	}
	if err := db.CreateInBatches(records, insertBatchSize).Error; err != nil {
		return errs.Wrap(err, "insert datastreams")
	}
	return nil
}

func (r *TrafficRepository) InsertCounts(ctx context.Context, rows []traffic.Count) error {
	if len(rows) == 0 {
		return nil
	}

	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	records := make([]model.Count, 0, len(rows))
	for _, item := range rows {
		records = append(records, model.Count{
			CountID:      item.CountID,
			DatastreamID: item.DatastreamID,
			DateTime:     item.DateTime.UTC().Format(time.RFC3339),
			RawCount:     item.RawCount,
			MaxDay:       item.MaxDay,
			MaxHour:      item.MaxHour,
			Gap:          item.Gap,
			Zero:         item.Zero,
			Stat:         item.Stat,
			CleanedCount: item.CleanedCount,
		})
	}
	if err := db.CreateInBatches(records, insertBatchSize).Error; err != nil {
		return errs.Wrap(err, "insert counts")
	}
	return nil
}

func (r *TrafficRepository) CountRows(ctx context.Context, entity traffic.Entity) (int64, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return 0, err
	}

	m, err := modelFor(entity)
	if err != nil {
		return 0, err
	}

	var n int64
	if err := db.Model(m).Count(&n).Error; err != nil {
		return 0, errs.Wrapf(err, "count rows in %s", entity.Table())
	}
	return n, nil
}

func modelFor(entity traffic.Entity) (any, error) {
	switch entity {
	case traffic.EntityCounters:
		return &model.Counter{}, nil
	case traffic.EntityDatastreams:
		return &model.Datastream{}, nil
	case traffic.EntityCounts:
		return &model.Count{}, nil
	default:
		return nil, fmt.Errorf("unknown entity %q", entity)
	}
}

func mapCounter(row model.Counter) traffic.Counter {
	return traffic.Counter(row)
}

func mapDatastream(row model.Datastream) traffic.Datastream {
	return traffic.Datastream{
		DatastreamID:        row.DatastreamID,
		CounterID:           row.CounterID,
		DatastreamType:      traffic.DatastreamType(row.DatastreamType),
		DatastreamName:      row.DatastreamName,
		DatastreamDirection: traffic.DatastreamDirection(row.DatastreamDirection),
		DatastreamNotes:     row.DatastreamNotes,
	}
}

// naiveStoredLayouts cover date_time text without an offset, as written by
// earlier pandas-era loads. Such values are read in the presentation zone.
var naiveStoredLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func (r *TrafficRepository) parseStoredTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts.In(r.loc), nil
	}
	for _, layout := range naiveStoredLayouts {
		if ts, err := time.ParseInLocation(layout, s, r.loc); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date_time %q", s)
}

func (r *TrafficRepository) mapCount(row model.Count) (traffic.Count, error) {
	ts, err := r.parseStoredTime(row.DateTime)
	if err != nil {
		return traffic.Count{}, errs.Wrapf(err, "parse date_time for count %d", row.CountID)
	}

	return traffic.Count{
		CountID:      row.CountID,
		DatastreamID: row.DatastreamID,
		DateTime:     ts,
		RawCount:     row.RawCount,
		MaxDay:       row.MaxDay,
		MaxHour:      row.MaxHour,
		Gap:          row.Gap,
		Zero:         row.Zero,
		Stat:         row.Stat,
		CleanedCount: row.CleanedCount,
	}, nil
}
