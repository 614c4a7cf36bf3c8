package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	domain "github.com/tracecapel/North-Carolina-Bike-and-Pedestrian-Visualization/internal/domain/traffic"
	"github.com/tracecapel/North-Carolina-Bike-and-Pedestrian-Visualization/internal/bootstrap/logging"
	"github.com/tracecapel/North-Carolina-Bike-and-Pedestrian-Visualization/internal/errs"
	"github.com/tracecapel/North-Carolina-Bike-and-Pedestrian-Visualization/internal/ports"
	trafficuc "github.com/tracecapel/North-Carolina-Bike-and-Pedestrian-Visualization/internal/usecase/traffic"
)

// Options tunes a Loader. Timezone is the zone count timestamps are
// normalized into before storage.
type Options struct {
	ChunkSize int
	Timezone  string
}

// Mode controls what happens to existing rows in the target table.
type Mode int

const (
	// ModeReplace drops and recreates the table before the first batch.
	ModeReplace Mode = iota
	// ModeAppend keeps existing rows and only inserts.
	ModeAppend
)

// Result summarizes one completed load.
type Result struct {
	BatchID string
	Entity  domain.Entity
	Rows    int
	Chunks  int
}

// Loader validates vendor exports against the entity schemas and writes
// them to the traffic tables.
type Loader struct {
	repo      ports.TrafficRepository
	uow       ports.UnitOfWork
	cache     ports.Cache
	rows      *rowValidator
	chunkSize int
}

func NewLoader(repo ports.TrafficRepository, uow ports.UnitOfWork, cache ports.Cache, opts Options) (*Loader, error) {
	if repo == nil {
		return nil, errors.New("traffic repository is required")
	}
	if uow == nil {
		return nil, errors.New("unit of work is required")
	}

	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 100000
	}

	zone := opts.Timezone
	if zone == "" {
		zone = "America/New_York"
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, errs.Wrapf(err, "load timezone %q", zone)
	}

	return &Loader{
		repo:      repo,
		uow:       uow,
		cache:     cache,
		rows:      newRowValidator(loc),
		chunkSize: chunkSize,
	}, nil
}

// LoadFile dispatches on the file extension: CSV files stream in chunks,
// spreadsheets load in one shot. ModeReplace rewrites the table before the
// first batch; ModeAppend keeps existing rows for both formats.
func (l *Loader) LoadFile(ctx context.Context, path string, entity domain.Entity, mode Mode) (Result, error) {
	if ctx == nil {
		return Result{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return Result{}, errs.Wrap(err, "check context")
	}
	if len(entity.Schema()) == 0 {
		return Result{}, fmt.Errorf("unknown entity %q", entity)
	}

	batchID := uuid.NewString()
	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "ingest.loader"),
		slog.String("batch_id", batchID),
		slog.String("file", path),
		slog.String("entity", string(entity)),
	)
	logging.Info(logCtx, "load started")

	parentRefs := make(map[int64]struct{})

	var (
		res Result
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		res, err = l.loadCSV(logCtx, path, entity, mode, parentRefs)
	case ".xlsx", ".xls":
		res, err = l.loadXLSX(logCtx, path, entity, mode, parentRefs)
	default:
		return Result{}, fmt.Errorf("unsupported file type %q for %s: must be .csv, .xlsx or .xls", ext, path)
	}
	if err != nil {
		return Result{}, err
	}
	res.BatchID = batchID
	res.Entity = entity

	l.invalidateCaches(logCtx, entity)
	l.warnOrphans(logCtx, entity, parentRefs)

	logging.Info(logCtx, "load finished", slog.Int("rows", res.Rows), slog.Int("chunks", res.Chunks))
	return res, nil
}

func (l *Loader) loadCSV(ctx context.Context, path string, entity domain.Entity, mode Mode, parentRefs map[int64]struct{}) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, errs.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return Result{}, errs.Wrapf(err, "read header of %s", path)
	}
	columns := normalizeHeader(header)

	var (
		res     Result
		chunk   = make([][]string, 0, min(l.chunkSize, 4096))
		rowBase = 2 // first data row of the file, 1-based, after the header
	)

	flush := func() error {
		if len(chunk) == 0 {
			return nil
		}

		chunkMode := ModeAppend
		if mode == ModeReplace && res.Chunks == 0 {
			chunkMode = ModeReplace
		}

		logging.Info(ctx, "processing chunk",
			slog.Int("chunk", res.Chunks+1),
			slog.Int("rows", len(chunk)),
		)
		n, err := l.storeRecords(ctx, entity, columns, chunk, rowBase, chunkMode, parentRefs)
		if err != nil {
			return err
		}

		res.Rows += n
		res.Chunks++
		rowBase += len(chunk)
		chunk = chunk[:0]
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return Result{}, errs.Wrap(err, "check context")
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Result{}, errs.Wrapf(err, "read %s", path)
		}

		chunk = append(chunk, record)
		if len(chunk) >= l.chunkSize {
			if err := flush(); err != nil {
				return Result{}, err
			}
		}
	}
	if err := flush(); err != nil {
		return Result{}, err
	}

	return res, nil
}

func (l *Loader) loadXLSX(ctx context.Context, path string, entity domain.Entity, mode Mode, parentRefs map[int64]struct{}) (Result, error) {
	records, columns, err := readSpreadsheet(path)
	if err != nil {
		return Result{}, err
	}

	n, err := l.storeRecords(ctx, entity, columns, records, 2, mode, parentRefs)
	if err != nil {
		return Result{}, err
	}
	return Result{Rows: n, Chunks: 1}, nil
}

// storeRecords coerces and validates one batch of raw records and writes
// the survivors inside a single transaction. Any row failure rejects the
// whole batch.
func (l *Loader) storeRecords(ctx context.Context, entity domain.Entity, columns []string, records [][]string, rowBase int, mode Mode, parentRefs map[int64]struct{}) (int, error) {
	batch, rowErrs := l.rows.build(entity, columns, records, rowBase)
	if len(rowErrs) > 0 {
		for _, re := range rowErrs {
			logging.Error(ctx, "row validation failed",
				slog.Int("row", re.Row),
				slog.String("field", re.Field),
				slog.String("reason", re.Reason),
			)
		}
		return 0, errs.WithStack(fmt.Errorf("validation failed for %d row(s) in %s batch", failedRowCount(rowErrs), entity))
	}

	for _, ds := range batch.Datastreams {
		parentRefs[ds.CounterID] = struct{}{}
	}
	for _, c := range batch.Counts {
		parentRefs[c.DatastreamID] = struct{}{}
	}

	err := l.uow.WithTx(ctx, func(txCtx context.Context) error {
		if mode == ModeReplace {
			if err := l.repo.ResetTable(txCtx, entity); err != nil {
				return err
			}
		}
		switch entity {
		case domain.EntityCounters:
			return l.repo.InsertCounters(txCtx, batch.Counters)
		case domain.EntityDatastreams:
			return l.repo.InsertDatastreams(txCtx, batch.Datastreams)
		case domain.EntityCounts:
			return l.repo.InsertCounts(txCtx, batch.Counts)
		default:
			return fmt.Errorf("unknown entity %q", entity)
		}
	})
	if err != nil {
		return 0, errs.Wrapf(err, "store %s batch", entity)
	}
	return batch.Len(), nil
}

func (l *Loader) invalidateCaches(ctx context.Context, entity domain.Entity) {
	if l.cache == nil || entity != domain.EntityCounters {
		return
	}
	if err := l.cache.Delete(ctx, trafficuc.CountersCacheKey); err != nil {
		logging.Warn(ctx, "counters cache invalidation failed", slog.Any("err", errs.Loggable(err)))
	}
}

// warnOrphans reports loaded rows whose parent id does not exist. Vendor
// files arrive per entity, so a dangling reference is a warning, not a
// failure.
func (l *Loader) warnOrphans(ctx context.Context, entity domain.Entity, parentRefs map[int64]struct{}) {
	var (
		check  func(context.Context, int64) (bool, error)
		parent string
	)
	switch entity {
	case domain.EntityDatastreams:
		check, parent = l.repo.CounterExists, "counter"
	case domain.EntityCounts:
		check, parent = l.repo.DatastreamExists, "datastream"
	default:
		return
	}

	ids := make([]int64, 0, len(parentRefs))
	for id := range parentRefs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		exists, err := check(ctx, id)
		if err != nil {
			logging.Warn(ctx, "orphan check skipped",
				slog.Int64("parent_id", id),
				slog.Any("err", errs.Loggable(err)),
			)
			continue
		}
		if !exists {
			logging.Warn(ctx, "loaded rows reference a missing parent",
				slog.String("parent", parent),
				slog.Int64("parent_id", id),
			)
		}
	}
}

func failedRowCount(rowErrs []RowError) int {
	seen := make(map[int]struct{}, len(rowErrs))
	for _, re := range rowErrs {
		seen[re.Row] = struct{}{}
	}
	return len(seen)
}
