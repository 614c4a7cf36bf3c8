package ingest

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/tracecapel/North-Carolina-Bike-and-Pedestrian-Visualization/internal/bootstrap/logging"
	domain "github.com/tracecapel/North-Carolina-Bike-and-Pedestrian-Visualization/internal/domain/traffic"
	"github.com/tracecapel/North-Carolina-Bike-and-Pedestrian-Visualization/internal/infrastructure/persistence/sqlite/model"
	"github.com/tracecapel/North-Carolina-Bike-and-Pedestrian-Visualization/internal/infrastructure/persistence/sqlite/repository"
	"github.com/tracecapel/North-Carolina-Bike-and-Pedestrian-Visualization/internal/infrastructure/persistence/sqlite/uow"
)

func setupLoader(t *testing.T, opts Options) (*Loader, *repository.TrafficRepository) {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "traffic.db")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	if err := db.AutoMigrate(&model.Counter{}, &model.Datastream{}, &model.Count{}, &model.TrafficKV{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	repo := repository.NewTrafficRepository(db, testLocation(t))
	loader, err := NewLoader(repo, uow.NewUnitOfWork(db), nil, opts)
	if err != nil {
		t.Fatalf("NewLoader() error = %v", err)
	}
	return loader, repo
}

func writeCSV(t *testing.T, name string, lines []string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func writeXLSX(t *testing.T, name string, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("set sheet row: %v", err)
		}
	}

	path := filepath.Join(t.TempDir(), name)
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save xlsx: %v", err)
	}
	return path
}

func TestLoadFileCSVChunks(t *testing.T) {
	loader, repo := setupLoader(t, Options{ChunkSize: 2})
	ctx := context.Background()

	path := writeCSV(t, "counts.csv", []string{
		"count_id,datastream_id,date_time,raw_count",
		"1,10,2024-03-15 12:00:00,100",
		"2,10,2024-03-15 12:15:00,101",
		"3,10,2024-03-15 12:30:00,102",
		"4,10,2024-03-15 12:45:00,103",
		"5,10,2024-03-15 13:00:00,104",
	})

	res, err := loader.LoadFile(ctx, path, domain.EntityCounts, ModeReplace)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if res.Rows != 5 {
		t.Fatalf("LoadFile() rows = %d, want 5", res.Rows)
	}
	if res.Chunks != 3 {
		t.Fatalf("LoadFile() chunks = %d, want 3", res.Chunks)
	}
	if res.BatchID == "" {
		t.Fatal("LoadFile() batch id is empty")
	}

	n, err := repo.CountRows(ctx, domain.EntityCounts)
	if err != nil {
		t.Fatalf("CountRows() error = %v", err)
	}
	if n != 5 {
		t.Fatalf("CountRows() = %d, want 5", n)
	}
}

func TestLoadFileCSVReplaceClearsPreviousRows(t *testing.T) {
	loader, repo := setupLoader(t, Options{ChunkSize: 2})
	ctx := context.Background()

	first := writeCSV(t, "first.csv", []string{
		"count_id,datastream_id,date_time,raw_count",
		"1,10,2024-03-15 12:00:00,100",
		"2,10,2024-03-15 12:15:00,101",
		"3,10,2024-03-15 12:30:00,102",
	})
	if _, err := loader.LoadFile(ctx, first, domain.EntityCounts, ModeReplace); err != nil {
		t.Fatalf("LoadFile(first) error = %v", err)
	}

	// A replace load spanning multiple chunks resets the table once,
	// then appends; earlier file contents must be gone afterwards.
	second := writeCSV(t, "second.csv", []string{
		"count_id,datastream_id,date_time,raw_count",
		"10,10,2024-03-16 12:00:00,200",
		"11,10,2024-03-16 12:15:00,201",
		"12,10,2024-03-16 12:30:00,202",
	})
	if _, err := loader.LoadFile(ctx, second, domain.EntityCounts, ModeReplace); err != nil {
		t.Fatalf("LoadFile(second) error = %v", err)
	}

	items, err := repo.ListCounts(ctx, 10)
	if err != nil {
		t.Fatalf("ListCounts() error = %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("ListCounts() len = %d, want 3", len(items))
	}
	if items[0].CountID != 10 {
		t.Fatalf("ListCounts() first id = %d, want 10", items[0].CountID)
	}
}

func TestLoadFileCSVAppendKeepsPreviousRows(t *testing.T) {
	loader, repo := setupLoader(t, Options{ChunkSize: 100})
	ctx := context.Background()

	first := writeCSV(t, "first.csv", []string{
		"count_id,datastream_id,date_time,raw_count",
		"1,10,2024-03-15 12:00:00,100",
	})
	if _, err := loader.LoadFile(ctx, first, domain.EntityCounts, ModeReplace); err != nil {
		t.Fatalf("LoadFile(first) error = %v", err)
	}

	second := writeCSV(t, "second.csv", []string{
		"count_id,datastream_id,date_time,raw_count",
		"2,10,2024-03-15 12:15:00,101",
	})
	if _, err := loader.LoadFile(ctx, second, domain.EntityCounts, ModeAppend); err != nil {
		t.Fatalf("LoadFile(second) error = %v", err)
	}

	n, err := repo.CountRows(ctx, domain.EntityCounts)
	if err != nil {
		t.Fatalf("CountRows() error = %v", err)
	}
	if n != 2 {
		t.Fatalf("CountRows() = %d, want 2", n)
	}
}

func TestLoadFileValidationFailureRejectsBatch(t *testing.T) {
	loader, repo := setupLoader(t, Options{ChunkSize: 100})
	ctx := context.Background()

	path := writeCSV(t, "counts.csv", []string{
		"count_id,datastream_id,date_time,raw_count",
		"1,10,2024-03-15 12:00:00,100",
		"2,10,not a date,101",
	})

	_, err := loader.LoadFile(ctx, path, domain.EntityCounts, ModeReplace)
	if err == nil {
		t.Fatal("LoadFile() expected validation error")
	}
	if !strings.Contains(err.Error(), "validation failed for 1 row(s)") {
		t.Fatalf("LoadFile() error = %v", err)
	}

	n, err := repo.CountRows(ctx, domain.EntityCounts)
	if err != nil {
		t.Fatalf("CountRows() error = %v", err)
	}
	if n != 0 {
		t.Fatalf("CountRows() = %d, want 0 after rejected batch", n)
	}
}

func TestLoadFileXLSXReplaces(t *testing.T) {
	loader, repo := setupLoader(t, Options{ChunkSize: 100})
	ctx := context.Background()

	path := writeXLSX(t, "counters.xlsx", [][]any{
		{"Counter ID", "Counter Code", "Counter Name", "Vendor", "Vendor Site ID", "Latitude", "Longitude", "Counter Notes"},
		{1, "BOA_STADIUM", "Bank of America Stadium", "SensorCorp", "24001", 35.225833, -80.852778, "stadium plaza"},
		{2, "FREEDOM_PARK", "Freedom Park", "SensorCorp", "24002", 35.185, -80.843, nil},
	})

	res, err := loader.LoadFile(ctx, path, domain.EntityCounters, ModeReplace)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if res.Rows != 2 || res.Chunks != 1 {
		t.Fatalf("LoadFile() rows=%d chunks=%d", res.Rows, res.Chunks)
	}

	items, err := repo.ListCounters(ctx)
	if err != nil {
		t.Fatalf("ListCounters() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("ListCounters() len = %d", len(items))
	}
	if items[0].CounterCode != "BOA_STADIUM" {
		t.Fatalf("ListCounters() counter_code = %q", items[0].CounterCode)
	}
	if items[0].VendorSiteID != "24001" {
		t.Fatalf("ListCounters() vendor_site_id = %q", items[0].VendorSiteID)
	}
	if items[1].CounterNotes != nil {
		t.Fatalf("ListCounters() expected nil notes, got %q", *items[1].CounterNotes)
	}
}

func TestLoadFileWarnsOnDanglingParents(t *testing.T) {
	loader, repo := setupLoader(t, Options{ChunkSize: 100})

	var logBuf bytes.Buffer
	ctx := logging.WithLogger(context.Background(), slog.New(slog.NewTextHandler(&logBuf, nil)))

	err := repo.InsertCounters(ctx, []domain.Counter{
		{CounterID: 1, CounterCode: "BOA_STADIUM", CounterName: "Bank of America Stadium", Vendor: "SensorCorp", VendorSiteID: "24001", Latitude: 35.225833, Longitude: -80.852778},
	})
	if err != nil {
		t.Fatalf("insert counters: %v", err)
	}

	path := writeCSV(t, "datastreams.csv", []string{
		"datastream_id,counter_id,datastream_type,datastream_name,datastream_direction",
		"10,1,PEDESTRIAN,Stadium In,IN",
		"11,99,PEDESTRIAN,Phantom In,IN",
	})

	// Dangling parent ids are a warning, not a failure.
	res, err := loader.LoadFile(ctx, path, domain.EntityDatastreams, ModeReplace)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if res.Rows != 2 {
		t.Fatalf("LoadFile() rows = %d, want 2", res.Rows)
	}

	logged := logBuf.String()
	if !strings.Contains(logged, "missing parent") || !strings.Contains(logged, "parent_id=99") {
		t.Fatalf("expected missing-parent warning for counter 99, log:\n%s", logged)
	}
	if strings.Contains(logged, "parent_id=1") {
		t.Fatalf("unexpected warning for existing counter 1, log:\n%s", logged)
	}
}

func TestLoadFileXLSXAppendKeepsPreviousRows(t *testing.T) {
	loader, repo := setupLoader(t, Options{ChunkSize: 100})
	ctx := context.Background()

	first := writeXLSX(t, "first.xlsx", [][]any{
		{"count_id", "datastream_id", "date_time", "raw_count"},
		{1, 10, "2024-03-15 12:00:00", 100},
	})
	if _, err := loader.LoadFile(ctx, first, domain.EntityCounts, ModeReplace); err != nil {
		t.Fatalf("LoadFile(first) error = %v", err)
	}

	second := writeXLSX(t, "second.xlsx", [][]any{
		{"count_id", "datastream_id", "date_time", "raw_count"},
		{2, 10, "2024-03-15 12:15:00", 101},
	})
	if _, err := loader.LoadFile(ctx, second, domain.EntityCounts, ModeAppend); err != nil {
		t.Fatalf("LoadFile(second) error = %v", err)
	}

	n, err := repo.CountRows(ctx, domain.EntityCounts)
	if err != nil {
		t.Fatalf("CountRows() error = %v", err)
	}
	if n != 2 {
		t.Fatalf("CountRows() = %d, want 2 after append", n)
	}
}

func TestLoadFileUnsupportedExtension(t *testing.T) {
	loader, _ := setupLoader(t, Options{})

	_, err := loader.LoadFile(context.Background(), "export.parquet", domain.EntityCounts, ModeReplace)
	if err == nil {
		t.Fatal("LoadFile() expected error for unsupported extension")
	}
	if !strings.Contains(err.Error(), "unsupported file type") {
		t.Fatalf("LoadFile() error = %v", err)
	}
}

func TestLoadFileUnknownEntity(t *testing.T) {
	loader, _ := setupLoader(t, Options{})

	_, err := loader.LoadFile(context.Background(), "export.csv", domain.Entity("segments"), ModeReplace)
	if err == nil {
		t.Fatal("LoadFile() expected error for unknown entity")
	}
}

func TestNewLoaderRejectsBadTimezone(t *testing.T) {
	db, err := gorm.Open(gormsqlite.Open(filepath.Join(t.TempDir(), "traffic.db")), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	_, err = NewLoader(repository.NewTrafficRepository(db, testLocation(t)), uow.NewUnitOfWork(db), nil, Options{Timezone: "Mars/Olympus"})
	if err == nil {
		t.Fatal("NewLoader() expected error for unknown timezone")
	}
}
