//go:build integration || !unit

package mysql_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"haus_search/internal/domain"
	mysqlrepo "haus_search/internal/storage/mysql"
)

// ---------- small helpers ----------
func pstr(s string) *string     { return &s }
func pint(i int) *int           { return &i }
func pfloat(f float64) *float64 { return &f }

func mustEnv(t *testing.T, k string) string {
	t.Helper()
	v := os.Getenv(k)
	if v == "" {
		t.Fatalf("%s not set; export it (e.g. MIGRATIONS_DIR=/path/to/sql)", k)
	}
	return v
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := mustEnv(t, "MIGRATIONS_DIR")

	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		t.Fatalf("MIGRATIONS_DIR=%s is not a directory or missing", dir)
	}

	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)

	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

// ---------- the test ----------
func TestRepo_MySQL_UpsertAndQuery(t *testing.T) {
	// Start isolated MySQL; let Docker pick a free host port.
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}

	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=haus",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:%s@tcp(127.0.0.1:%s)/%s?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		"root", hostPort, "haus")

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)

	repo := mysqlrepo.New(db)
	ctx := context.Background()

	// Arrange — seed with valid JSON blobs
	l := domain.Listing{
		ID:          20001,
		AgencyID:    nil,
		Suburb:      pstr("Bondi"),
		State:       pstr("NSW"),
		Address:     pstr("1 Campbell Parade"),
		Type:        pstr("house"),
		ListingType: pstr("for-sale"),
		Bedrooms:    pint(4),
		Bathrooms:   pint(2),
		Parking:     pint(1),
		Price:       pfloat(1_150_000),
		Lat:         pfloat(-33.89),
		Lon:         pfloat(151.27),
		Amenities:   []string{"pool"},
		Images:      []string{}, // marshals to "[]"
		RawJSON:     []byte(`{}`),
	}
	if err := repo.UpsertListing(ctx, l); err != nil {
		t.Fatalf("UpsertListing: %v", err)
	}

	// second upsert with changed price must not error and must win
	l.Price = pfloat(1_200_000)
	if err := repo.UpsertListing(ctx, l); err != nil {
		t.Fatalf("UpsertListing (update): %v", err)
	}

	r1 := domain.Report{
		ID:           30001,
		ListingID:    20001,
		SourceID:     pstr("s-1"),
		Suburb:       pstr("Bondi"),
		Estimate:     pfloat(1_180_000),
		LowEstimate:  pfloat(1_100_000),
		HighEstimate: pfloat(1_250_000),
		Summary:      pstr("Strong beachside demand."),
		Source:       pstr("haus"),
		RawJSON:      []byte(`{}`),
	}
	r2 := domain.Report{
		ID:        30002,
		ListingID: 20001,
		SourceID:  pstr("s-2"),
		Suburb:    pstr("Bondi"),
		Estimate:  pfloat(1_210_000),
		Source:    pstr("haus"),
		RawJSON:   []byte(`{}`),
	}
	if err := repo.UpsertReports(ctx, []domain.Report{r1, r2}); err != nil {
		t.Fatalf("UpsertReports: %v", err)
	}

	// Assert
	got, err := repo.GetListing(ctx, 20001)
	if err != nil {
		t.Fatalf("GetListing: %v", err)
	}
	if got.ID != 20001 || got.Suburb == nil || *got.Suburb != "Bondi" {
		t.Fatalf("unexpected listing: %+v", got)
	}
	if got.Price == nil || *got.Price != 1_200_000 {
		t.Fatalf("upsert did not update price: %+v", got.Price)
	}
	if len(got.Amenities) != 1 || got.Amenities[0] != "pool" {
		t.Fatalf("unexpected amenities: %v", got.Amenities)
	}

	if _, err := repo.GetListing(ctx, 99999); err != domain.ErrNotFound {
		t.Fatalf("missing listing: want ErrNotFound, got %v", err)
	}

	page, err := repo.ListListings(ctx, domain.ListingsQuery{
		Suburb:   pstr("Bondi"),
		Type:     pstr("house"),
		MinBeds:  pint(3),
		PriceMax: pfloat(1_500_000),
		Amenity:  pstr("pool"),
		Limit:    10,
	})
	if err != nil {
		t.Fatalf("ListListings: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].ID != 20001 {
		t.Fatalf("unexpected page: %+v", page.Items)
	}

	// a filter that excludes the row returns an empty page, not an error
	page, err = repo.ListListings(ctx, domain.ListingsQuery{MinBeds: pint(6)})
	if err != nil {
		t.Fatalf("ListListings (empty): %v", err)
	}
	if len(page.Items) != 0 {
		t.Fatalf("expected empty page, got %+v", page.Items)
	}

	rep, err := repo.GetReport(ctx, 30001)
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if rep.ListingID != 20001 || rep.Estimate == nil || *rep.Estimate != 1_180_000 {
		t.Fatalf("unexpected report: %+v", rep)
	}

	if err := repo.LogMiss(ctx, 77, 404, "not_found"); err != nil {
		t.Fatalf("LogMiss: %v", err)
	}

	// Optional: small sleep to let CURRENT_TIMESTAMP settle in container clocks
	time.Sleep(50 * time.Millisecond)
}
