package repositories_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zach-wendland/bna-rentals/pkg/database"
	"github.com/zach-wendland/bna-rentals/pkg/models"
	"github.com/zach-wendland/bna-rentals/pkg/repositories"
)

func getTestLogger() ectologger.Logger {
	zapLogger, _ := zap.NewDevelopment()
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func getTestDB(t *testing.T) database.DB {
	// Use environment variables or defaults for test DB
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		dbHost = "localhost"
	}
	dbUser := os.Getenv("DB_USER_NAME")
	if dbUser == "" {
		dbUser = "user"
	}
	dbPass := os.Getenv("DB_PASSWORD")
	if dbPass == "" {
		dbPass = "password"
	}
	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "rentals"
	}

	dsn := "host=" + dbHost + " user=" + dbUser + " password=" + dbPass + " dbname=" + dbName + " sslmode=disable"
	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err, "Failed to connect to test database")

	return database.NewDatabaseInstance(db, getTestLogger())
}

func cleanupRentals(t *testing.T, db database.DB) {
	_, err := db.ExecContext(context.Background(), "DELETE FROM rentals")
	require.NoError(t, err)
}

func floatPtr(f float64) *float64 { return &f }
func strPtr(s string) *string     { return &s }

func TestRentalRepository_ExposesInjectedDB(t *testing.T) {
	// Wiring only, no connection required.
	db := database.NewDatabaseInstance(nil, getTestLogger())

	repo := repositories.NewRentals(db, getTestLogger())
	assert.Same(t, db, repo.DB())
}

func TestRentalRepository_PersistEmptyInput(t *testing.T) {
	// Empty input never touches the store, so no database is needed.
	repo := repositories.NewRentals(nil, getTestLogger())

	count, err := repo.Persist(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestRentalRepository_Persist(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := getTestDB(t)
	defer db.Close()
	cleanupRentals(t, db)

	repo := repositories.NewRentals(db, getTestLogger())
	ctx := context.Background()
	date := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	properties := []models.Property{
		{DetailURL: "/homedetails/1_zpid/", Price: floatPtr(1500), Address: strPtr("1 First Ave")},
		{DetailURL: "/homedetails/2_zpid/", Price: floatPtr(2000.50)},
		{DetailURL: "/homedetails/1_zpid/", Price: floatPtr(1600)}, // duplicate, last wins
	}

	persisted, err := repo.Persist(ctx, properties, &date)
	require.NoError(t, err)
	assert.Equal(t, 2, persisted)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	rentals, err := repo.List(ctx, repositories.RentalFilter{})
	require.NoError(t, err)
	require.Len(t, rentals, 2)
	for _, rental := range rentals {
		if rental.DetailURL == "/homedetails/1_zpid/" {
			assert.Equal(t, int64(160000), rental.Price.Int64, "later duplicate must win")
		}
	}

	// Repeat ingestion of the same URLs updates in place
	persisted, err = repo.Persist(ctx, []models.Property{
		{DetailURL: "/homedetails/1_zpid/", Price: floatPtr(1700)},
	}, &date)
	require.NoError(t, err)
	assert.Equal(t, 1, persisted)

	count, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count, "upsert must not create a duplicate row")
}

func TestRentalRepository_List(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := getTestDB(t)
	defer db.Close()
	cleanupRentals(t, db)

	repo := repositories.NewRentals(db, getTestLogger())
	ctx := context.Background()
	date := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	_, err := repo.Persist(ctx, []models.Property{
		{DetailURL: "/homedetails/cheap_zpid/", Price: floatPtr(900), Address: strPtr("12 Budget Ln")},
		{DetailURL: "/homedetails/mid_zpid/", Price: floatPtr(1800), Address: strPtr("34 Main St")},
		{DetailURL: "/homedetails/lux_zpid/", Price: floatPtr(4200), Address: strPtr("56 Main St Penthouse")},
	}, &date)
	require.NoError(t, err)

	t.Run("filters by price range in major units", func(t *testing.T) {
		rentals, err := repo.List(ctx, repositories.RentalFilter{
			MinPrice: floatPtr(1000),
			MaxPrice: floatPtr(2000),
		})
		require.NoError(t, err)
		require.Len(t, rentals, 1)
		assert.Equal(t, "/homedetails/mid_zpid/", rentals[0].DetailURL)
	})

	t.Run("matches substring on address", func(t *testing.T) {
		rentals, err := repo.List(ctx, repositories.RentalFilter{Search: "Main St"})
		require.NoError(t, err)
		assert.Len(t, rentals, 2)
	})

	t.Run("matches substring on detail url", func(t *testing.T) {
		rentals, err := repo.List(ctx, repositories.RentalFilter{Search: "cheap_zpid"})
		require.NoError(t, err)
		assert.Len(t, rentals, 1)
	})

	t.Run("paginates with limit and offset", func(t *testing.T) {
		first, err := repo.List(ctx, repositories.RentalFilter{Limit: 2})
		require.NoError(t, err)
		assert.Len(t, first, 2)

		rest, err := repo.List(ctx, repositories.RentalFilter{Limit: 2, Offset: 2})
		require.NoError(t, err)
		assert.Len(t, rest, 1)
	})
}

func TestRentalRepository_LatestIngestionDate(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := getTestDB(t)
	defer db.Close()
	cleanupRentals(t, db)

	repo := repositories.NewRentals(db, getTestLogger())
	ctx := context.Background()

	latest, err := repo.LatestIngestionDate(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest, "empty table yields nil")

	older := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	_, err = repo.Persist(ctx, []models.Property{{DetailURL: "/old"}}, &older)
	require.NoError(t, err)
	_, err = repo.Persist(ctx, []models.Property{{DetailURL: "/new"}}, &newer)
	require.NoError(t, err)

	latest, err = repo.LatestIngestionDate(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.True(t, newer.Equal(*latest))
}
