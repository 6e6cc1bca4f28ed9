package repositories

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/zach-wendland/bna-rentals/pkg/database"
	"github.com/zach-wendland/bna-rentals/pkg/metrics"
	"github.com/zach-wendland/bna-rentals/pkg/models"
	"github.com/zach-wendland/bna-rentals/pkg/tracing"
)

var (
	rentalTable  = "rentals"
	rentalStruct = database.NewStruct(new(models.Rental))
)

func observeQuery(operation string) func() {
	start := time.Now()
	return func() {
		metrics.DatabaseQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}

// RentalFilter narrows the List query. Prices are given in major
// currency units and compared against the stored minor units.
type RentalFilter struct {
	MinPrice *float64
	MaxPrice *float64
	Search   string
	Limit    int
	Offset   int
}

type RentalRepository interface {
	Persist(ctx context.Context, properties []models.Property, ingestionDate *time.Time) (int, error)
	List(ctx context.Context, filter RentalFilter) ([]models.Rental, error)
	Count(ctx context.Context) (int64, error)
	LatestIngestionDate(ctx context.Context) (*time.Time, error)
}

type Rentals struct {
	Repository
}

// NewRentals creates the rentals repository
func NewRentals(db database.DB, logger ectologger.Logger) *Rentals {
	return &Rentals{NewRepository(db, logger)}
}

// Persist converts the properties into storage records, deduplicates
// them on detail URL (last occurrence wins) and bulk-upserts them.
// An empty input returns 0 without touching the store. The ingestion
// date defaults to the current UTC calendar date. Returns the number of
// rows the store reports as affected, falling back to the deduplicated
// count when the store does not report one.
func (r *Rentals) Persist(ctx context.Context, properties []models.Property, ingestionDate *time.Time) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "RentalRepository.Persist")
	defer span.End()

	if len(properties) == 0 {
		return 0, nil
	}

	date := time.Now().UTC().Truncate(24 * time.Hour)
	if ingestionDate != nil {
		date = *ingestionDate
	}

	rentals := make([]models.Rental, 0, len(properties))
	for _, property := range properties {
		rentals = append(rentals, models.NewRental(property, date))
	}
	deduped := models.Deduplicate(rentals)

	rows := make([]any, len(deduped))
	for i := range deduped {
		rows[i] = deduped[i]
	}

	ib := rentalStruct.InsertInto(rentalTable, rows...)
	ub := ib.OnConflict("detail_url")
	ub.Set(
		ub.Assign("id", database.Excluded("id")),
		ub.Assign("longitude", database.Excluded("longitude")),
		ub.Assign("latitude", database.Excluded("latitude")),
		ub.Assign("address", database.Excluded("address")),
		ub.Assign("price", database.Excluded("price")),
		ub.Assign("bedrooms", database.Excluded("bedrooms")),
		ub.Assign("bathrooms", database.Excluded("bathrooms")),
		ub.Assign("living_area", database.Excluded("living_area")),
		ub.Assign("property_type", database.Excluded("property_type")),
		ub.Assign("units", database.Excluded("units")),
		ub.Assign("ingestion_date", database.Excluded("ingestion_date")),
		ub.Assign("updated_at", time.Now().UTC()),
	)

	query, args := ib.Build()

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"records":        len(properties),
		"deduped":        len(deduped),
		"ingestion_date": date.Format("2006-01-02"),
	}).Info("Upserting rentals")

	defer observeQuery("persist")()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		metrics.RecordsUpserted.WithLabelValues("error").Add(float64(len(deduped)))
		r.logger.WithContext(ctx).WithError(err).Error("error upserting rentals")
		return 0, httperror.NewHTTPErrorf(http.StatusInternalServerError, "error upserting rentals: %s", err.Error())
	}

	affected := len(deduped)
	if count, err := result.RowsAffected(); err == nil {
		affected = int(count)
	}

	metrics.RecordsUpserted.WithLabelValues("ok").Add(float64(affected))
	return affected, nil
}

// List returns rentals matching the filter, newest ingestion first.
func (r *Rentals) List(ctx context.Context, filter RentalFilter) ([]models.Rental, error) {
	ctx, span := tracing.StartSpan(ctx, "RentalRepository.List")
	defer span.End()

	sb := rentalStruct.SelectFrom(rentalTable)
	if filter.MinPrice != nil {
		sb.Where(sb.GreaterEqualThan("price", models.ToMinorUnits(*filter.MinPrice)))
	}
	if filter.MaxPrice != nil {
		sb.Where(sb.LessEqualThan("price", models.ToMinorUnits(*filter.MaxPrice)))
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		sb.Where(sb.Or(
			sb.Like("address", pattern),
			sb.Like("detail_url", pattern),
		))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	sb.OrderBy("ingestion_date DESC", "id DESC")
	sb.Limit(limit)
	sb.Offset(offset)

	query, args := sb.Build()

	defer observeQuery("list")()
	var rentals []models.Rental
	err := r.db.SelectContext(ctx, &rentals, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("error listing rentals")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "error listing rentals")
	}

	return rentals, nil
}

// Count returns the total number of stored rentals.
func (r *Rentals) Count(ctx context.Context) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "RentalRepository.Count")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("COUNT(*)").From(rentalTable)

	query, args := sb.Build()

	defer observeQuery("count")()
	var count int64
	err := r.db.GetContext(ctx, &count, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("error counting rentals")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "error counting rentals")
	}

	return count, nil
}

// LatestIngestionDate returns the most recent ingestion date, or nil
// when the table is empty.
func (r *Rentals) LatestIngestionDate(ctx context.Context) (*time.Time, error) {
	ctx, span := tracing.StartSpan(ctx, "RentalRepository.LatestIngestionDate")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("MAX(ingestion_date)").From(rentalTable)

	query, args := sb.Build()

	defer observeQuery("latest_ingestion_date")()
	var latest sql.NullTime
	err := r.db.GetContext(ctx, &latest, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("error getting latest ingestion date")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "error getting latest ingestion date")
	}

	if !latest.Valid {
		return nil, nil
	}
	return &latest.Time, nil
}
