package handlers

import (
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	"github.com/zach-wendland/bna-rentals/pkg/models"
	"github.com/zach-wendland/bna-rentals/pkg/repositories"
	"github.com/zach-wendland/bna-rentals/pkg/tracing"
)

// RentalsHandler serves the read side of the rentals table
type RentalsHandler struct {
	rentals repositories.RentalRepository
	logger  ectologger.Logger
}

// NewRentalsHandler creates a new rentals handler
func NewRentalsHandler(rentals repositories.RentalRepository, logger ectologger.Logger) *RentalsHandler {
	return &RentalsHandler{
		rentals: rentals,
		logger:  logger,
	}
}

// Register registers rental routes
func (h *RentalsHandler) Register(e *echo.Echo) {
	e.GET("/rentals", h.List)
}

// RentalResponse is the API shape of a stored rental. Prices are
// reported in major currency units.
type RentalResponse struct {
	ID            string        `json:"id"`
	DetailURL     string        `json:"detailUrl"`
	Longitude     *float64      `json:"longitude"`
	Latitude      *float64      `json:"latitude"`
	Address       *string       `json:"address"`
	Price         *float64      `json:"price"`
	Bedrooms      *float64      `json:"bedrooms"`
	Bathrooms     *float64      `json:"bathrooms"`
	LivingArea    *float64      `json:"livingArea"`
	PropertyType  *string       `json:"propertyType"`
	Units         []models.Unit `json:"units,omitempty"`
	IngestionDate string        `json:"ingestionDate"`
}

// ListRentalsResponse wraps the rental list with the total stored count
// and the most recent ingestion date.
type ListRentalsResponse struct {
	Data                []RentalResponse `json:"data"`
	Count               int64            `json:"count"`
	LatestIngestionDate *string          `json:"latestIngestionDate"`
}

// List returns stored rentals filtered by price range, search text and
// limit/offset pagination. Price filters arrive in major units.
func (h *RentalsHandler) List(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "RentalsHandler.List")
	defer span.End()

	minPrice, err := queryFloat(c, "minPrice")
	if err != nil {
		return err
	}
	maxPrice, err := queryFloat(c, "maxPrice")
	if err != nil {
		return err
	}
	limit, err := queryInt(c, "limit", 100)
	if err != nil {
		return err
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		return err
	}

	filter := repositories.RentalFilter{
		MinPrice: minPrice,
		MaxPrice: maxPrice,
		Search:   c.QueryParam("search"),
		Limit:    limit,
		Offset:   offset,
	}

	rentals, err := h.rentals.List(ctx, filter)
	if err != nil {
		return err
	}

	count, err := h.rentals.Count(ctx)
	if err != nil {
		return err
	}

	latest, err := h.rentals.LatestIngestionDate(ctx)
	if err != nil {
		return err
	}

	response := ListRentalsResponse{
		Data:  make([]RentalResponse, 0, len(rentals)),
		Count: count,
	}
	if latest != nil {
		formatted := latest.Format("2006-01-02")
		response.LatestIngestionDate = &formatted
	}
	for _, rental := range rentals {
		response.Data = append(response.Data, toRentalResponse(rental))
	}

	return SuccessResponse(c, response)
}

func toRentalResponse(rental models.Rental) RentalResponse {
	response := RentalResponse{
		ID:            rental.ID,
		DetailURL:     rental.DetailURL,
		Units:         rental.Units.GetValue(),
		IngestionDate: rental.IngestionDate.Format("2006-01-02"),
	}

	if rental.Longitude.Valid {
		response.Longitude = &rental.Longitude.Float64
	}
	if rental.Latitude.Valid {
		response.Latitude = &rental.Latitude.Float64
	}
	if rental.Address.Valid {
		response.Address = &rental.Address.String
	}
	if rental.Price.Valid {
		major := models.ToMajorUnits(rental.Price.Int64)
		response.Price = &major
	}
	if rental.Bedrooms.Valid {
		response.Bedrooms = &rental.Bedrooms.Float64
	}
	if rental.Bathrooms.Valid {
		response.Bathrooms = &rental.Bathrooms.Float64
	}
	if rental.LivingArea.Valid {
		response.LivingArea = &rental.LivingArea.Float64
	}
	if rental.PropertyType.Valid {
		response.PropertyType = &rental.PropertyType.String
	}

	return response
}
