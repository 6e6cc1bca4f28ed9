package ingest

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/zach-wendland/bna-rentals/pkg/models"
	"github.com/zach-wendland/bna-rentals/pkg/normalize"
	"github.com/zach-wendland/bna-rentals/pkg/tracing"
	"github.com/zach-wendland/bna-rentals/pkg/zillow"
)

// Collector drives the page iterator across a list of search locations
// and normalizes everything it gathers in one pass.
type Collector struct {
	client     *zillow.Client
	normalizer *normalize.Normalizer
	logger     ectologger.Logger
}

func NewCollector(client *zillow.Client, normalizer *normalize.Normalizer, logger ectologger.Logger) *Collector {
	return &Collector{
		client:     client,
		normalizer: normalizer,
		logger:     logger,
	}
}

// Collect fetches every page for every location in the order given and
// returns the validated properties. A location with no matches yields
// zero records and the collection continues; any fetch error aborts the
// whole collection. The raw record count is returned alongside the
// properties since invalid records are dropped during normalization.
func (c *Collector) Collect(ctx context.Context, params zillow.SearchParams, locations []string, maxPages int, delay time.Duration) ([]models.Property, int, error) {
	ctx, span := tracing.StartSpan(ctx, "Collector.Collect")
	defer span.End()

	var records []map[string]any
	for _, location := range locations {
		it := c.client.Pages(params.WithLocation(location), maxPages, delay)
		collected := 0
		for {
			batch, err := it.Next(ctx)
			if err != nil {
				return nil, 0, err
			}
			if batch == nil {
				break
			}
			records = append(records, batch...)
			collected += len(batch)
		}

		c.logger.WithContext(ctx).WithFields(map[string]any{
			"location": location,
			"records":  collected,
		}).Info("Collected listings for location")
	}

	return c.normalizer.ToProperties(records), len(records), nil
}
