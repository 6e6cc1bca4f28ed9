package zillow

import (
	"context"
	"time"
)

// PageIterator walks a location's search result pages lazily. It is
// finite and non-restartable: iteration ends on the first empty page,
// when maxPages have been yielded, or when the payload's declared total
// page count is reached. The inter-page delay runs between fetches,
// never after the last one.
type PageIterator struct {
	client   *Client
	params   SearchParams
	maxPages int
	delay    time.Duration
	page     int
	done     bool
}

// Pages returns an iterator over the search result pages for params.
func (c *Client) Pages(params SearchParams, maxPages int, delay time.Duration) *PageIterator {
	return &PageIterator{
		client:   c,
		params:   params,
		maxPages: maxPages,
		delay:    delay,
	}
}

// Next fetches and returns the next batch of records. It returns
// (nil, nil) once the iterator is exhausted.
func (it *PageIterator) Next(ctx context.Context) ([]map[string]any, error) {
	if it.done {
		return nil, nil
	}

	if it.page > 0 {
		if err := sleep(ctx, it.delay); err != nil {
			it.done = true
			return nil, err
		}
	}

	it.page++
	if it.page > it.maxPages {
		it.done = true
		return nil, nil
	}

	page, err := it.client.FetchPage(ctx, it.params, it.page)
	if err != nil {
		it.done = true
		return nil, err
	}
	if page == nil || len(page.Results) == 0 {
		it.done = true
		return nil, nil
	}

	if it.page >= it.maxPages {
		it.done = true
	}
	if page.TotalPages > 0 && it.page >= page.TotalPages {
		it.done = true
	}

	return page.Results, nil
}
