package domain

import (
	"time"

	"github.com/google/uuid"
)

// RawRecord is one scraped product document as loaded from disk. Shapes
// vary by source site, so values stay untyped until extraction.
type RawRecord map[string]interface{}

// DeterministicFields holds the values recovered from a raw record by
// fixed rules, before any model call. Pointer fields are nil when the
// record had no usable value for them.
type DeterministicFields struct {
	URL          *string  `json:"url,omitempty"`
	Source       *string  `json:"source,omitempty"`
	Title        *string  `json:"title,omitempty"`
	Price        *float64 `json:"price,omitempty"`
	Currency     *string  `json:"currency,omitempty"`
	ImageURLs    []string `json:"image_urls"`
	UPC          *string  `json:"upc,omitempty"`
	MPN          *string  `json:"mpn,omitempty"`
	SellerName   *string  `json:"seller_name,omitempty"`
	ItemLocation *string  `json:"itemLocation,omitempty"`
	Category     *string  `json:"category,omitempty"`
	Rating       *float64 `json:"rating,omitempty"`
	ReviewCount  *float64 `json:"review_count,omitempty"`
	Description  *string  `json:"description,omitempty"`
}

// Map returns the populated fields keyed by their wire names, for use
// as a lookup fallback when model output misses a column.
func (d DeterministicFields) Map() map[string]interface{} {
	out := make(map[string]interface{})
	put := func(key string, v *string) {
		if v != nil {
			out[key] = *v
		}
	}
	put("url", d.URL)
	put("source", d.Source)
	put("title", d.Title)
	if d.Price != nil {
		out["price"] = *d.Price
	}
	put("currency", d.Currency)
	if len(d.ImageURLs) > 0 {
		out["image_urls"] = d.ImageURLs
	}
	put("upc", d.UPC)
	put("mpn", d.MPN)
	put("seller_name", d.SellerName)
	put("itemLocation", d.ItemLocation)
	put("category", d.Category)
	if d.Rating != nil {
		out["rating"] = *d.Rating
	}
	if d.ReviewCount != nil {
		out["review_count"] = *d.ReviewCount
	}
	put("description", d.Description)
	return out
}

// Record pairs a raw input document with its deterministic extraction.
// Ordinal is the record's position in load order and keys its batch
// correlation id.
type Record struct {
	Ordinal       int
	Raw           RawRecord
	Deterministic DeterministicFields
}

// Row is one output row keyed by schema column name, every value
// already rendered to its CSV cell text.
type Row map[string]string

// RunSummary reports what a pipeline run produced.
type RunSummary struct {
	RunID        uuid.UUID     `json:"run_id"`
	TotalRecords int           `json:"total_records"`
	RowsWritten  int           `json:"rows_written"`
	Placeholders int           `json:"placeholders"`
	CacheHits    int           `json:"cache_hits"`
	Retries      int           `json:"retries"`
	AuditIssues  int           `json:"audit_issues"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration"`
}
