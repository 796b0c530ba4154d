// Package extract derives the deterministic field subset from raw
// scraped records.
package extract

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"prodnorm/internal/domain"
)

var (
	numberRe  = regexp.MustCompile(`[-+]?[0-9]{1,3}(?:[0-9,]*)(?:\.[0-9]+)?`)
	isoCodeRe = regexp.MustCompile(`\b[A-Z]{3}\b`)
	symbolRe  = regexp.MustCompile(`[$€£¥]`)
)

var currencySymbols = map[string]string{
	"$": "USD",
	"€": "EUR",
	"£": "GBP",
	"¥": "JPY",
}

// Fields computes the deterministic extraction for one raw record. It
// is total: unresolvable fields stay nil and malformed values never
// panic. Alias chains take the first non-falsy value, mirroring the
// source dumps where empty strings and zeros mean "absent".
func Fields(raw domain.RawRecord) domain.DeterministicFields {
	var det domain.DeterministicFields

	det.URL = stringValue(firstSet(raw, "url", "link", "product_url", "itemUrl"))
	if det.URL != nil {
		if u, err := url.Parse(*det.URL); err == nil && u.Host != "" {
			host := u.Host
			det.Source = &host
		}
	} else {
		det.Source = stringValue(firstSet(raw, "source", "site"))
	}

	det.Title = stringValue(firstSet(raw, "title", "name"))
	det.Price, det.Currency = price(raw)
	det.ImageURLs = imageURLs(raw)
	det.UPC = stringValue(firstSet(raw, "upc", "ean"))
	det.MPN = stringValue(firstSet(raw, "mpn"))
	det.SellerName = stringValue(firstSet(raw, "seller", "sellerName"))
	det.ItemLocation = stringValue(firstSet(raw, "itemLocation", "location"))
	det.Category = category(raw)
	det.Rating = floatValue(firstSet(raw, "rating", "averageRating"))
	det.ReviewCount = floatValue(firstSet(raw, "review_count", "reviews"))
	det.Description = stringValue(firstSet(raw, "description", "subTitle", "details"))

	return det
}

// price prefers a dedicated price field, with currency taken from its
// sibling keys. Without one it parses a combined "US $24.95/ea" style
// string: first numeric substring as the amount, an ISO token or a
// currency symbol as the currency.
func price(raw domain.RawRecord) (*float64, *string) {
	if v, ok := raw["price"]; ok && v != nil {
		var amount *float64
		switch n := v.(type) {
		case float64:
			amount = &n
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
				amount = &f
			}
		}
		return amount, stringValue(firstSet(raw, "currency", "priceCurrency"))
	}

	combined := stringValue(firstSet(raw, "priceWithCurrency", "price_with_currency"))
	if combined == nil {
		return nil, nil
	}

	var amount *float64
	if m := numberRe.FindString(strings.ReplaceAll(*combined, ",", "")); m != "" {
		if f, err := strconv.ParseFloat(m, 64); err == nil {
			amount = &f
		}
	}

	var currency *string
	if code := isoCodeRe.FindString(*combined); code != "" {
		currency = &code
	} else if sym := symbolRe.FindString(*combined); sym != "" {
		if code, ok := currencySymbols[sym]; ok {
			currency = &code
		}
	}
	return amount, currency
}

// imageURLs always returns a non-nil slice. A list keeps its string
// elements, a bare string becomes a one-element list, anything else is
// empty.
func imageURLs(raw domain.RawRecord) []string {
	switch v := firstSet(raw, "images", "image", "image_urls", "photos").(type) {
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return []string{v}
	default:
		return []string{}
	}
}

func category(raw domain.RawRecord) *string {
	switch v := firstSet(raw, "categories", "category").(type) {
	case []interface{}:
		if len(v) == 0 {
			return nil
		}
		return stringValue(v[0])
	default:
		return stringValue(v)
	}
}

// firstSet walks the alias keys in order and returns the first value
// that is not JSON-falsy (nil, "", 0, false, empty list or object).
func firstSet(raw domain.RawRecord, keys ...string) interface{} {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case nil:
			continue
		case string:
			if t == "" {
				continue
			}
		case float64:
			if t == 0 {
				continue
			}
		case bool:
			if !t {
				continue
			}
		case []interface{}:
			if len(t) == 0 {
				continue
			}
		case map[string]interface{}:
			if len(t) == 0 {
				continue
			}
		}
		return v
	}
	return nil
}

func stringValue(v interface{}) *string {
	switch t := v.(type) {
	case string:
		if t != "" {
			return &t
		}
	case float64:
		s := strconv.FormatFloat(t, 'f', -1, 64)
		return &s
	}
	return nil
}

func floatValue(v interface{}) *float64 {
	switch t := v.(type) {
	case float64:
		return &t
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return &f
		}
	}
	return nil
}
