// Package search turns a stored criteria document into a bounded listing query.
//
// Criteria are decoded tolerantly: recognized keys with usable values become typed filters,
// everything else (unknown keys, wrong-typed values) lands in Criteria.Ignored and imposes no
// constraint. Decoding never fails.
package search

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Recognized criteria keys.
const (
	KeyCity         = "city"
	KeyState        = "state"
	KeyPropertyType = "property_type"
	KeyListingType  = "listing_type"
	KeyBedrooms     = "bedrooms"
	KeyBathrooms    = "bathrooms"
	KeyIsFurnished  = "is_furnished"
	KeyMinPrice     = "min_price"
	KeyMaxPrice     = "max_price"
	KeyMinArea      = "min_area"
	KeyMaxArea      = "max_area"
	KeySortBy       = "sort_by"
	KeySortOrder    = "sort_order"
)

// Range is an optional numeric interval; either bound may be absent.
type Range struct {
	Min *float64
	Max *float64
}

func (r Range) IsZero() bool { return r.Min == nil && r.Max == nil }

type Criteria struct {
	City         *string
	State        *string
	PropertyType *string
	ListingType  *string
	Bedrooms     *int
	Bathrooms    *int
	IsFurnished  *bool
	Price        Range
	Area         Range
	SortBy       SortField
	SortOrder    SortOrder

	// Ignored holds keys that were not understood, with their raw values.
	Ignored map[string]any
}

// Parse decodes a JSON criteria document. Anything other than a JSON object yields empty criteria.
func Parse(raw []byte) Criteria {
	doc := map[string]any{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		doc = nil
	}
	return FromMap(doc)
}

// FromMap builds criteria from an already decoded document. Values may be JSON-decoded
// (json.Number, float64, bool, string) or raw query-string text.
func FromMap(doc map[string]any) Criteria {
	c := Criteria{SortBy: SortCreatedAt, SortOrder: OrderDesc}
	for key, v := range doc {
		if v == nil {
			continue
		}
		ok := true
		switch key {
		case KeyCity:
			c.City, ok = asString(v)
		case KeyState:
			c.State, ok = asString(v)
		case KeyPropertyType:
			c.PropertyType, ok = asString(v)
		case KeyListingType:
			c.ListingType, ok = asString(v)
		case KeyBedrooms:
			c.Bedrooms, ok = asInt(v)
		case KeyBathrooms:
			c.Bathrooms, ok = asInt(v)
		case KeyIsFurnished:
			c.IsFurnished, ok = asBool(v)
		case KeyMinPrice:
			c.Price.Min, ok = asFloat(v)
		case KeyMaxPrice:
			c.Price.Max, ok = asFloat(v)
		case KeyMinArea:
			c.Area.Min, ok = asFloat(v)
		case KeyMaxArea:
			c.Area.Max, ok = asFloat(v)
		case KeySortBy:
			var s *string
			if s, ok = asString(v); ok {
				c.SortBy, ok = ParseSortField(*s)
			}
		case KeySortOrder:
			var s *string
			if s, ok = asString(v); ok {
				c.SortOrder = ParseSortOrder(*s)
			}
		default:
			ok = false
		}
		if !ok {
			if c.Ignored == nil {
				c.Ignored = map[string]any{}
			}
			c.Ignored[key] = v
		}
	}
	return c
}

func asString(v any) (*string, bool) {
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case json.Number:
		s = t.String()
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		s = strconv.FormatBool(t)
	default:
		return nil, false
	}
	return &s, true
}

func asFloat(v any) (*float64, bool) {
	var f float64
	var err error
	switch t := v.(type) {
	case json.Number:
		f, err = t.Float64()
	case float64:
		f = t
	case int:
		f = float64(t)
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(t), 64)
	default:
		return nil, false
	}
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, false
	}
	return &f, true
}

// asInt rejects fractions, so bedrooms: 2.5 drops the filter and widens the match.
func asInt(v any) (*int, bool) {
	f, ok := asFloat(v)
	if !ok || *f != math.Trunc(*f) || math.Abs(*f) > math.MaxInt32 {
		return nil, false
	}
	n := int(*f)
	return &n, true
}

// asBool accepts only boolean forms; "yes" drops the filter and widens the match.
func asBool(v any) (*bool, bool) {
	var b bool
	switch t := v.(type) {
	case bool:
		b = t
	case json.Number:
		switch t.String() {
		case "1":
			b = true
		case "0":
		default:
			return nil, false
		}
	case float64:
		switch t {
		case 1:
			b = true
		case 0:
		default:
			return nil, false
		}
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "1", "true":
			b = true
		case "0", "false":
		default:
			return nil, false
		}
	default:
		return nil, false
	}
	return &b, true
}
