package search

import (
	"fmt"

	"estatehub/internal/domain"

	"gorm.io/gorm"
)

// Column is a listings column the engine may reference. Conditions only ever name these.
type Column string

const (
	ColumnStatus       Column = "status"
	ColumnCity         Column = "city"
	ColumnState        Column = "state"
	ColumnPropertyType Column = "property_type"
	ColumnListingType  Column = "listing_type"
	ColumnBedrooms     Column = "bedrooms"
	ColumnBathrooms    Column = "bathrooms"
	ColumnIsFurnished  Column = "is_furnished"
	ColumnPrice        Column = "price"
	ColumnArea         Column = "area"
	ColumnCreatedAt    Column = "created_at"
	ColumnID           Column = "id"
)

type Operator int

const (
	OpEq Operator = iota
	OpGte
	OpLte
	OpBetween // inclusive, Args = [min, max]
)

type Condition struct {
	Column Column
	Op     Operator
	Args   []any
}

func (c Condition) sql() string {
	switch c.Op {
	case OpGte:
		return fmt.Sprintf("%s >= ?", c.Column)
	case OpLte:
		return fmt.Sprintf("%s <= ?", c.Column)
	case OpBetween:
		return fmt.Sprintf("%s BETWEEN ? AND ?", c.Column)
	default:
		return fmt.Sprintf("%s = ?", c.Column)
	}
}

// Plan is the bounded set of conditions and ordering derived from Criteria.
type Plan struct {
	Conditions []Condition
	SortBy     SortField
	SortOrder  SortOrder
}

// Plan translates the criteria. Only active listings are eligible; each present exact-match
// filter adds one equality; each range adds BETWEEN when both bounds exist, else a one-sided bound.
func (c Criteria) Plan() Plan {
	p := Plan{SortBy: c.SortBy, SortOrder: c.SortOrder}
	p.add(ColumnStatus, OpEq, domain.ListingStatusActive)

	for _, f := range []struct {
		col Column
		val *string
	}{
		{ColumnCity, c.City},
		{ColumnState, c.State},
		{ColumnPropertyType, c.PropertyType},
		{ColumnListingType, c.ListingType},
	} {
		if f.val != nil {
			p.add(f.col, OpEq, *f.val)
		}
	}
	if c.Bedrooms != nil {
		p.add(ColumnBedrooms, OpEq, *c.Bedrooms)
	}
	if c.Bathrooms != nil {
		p.add(ColumnBathrooms, OpEq, *c.Bathrooms)
	}
	if c.IsFurnished != nil {
		p.add(ColumnIsFurnished, OpEq, *c.IsFurnished)
	}
	p.addRange(ColumnPrice, c.Price)
	p.addRange(ColumnArea, c.Area)
	return p
}

func (p *Plan) add(col Column, op Operator, args ...any) {
	p.Conditions = append(p.Conditions, Condition{Column: col, Op: op, Args: args})
}

func (p *Plan) addRange(col Column, r Range) {
	switch {
	case r.Min != nil && r.Max != nil:
		p.add(col, OpBetween, *r.Min, *r.Max)
	case r.Min != nil:
		p.add(col, OpGte, *r.Min)
	case r.Max != nil:
		p.add(col, OpLte, *r.Max)
	}
}

// Filter applies the conditions only, for counting.
func (p Plan) Filter(tx *gorm.DB) *gorm.DB {
	for _, c := range p.Conditions {
		tx = tx.Where(c.sql(), c.Args...)
	}
	return tx
}

// Apply applies conditions and ordering. id breaks ties so pages are stable.
func (p Plan) Apply(tx *gorm.DB) *gorm.DB {
	dir := p.SortOrder.String()
	return p.Filter(tx).
		Order(fmt.Sprintf("%s %s", p.SortBy.Column(), dir)).
		Order(fmt.Sprintf("%s %s", ColumnID, dir))
}
