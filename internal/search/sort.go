package search

// SortField is the closed set of columns a saved search may order by.
type SortField int

const (
	SortCreatedAt SortField = iota
	SortPrice
	SortArea
	SortBedrooms
)

var sortFieldNames = map[string]SortField{
	"created_at": SortCreatedAt,
	"price":      SortPrice,
	"area":       SortArea,
	"bedrooms":   SortBedrooms,
}

// ParseSortField reports false for names outside the allow-list; the field is then SortCreatedAt.
func ParseSortField(name string) (SortField, bool) {
	f, ok := sortFieldNames[name]
	if !ok {
		return SortCreatedAt, false
	}
	return f, true
}

func (f SortField) Column() Column {
	switch f {
	case SortPrice:
		return ColumnPrice
	case SortArea:
		return ColumnArea
	case SortBedrooms:
		return ColumnBedrooms
	default:
		return ColumnCreatedAt
	}
}

func (f SortField) String() string { return string(f.Column()) }

type SortOrder int

const (
	OrderDesc SortOrder = iota
	OrderAsc
)

// ParseSortOrder treats anything but the literal "asc" as descending.
func ParseSortOrder(s string) SortOrder {
	if s == "asc" {
		return OrderAsc
	}
	return OrderDesc
}

func (o SortOrder) String() string {
	if o == OrderAsc {
		return "asc"
	}
	return "desc"
}
