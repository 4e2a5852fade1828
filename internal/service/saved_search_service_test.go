package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"estatehub/internal/apperr"
	"estatehub/internal/domain"
	"estatehub/internal/models"
	"estatehub/internal/search"
)

type memSavedSearches struct {
	mu     sync.Mutex
	rows   map[uint]models.SavedSearch
	nextID uint
	now    time.Time
	err    error
}

func newMemSavedSearches() *memSavedSearches {
	return &memSavedSearches{rows: map[uint]models.SavedSearch{}, now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (m *memSavedSearches) Create(_ context.Context, s *models.SavedSearch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.nextID++
	m.now = m.now.Add(time.Minute)
	s.ID, s.CreatedAt, s.UpdatedAt = m.nextID, m.now, m.now
	m.rows[s.ID] = *s
	return nil
}

func (m *memSavedSearches) GetByID(_ context.Context, id uint) (*models.SavedSearch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &s, nil
}

func (m *memSavedSearches) ListByUserID(_ context.Context, userID uint, limit, offset int) ([]models.SavedSearch, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []models.SavedSearch
	for _, s := range m.rows {
		if s.UserID == userID {
			all = append(all, s)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := int64(len(all))
	if offset >= len(all) {
		return []models.SavedSearch{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *memSavedSearches) Update(_ context.Context, s *models.SavedSearch, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row := m.rows[s.ID]
	for k, v := range fields {
		switch k {
		case "name":
			row.Name = v.(string)
		case "criteria":
			row.Criteria = v.(datatypes.JSON)
		case "notification_frequency":
			if v == nil {
				row.NotificationFrequency = nil
			} else {
				f := v.(string)
				row.NotificationFrequency = &f
			}
		case "is_active":
			row.IsActive = v.(bool)
		}
	}
	m.rows[s.ID] = row
	*s = row
	return nil
}

func (m *memSavedSearches) Delete(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

// memListings evaluates plans in memory with the same semantics as the SQL rendering.
type memListings struct {
	rows    []models.Listing
	calls   int
	offsets []int
}

func (m *memListings) Search(_ context.Context, plan search.Plan, limit, offset int) ([]models.Listing, int64, error) {
	m.calls++
	m.offsets = append(m.offsets, offset)
	var hits []models.Listing
	for _, l := range m.rows {
		if matches(l, plan.Conditions) {
			hits = append(hits, l)
		}
	}
	asc := plan.SortOrder == search.OrderAsc
	sort.SliceStable(hits, func(i, j int) bool {
		a, b := sortKey(hits[i], plan.SortBy), sortKey(hits[j], plan.SortBy)
		if a == b {
			a, b = float64(hits[i].ID), float64(hits[j].ID)
		}
		if asc {
			return a < b
		}
		return a > b
	})
	total := int64(len(hits))
	if offset >= len(hits) {
		return []models.Listing{}, total, nil
	}
	end := offset + limit
	if end > len(hits) {
		end = len(hits)
	}
	return hits[offset:end], total, nil
}

func sortKey(l models.Listing, f search.SortField) float64 {
	switch f {
	case search.SortPrice:
		return l.Price
	case search.SortArea:
		return l.Area
	case search.SortBedrooms:
		return float64(l.Bedrooms)
	default:
		return float64(l.CreatedAt.Unix())
	}
}

func value(l models.Listing, col search.Column) any {
	switch col {
	case search.ColumnStatus:
		return l.Status
	case search.ColumnCity:
		return l.City
	case search.ColumnState:
		return l.State
	case search.ColumnPropertyType:
		return l.PropertyType
	case search.ColumnListingType:
		return l.ListingType
	case search.ColumnBedrooms:
		return l.Bedrooms
	case search.ColumnBathrooms:
		return l.Bathrooms
	case search.ColumnIsFurnished:
		return l.IsFurnished
	case search.ColumnPrice:
		return l.Price
	case search.ColumnArea:
		return l.Area
	}
	return nil
}

func matches(l models.Listing, conds []search.Condition) bool {
	for _, c := range conds {
		v := value(l, c.Column)
		switch c.Op {
		case search.OpEq:
			if v != c.Args[0] {
				return false
			}
		case search.OpGte:
			if v.(float64) < c.Args[0].(float64) {
				return false
			}
		case search.OpLte:
			if v.(float64) > c.Args[0].(float64) {
				return false
			}
		case search.OpBetween:
			f := v.(float64)
			if f < c.Args[0].(float64) || f > c.Args[1].(float64) {
				return false
			}
		}
	}
	return true
}

func listing(id uint, city string, price, area float64, status string) models.Listing {
	return models.Listing{
		ID: id, City: city, Price: price, Area: area, Status: status,
		CreatedAt: time.Date(2024, 3, 1, 0, 0, int(id), 0, time.UTC),
	}
}

func newTestService(rows ...models.Listing) (*SavedSearchService, *memSavedSearches, *memListings) {
	store := newMemSavedSearches()
	listings := &memListings{rows: rows}
	return NewSavedSearchService(store, listings, nil), store, listings
}

func mustCreate(t *testing.T, svc *SavedSearchService, owner uint, body string) *models.SavedSearch {
	t.Helper()
	rec, err := svc.Create(context.Background(), owner, DecodeSavedSearchInput([]byte(body)))
	require.NoError(t, err)
	return rec
}

func fieldsOf(t *testing.T, err error) map[string][]string {
	t.Helper()
	var appErr *apperr.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	require.True(t, apperr.IsValidation(err))
	return appErr.Fields
}

func TestCreate_StoresSubmittedRecord(t *testing.T) {
	svc, _, _ := newTestService()

	rec := mustCreate(t, svc, 1, `{"name":"  Cairo flats ","criteria":{"city":"Cairo","bogus":[1]},"notification_frequency":"weekly"}`)

	assert.NotZero(t, rec.ID)
	assert.Equal(t, uint(1), rec.UserID)
	assert.Equal(t, "Cairo flats", rec.Name)
	assert.JSONEq(t, `{"city":"Cairo","bogus":[1]}`, string(rec.Criteria))
	require.NotNil(t, rec.NotificationFrequency)
	assert.Equal(t, "weekly", *rec.NotificationFrequency)
	assert.True(t, rec.IsActive)
}

func TestCreate_IgnoresSubmittedIsActive(t *testing.T) {
	svc, _, _ := newTestService()
	rec := mustCreate(t, svc, 1, `{"name":"x","criteria":{"city":"Cairo"},"is_active":false}`)
	assert.True(t, rec.IsActive)
}

func TestCreate_Validation(t *testing.T) {
	long := make([]byte, 256)
	for i := range long {
		long[i] = 'a'
	}
	tests := []struct {
		name  string
		body  string
		field string
		msg   string
	}{
		{"missing name", `{"criteria":{"city":"Cairo"}}`, "name", "The name field is required."},
		{"blank name", `{"name":"   ","criteria":{"city":"Cairo"}}`, "name", "The name field is required."},
		{"numeric name", `{"name":5,"criteria":{"city":"Cairo"}}`, "name", "The name must be a string."},
		{"long name", `{"name":"` + string(long) + `","criteria":{"city":"Cairo"}}`, "name", "The name may not be greater than 255 characters."},
		{"missing criteria", `{"name":"x"}`, "criteria", "The criteria field is required."},
		{"empty criteria", `{"name":"x","criteria":{}}`, "criteria", "The criteria field is required."},
		{"string criteria", `{"name":"x","criteria":"city=Cairo"}`, "criteria", "The criteria must be an array."},
		{"bad frequency", `{"name":"x","criteria":{"a":1},"notification_frequency":"hourly"}`, "notification_frequency", "The selected notification frequency is invalid."},
		{"not an object", `[1,2]`, "name", "The name field is required."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, _ := newTestService()
			_, err := svc.Create(context.Background(), 1, DecodeSavedSearchInput([]byte(tt.body)))

			require.Error(t, err)
			assert.Equal(t, []string{tt.msg}, fieldsOf(t, err)[tt.field])
			assert.Empty(t, store.rows)
		})
	}
}

func TestCreate_NameLengthCountsCharacters(t *testing.T) {
	svc, _, _ := newTestService()
	name := ""
	for i := 0; i < 255; i++ {
		name += "é"
	}
	rec := mustCreate(t, svc, 1, `{"name":"`+name+`","criteria":{"city":"Cairo"}}`)
	assert.Equal(t, name, rec.Name)
}

func TestCreate_NullFrequencyAllowed(t *testing.T) {
	svc, _, _ := newTestService()
	rec := mustCreate(t, svc, 1, `{"name":"x","criteria":{"city":"Cairo"},"notification_frequency":null}`)
	assert.Nil(t, rec.NotificationFrequency)
}

func TestCreate_AcceptsEveryNotificationFrequency(t *testing.T) {
	svc, _, _ := newTestService()
	for _, f := range domain.NotificationFrequencies {
		rec := mustCreate(t, svc, 1, `{"name":"x","criteria":{"city":"Cairo"},"notification_frequency":"`+f+`"}`)
		require.NotNil(t, rec.NotificationFrequency, f)
		assert.Equal(t, f, *rec.NotificationFrequency)
	}
}

func TestCreate_StoreFailureIsInternal(t *testing.T) {
	svc, store, _ := newTestService()
	store.err = errors.New("connection refused")

	_, err := svc.Create(context.Background(), 1, DecodeSavedSearchInput([]byte(`{"name":"x","criteria":{"a":1}}`)))

	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrInternal)
	assert.NotContains(t, apperr.From(err).Message, "refused")
}

func TestList_OwnerOnlyNewestFirst(t *testing.T) {
	svc, _, _ := newTestService()
	first := mustCreate(t, svc, 1, `{"name":"first","criteria":{"a":1}}`)
	mustCreate(t, svc, 2, `{"name":"other","criteria":{"a":1}}`)
	second := mustCreate(t, svc, 1, `{"name":"second","criteria":{"a":1}}`)

	page, err := svc.List(context.Background(), 1, 1)

	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, second.ID, page.Items[0].ID)
	assert.Equal(t, first.ID, page.Items[1].ID)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, 10, page.PerPage)
	assert.Equal(t, 1, page.LastPage)
}

func TestList_Pagination(t *testing.T) {
	svc, _, _ := newTestService()
	for i := 0; i < 12; i++ {
		mustCreate(t, svc, 1, `{"name":"s","criteria":{"a":1}}`)
	}

	page, err := svc.List(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 2, page.CurrentPage)
	assert.Equal(t, 2, page.LastPage)

	empty, err := svc.List(context.Background(), 7, 0)
	require.NoError(t, err)
	assert.Empty(t, empty.Items)
	assert.NotNil(t, empty.Items)
	assert.Equal(t, 1, empty.CurrentPage)
	assert.Equal(t, 1, empty.LastPage)
}

func TestGet_OwnershipAndExistence(t *testing.T) {
	svc, _, _ := newTestService()
	rec := mustCreate(t, svc, 1, `{"name":"mine","criteria":{"city":"Cairo"}}`)

	got, err := svc.Get(context.Background(), 1, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	_, err = svc.Get(context.Background(), 2, rec.ID)
	assert.True(t, apperr.IsForbidden(err))

	_, err = svc.Get(context.Background(), 2, 999)
	assert.True(t, apperr.IsNotFound(err))
}

func TestUpdate_PartialLeavesOtherFields(t *testing.T) {
	svc, _, _ := newTestService()
	rec := mustCreate(t, svc, 1, `{"name":"keep","criteria":{"city":"Cairo"},"notification_frequency":"daily"}`)

	got, err := svc.Update(context.Background(), 1, rec.ID, DecodeSavedSearchInput([]byte(`{"is_active":false}`)))

	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.Equal(t, "keep", got.Name)
	assert.JSONEq(t, `{"city":"Cairo"}`, string(got.Criteria))
	require.NotNil(t, got.NotificationFrequency)
	assert.Equal(t, "daily", *got.NotificationFrequency)
}

func TestUpdate_ClearsFrequencyWithNull(t *testing.T) {
	svc, _, _ := newTestService()
	rec := mustCreate(t, svc, 1, `{"name":"x","criteria":{"a":1},"notification_frequency":"daily"}`)

	got, err := svc.Update(context.Background(), 1, rec.ID, DecodeSavedSearchInput([]byte(`{"notification_frequency":null}`)))

	require.NoError(t, err)
	assert.Nil(t, got.NotificationFrequency)
}

func TestUpdate_Validation(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
		msg   string
	}{
		{"empty name", `{"name":""}`, "name", "The name field is required."},
		{"null criteria", `{"criteria":null}`, "criteria", "The criteria field is required."},
		{"array criteria", `{"criteria":[1]}`, "criteria", "The criteria must be an array."},
		{"string is_active", `{"is_active":"yes"}`, "is_active", "The is active field must be true or false."},
		{"null is_active", `{"is_active":null}`, "is_active", "The is active field must be true or false."},
		{"bad frequency", `{"notification_frequency":"monthly"}`, "notification_frequency", "The selected notification frequency is invalid."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, _ := newTestService()
			rec := mustCreate(t, svc, 1, `{"name":"x","criteria":{"a":1}}`)

			_, err := svc.Update(context.Background(), 1, rec.ID, DecodeSavedSearchInput([]byte(tt.body)))

			require.Error(t, err)
			assert.Equal(t, []string{tt.msg}, fieldsOf(t, err)[tt.field])
			assert.Equal(t, "x", store.rows[rec.ID].Name)
		})
	}
}

func TestUpdate_BooleanForms(t *testing.T) {
	svc, _, _ := newTestService()
	rec := mustCreate(t, svc, 1, `{"name":"x","criteria":{"a":1}}`)

	for body, want := range map[string]bool{`{"is_active":0}`: false, `{"is_active":"1"}`: true, `{"is_active":"0"}`: false, `{"is_active":1}`: true} {
		got, err := svc.Update(context.Background(), 1, rec.ID, DecodeSavedSearchInput([]byte(body)))
		require.NoError(t, err, body)
		assert.Equal(t, want, got.IsActive, body)
	}
}

func TestUpdate_ForbiddenBeforeValidation(t *testing.T) {
	svc, _, _ := newTestService()
	rec := mustCreate(t, svc, 1, `{"name":"x","criteria":{"a":1}}`)

	_, err := svc.Update(context.Background(), 2, rec.ID, DecodeSavedSearchInput([]byte(`{"name":""}`)))
	assert.True(t, apperr.IsForbidden(err))

	_, err = svc.Update(context.Background(), 1, 404, DecodeSavedSearchInput([]byte(`{"name":"y"}`)))
	assert.True(t, apperr.IsNotFound(err))
}

func TestDelete(t *testing.T) {
	svc, store, _ := newTestService()
	rec := mustCreate(t, svc, 1, `{"name":"x","criteria":{"a":1}}`)

	err := svc.Delete(context.Background(), 2, rec.ID)
	assert.True(t, apperr.IsForbidden(err))
	assert.Contains(t, store.rows, rec.ID)

	require.NoError(t, svc.Delete(context.Background(), 1, rec.ID))
	assert.NotContains(t, store.rows, rec.ID)

	_, err = svc.Get(context.Background(), 1, rec.ID)
	assert.True(t, apperr.IsNotFound(err))
}

func TestExecute_CairoAreaSortedByPrice(t *testing.T) {
	svc, _, _ := newTestService(
		listing(1, "Cairo", 300000, 90, "active"),
		listing(2, "Cairo", 150000, 120, "active"),
		listing(3, "Cairo", 100000, 200, "active"),
		listing(4, "Cairo", 50000, 100, "pending"),
		listing(5, "Giza", 60000, 100, "active"),
	)
	rec := mustCreate(t, svc, 1, `{"name":"c","criteria":{"city":"Cairo","min_area":80,"max_area":150,"sort_by":"price","sort_order":"asc"}}`)

	page, err := svc.Execute(context.Background(), 1, rec.ID, 1)

	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, uint(2), page.Items[0].ID)
	assert.Equal(t, uint(1), page.Items[1].ID)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, 15, page.PerPage)
}

func TestExecute_PriceRangeInclusive(t *testing.T) {
	svc, _, _ := newTestService(
		listing(1, "Cairo", 99999, 50, "active"),
		listing(2, "Cairo", 100000, 50, "active"),
		listing(3, "Cairo", 300000, 50, "active"),
		listing(4, "Cairo", 300001, 50, "active"),
	)
	rec := mustCreate(t, svc, 1, `{"name":"p","criteria":{"min_price":100000,"max_price":300000}}`)

	page, err := svc.Execute(context.Background(), 1, rec.ID, 1)

	require.NoError(t, err)
	var ids []uint
	for _, l := range page.Items {
		ids = append(ids, l.ID)
	}
	assert.ElementsMatch(t, []uint{2, 3}, ids)
}

func TestExecute_UnknownSortFallsBackToNewest(t *testing.T) {
	svc, _, _ := newTestService(
		listing(1, "Cairo", 1, 1, "active"),
		listing(2, "Cairo", 2, 1, "active"),
		listing(3, "Cairo", 3, 1, "active"),
	)
	rec := mustCreate(t, svc, 1, `{"name":"s","criteria":{"sort_by":"unknown_field"}}`)

	page, err := svc.Execute(context.Background(), 1, rec.ID, 1)

	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	assert.Equal(t, []uint{3, 2, 1}, []uint{page.Items[0].ID, page.Items[1].ID, page.Items[2].ID})
}

func TestExecute_MalformedCriteriaNeverFails(t *testing.T) {
	svc, store, _ := newTestService(listing(1, "Cairo", 1, 1, "active"))
	rec := mustCreate(t, svc, 1, `{"name":"m","criteria":{"min_price":"cheap","bedrooms":{"x":1},"colour":"blue"}}`)

	page, err := svc.Execute(context.Background(), 1, rec.ID, 1)
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)

	row := store.rows[rec.ID]
	row.Criteria = []byte(`not json`)
	store.rows[rec.ID] = row
	page, err = svc.Execute(context.Background(), 1, rec.ID, 1)
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
}

func TestExecute_NonOwnerQueriesNothing(t *testing.T) {
	svc, _, listings := newTestService(listing(1, "Cairo", 1, 1, "active"))
	rec := mustCreate(t, svc, 1, `{"name":"x","criteria":{"city":"Cairo"}}`)

	_, err := svc.Execute(context.Background(), 2, rec.ID, 1)

	assert.True(t, apperr.IsForbidden(err))
	assert.Zero(t, listings.calls)
}

func TestExecute_Idempotent(t *testing.T) {
	svc, _, _ := newTestService(
		listing(1, "Cairo", 5, 1, "active"),
		listing(2, "Cairo", 5, 1, "active"),
		listing(3, "Cairo", 7, 1, "active"),
	)
	rec := mustCreate(t, svc, 1, `{"name":"x","criteria":{"sort_by":"price"}}`)

	a, err := svc.Execute(context.Background(), 1, rec.ID, 1)
	require.NoError(t, err)
	b, err := svc.Execute(context.Background(), 1, rec.ID, 1)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, []uint{3, 2, 1}, []uint{a.Items[0].ID, a.Items[1].ID, a.Items[2].ID})
}

func TestSearch_AdHocCriteria(t *testing.T) {
	svc, _, _ := newTestService(listing(1, "Cairo", 1, 1, "active"), listing(2, "Giza", 1, 1, "active"))

	page, err := svc.Search(context.Background(), search.FromMap(map[string]any{"city": "Giza"}), 1)

	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, uint(2), page.Items[0].ID)
}

func TestNewPageAndParsePage(t *testing.T) {
	assert.Equal(t, 1, NewPage([]int{}, 0, 10, 1).LastPage)
	assert.Equal(t, 1, NewPage([]int{}, 10, 10, 1).LastPage)
	assert.Equal(t, 2, NewPage([]int{}, 11, 10, 1).LastPage)
	assert.NotNil(t, NewPage[int](nil, 0, 10, 1).Items)

	assert.Equal(t, 1, ParsePage(""))
	assert.Equal(t, 1, ParsePage("abc"))
	assert.Equal(t, 1, ParsePage("-3"))
	assert.Equal(t, 4, ParsePage("4"))
	assert.Equal(t, MaxPage, ParsePage("4611686018427387904"))
	assert.Equal(t, 1, ParsePage("99999999999999999999"))

	assert.Equal(t, 0, Offset(0, 15))
	assert.Equal(t, (MaxPage-1)*15, Offset(1<<62, 15))
}

func TestExecute_HugePageIsEmptyNotWrapped(t *testing.T) {
	svc, _, listings := newTestService(listing(1, "Cairo", 1, 1, "active"))
	rec := mustCreate(t, svc, 1, `{"name":"c","criteria":{"city":"Cairo"}}`)

	page, err := svc.Execute(context.Background(), 1, rec.ID, ParsePage("4611686018427387904"))

	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, MaxPage, page.CurrentPage)
	require.Len(t, listings.offsets, 1)
	assert.Equal(t, (MaxPage-1)*15, listings.offsets[0])
}
