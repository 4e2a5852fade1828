package service

import (
	"context"
	"errors"
	"strconv"

	"estatehub/internal/apperr"
	"estatehub/internal/domain"
	"estatehub/internal/metrics"
	"estatehub/internal/models"
	"estatehub/internal/search"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SavedSearchStore persists saved searches. GetByID must return gorm.ErrRecordNotFound for a missing id.
type SavedSearchStore interface {
	Create(ctx context.Context, s *models.SavedSearch) error
	GetByID(ctx context.Context, id uint) (*models.SavedSearch, error)
	ListByUserID(ctx context.Context, userID uint, limit, offset int) ([]models.SavedSearch, int64, error)
	Update(ctx context.Context, s *models.SavedSearch, fields map[string]any) error
	Delete(ctx context.Context, id uint) error
}

// ListingSearcher runs a query plan against listings.
type ListingSearcher interface {
	Search(ctx context.Context, plan search.Plan, limit, offset int) ([]models.Listing, int64, error)
}

// Page is one page of results plus the numbers a client needs to walk the rest.
type Page[T any] struct {
	Items       []T   `json:"data"`
	Total       int64 `json:"total"`
	PerPage     int   `json:"per_page"`
	CurrentPage int   `json:"current_page"`
	LastPage    int   `json:"last_page"`
}

func NewPage[T any](items []T, total int64, perPage, page int) Page[T] {
	if items == nil {
		items = []T{}
	}
	last := int((total + int64(perPage) - 1) / int64(perPage))
	if last < 1 {
		last = 1
	}
	return Page[T]{Items: items, Total: total, PerPage: perPage, CurrentPage: page, LastPage: last}
}

// MaxPage bounds page numbers so (page-1)*perPage cannot overflow.
const MaxPage = 1_000_000

// ParsePage reads a ?page= value. Missing, unparsable or non-positive values mean page 1;
// values above MaxPage mean MaxPage.
func ParsePage(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 1
	}
	return clampPage(n)
}

func clampPage(page int) int {
	switch {
	case page < 1:
		return 1
	case page > MaxPage:
		return MaxPage
	}
	return page
}

// Offset is the row offset of page, after clamping it to [1, MaxPage].
func Offset(page, perPage int) int {
	return (clampPage(page) - 1) * perPage
}

type SavedSearchService struct {
	store    SavedSearchStore
	listings ListingSearcher
	log      *zap.Logger
}

func NewSavedSearchService(store SavedSearchStore, listings ListingSearcher, log *zap.Logger) *SavedSearchService {
	if log == nil {
		log = zap.NewNop()
	}
	return &SavedSearchService{store: store, listings: listings, log: log}
}

func (s *SavedSearchService) Create(ctx context.Context, ownerID uint, in SavedSearchInput) (*models.SavedSearch, error) {
	if err := in.validateCreate(); err != nil {
		return nil, err
	}
	rec := &models.SavedSearch{
		UserID:                ownerID,
		Name:                  *in.Name,
		Criteria:              datatypes.JSON(in.Criteria),
		NotificationFrequency: in.NotificationFrequency,
		IsActive:              true,
	}
	if err := s.store.Create(ctx, rec); err != nil {
		return nil, s.internal(ctx, "create saved search", err, zap.Uint("user_id", ownerID))
	}
	s.log.Info("Saved search created", zap.Uint("id", rec.ID), zap.Uint("user_id", ownerID))
	return rec, nil
}

func (s *SavedSearchService) List(ctx context.Context, ownerID uint, page int) (Page[models.SavedSearch], error) {
	page = clampPage(page)
	per := domain.SavedSearchPerPage
	items, total, err := s.store.ListByUserID(ctx, ownerID, per, Offset(page, per))
	if err != nil {
		return Page[models.SavedSearch]{}, s.internal(ctx, "list saved searches", err, zap.Uint("user_id", ownerID))
	}
	return NewPage(items, total, per, page), nil
}

// Get returns NotFound for a missing id before it checks ownership.
func (s *SavedSearchService) Get(ctx context.Context, ownerID, id uint) (*models.SavedSearch, error) {
	rec, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NewNotFoundError("Saved search", id)
		}
		return nil, s.internal(ctx, "load saved search", err, zap.Uint("id", id))
	}
	if rec.UserID != ownerID {
		s.log.Warn("Saved search access denied", zap.Uint("id", id), zap.Uint("user_id", ownerID))
		return nil, apperr.NewForbiddenError("")
	}
	return rec, nil
}

// Update applies the present fields only and returns the reloaded record.
func (s *SavedSearchService) Update(ctx context.Context, ownerID, id uint, in SavedSearchInput) (*models.SavedSearch, error) {
	rec, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := in.validatePatch(); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, rec, in.fields()); err != nil {
		return nil, s.internal(ctx, "update saved search", err, zap.Uint("id", id))
	}
	return rec, nil
}

func (s *SavedSearchService) Delete(ctx context.Context, ownerID, id uint) error {
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return s.internal(ctx, "delete saved search", err, zap.Uint("id", id))
	}
	return nil
}

// Execute runs the saved criteria against active listings. Malformed criteria never fail;
// unusable keys are logged and skipped.
func (s *SavedSearchService) Execute(ctx context.Context, ownerID, id uint, page int) (Page[models.Listing], error) {
	rec, err := s.Get(ctx, ownerID, id)
	if err != nil {
		metrics.ObserveExecution(outcomeOf(err), 0)
		return Page[models.Listing]{}, err
	}
	c := search.Parse(rec.Criteria)
	if len(c.Ignored) > 0 {
		s.log.Debug("Ignoring criteria keys", zap.Uint("id", id), zap.Any("keys", keys(c.Ignored)))
	}
	result, err := s.run(ctx, c.Plan(), page)
	if err != nil {
		metrics.ObserveExecution(metrics.OutcomeError, 0)
		return result, s.internal(ctx, "execute saved search", err, zap.Uint("id", id))
	}
	metrics.ObserveExecution(metrics.OutcomeOK, result.Total)
	return result, nil
}

// Search runs ad-hoc criteria, such as those read from a query string.
func (s *SavedSearchService) Search(ctx context.Context, c search.Criteria, page int) (Page[models.Listing], error) {
	result, err := s.run(ctx, c.Plan(), page)
	if err != nil {
		return result, s.internal(ctx, "search listings", err)
	}
	return result, nil
}

func (s *SavedSearchService) run(ctx context.Context, plan search.Plan, page int) (Page[models.Listing], error) {
	page = clampPage(page)
	per := domain.ListingPerPage
	items, total, err := s.listings.Search(ctx, plan, per, Offset(page, per))
	if err != nil {
		return Page[models.Listing]{}, err
	}
	return NewPage(items, total, per, page), nil
}

func (s *SavedSearchService) internal(ctx context.Context, op string, err error, fields ...zap.Field) error {
	if ctx.Err() != nil {
		return apperr.From(ctx.Err())
	}
	s.log.Error("Failed to "+op, append(fields, zap.Error(err))...)
	return apperr.NewInternalError(err)
}

func outcomeOf(err error) string {
	switch {
	case apperr.IsForbidden(err):
		return metrics.OutcomeForbidden
	case apperr.IsNotFound(err):
		return metrics.OutcomeNotFound
	default:
		return metrics.OutcomeError
	}
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
