package repository_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"estatehub/internal/repository"
	"estatehub/internal/search"
)

func openMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{})
	require.NoError(t, err)
	return db, mock
}

var listingColumns = []string{"id", "user_id", "ad_type_id", "title", "city", "price", "status", "created_at", "updated_at"}

func cairoByPrice() search.Plan {
	return search.FromMap(map[string]any{"city": "Cairo", "sort_by": "price", "sort_order": "asc"}).Plan()
}

func TestListingRepository_Search(t *testing.T) {
	db, mock := openMockDB(t)
	repo := repository.NewListingRepository(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM `listings` WHERE status = ? AND city = ?")).
		WithArgs("active", "Cairo").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `listings` WHERE status = ? AND city = ? ORDER BY price asc,id asc LIMIT ?")).
		WithArgs("active", "Cairo", 15).
		WillReturnRows(sqlmock.NewRows(listingColumns).
			AddRow(4, 9, 2, "Flat", "Cairo", 100000.0, "active", now, now).
			AddRow(7, 9, 2, "Villa", "Cairo", 250000.0, "active", now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `ad_types` WHERE `ad_types`.`id` = ?")).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(2, "Featured"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `property_images` WHERE `property_images`.`listing_id` IN (?,?) ORDER BY is_primary DESC,id ASC")).
		WithArgs(4, 7).
		WillReturnRows(sqlmock.NewRows([]string{"id", "listing_id", "url", "is_primary"}).
			AddRow(11, 4, "https://img/4-primary.jpg", true).
			AddRow(12, 4, "https://img/4-second.jpg", false))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT `id`,`name`,`email` FROM `users` WHERE `users`.`id` = ?")).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email"}).AddRow(9, "Owner", "owner@example.com"))
	mock.ExpectCommit()

	list, total, err := repo.Search(context.Background(), cairoByPrice(), 15, 0)

	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, list, 2)
	assert.Equal(t, uint(4), list[0].ID)
	require.NotNil(t, list[0].User)
	assert.Equal(t, "Owner", list[0].User.Name)
	require.NotNil(t, list[1].AdType)
	assert.Equal(t, "Featured", list[1].AdType.Name)
	require.Len(t, list[0].PropertyImages, 2)
	assert.True(t, list[0].PropertyImages[0].IsPrimary)
	assert.Empty(t, list[1].PropertyImages)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingRepository_Search_OffsetPastTotalSkipsPageQuery(t *testing.T) {
	db, mock := openMockDB(t)
	repo := repository.NewListingRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM `listings` WHERE status = ? AND city = ?")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectCommit()

	list, total, err := repo.Search(context.Background(), cairoByPrice(), 15, 15)

	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.NotNil(t, list)
	assert.Empty(t, list)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingRepository_Search_SecondPage(t *testing.T) {
	db, mock := openMockDB(t)
	repo := repository.NewListingRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM `listings`")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(20))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY price asc,id asc LIMIT ? OFFSET ?")).
		WithArgs("active", "Cairo", 15, 15).
		WillReturnRows(sqlmock.NewRows(listingColumns))
	mock.ExpectCommit()

	list, total, err := repo.Search(context.Background(), cairoByPrice(), 15, 15)

	require.NoError(t, err)
	assert.EqualValues(t, 20, total)
	assert.Empty(t, list)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingRepository_Search_CountErrorRollsBack(t *testing.T) {
	db, mock := openMockDB(t)
	repo := repository.NewListingRepository(db)
	connReset := errors.New("connection reset")

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM `listings`")).
		WillReturnError(connReset)
	mock.ExpectRollback()

	_, _, err := repo.Search(context.Background(), cairoByPrice(), 15, 0)

	assert.ErrorIs(t, err, connReset)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingRepository_UpdateStatus_NotFound(t *testing.T) {
	db, mock := openMockDB(t)
	repo := repository.NewListingRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `listings` WHERE `listings`.`id` = ?")).
		WillReturnRows(sqlmock.NewRows(listingColumns))
	mock.ExpectRollback()

	_, err := repo.UpdateStatus(context.Background(), 42, "active")

	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
