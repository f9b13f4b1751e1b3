package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shuankun/shuankun-api/internal/models"
)

func newCatalogRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestSubjectRepositoryListOrdersByCategory(t *testing.T) {
	db, mock, cleanup := newCatalogRepoMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY CASE category WHEN $1 THEN 1 WHEN $2 THEN 2 WHEN $3 THEN 3 WHEN $4 THEN 4 ELSE 5 END, name ASC")).
		WithArgs("主要教科", "専科教科", "その他", "特別活動").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "category", "created_at"}).
			AddRow("s-kokugo", "国語", "主要教科", now).
			AddRow("s-ongaku", "音楽", "専科教科", now))

	subjects, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, subjects, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPublisherRepositoryCreateAndExists(t *testing.T) {
	db, mock, cleanup := newCatalogRepoMock(t)
	defer cleanup()
	repo := NewPublisherRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM publishers WHERE LOWER(code) = LOWER($1))")).
		WithArgs("TS").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO publishers (id, name, code, created_at)")).
		WithArgs(sqlmock.AnyArg(), "東京書籍", "TS", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	exists, err := repo.ExistsByCode(context.Background(), "TS")
	require.NoError(t, err)
	assert.False(t, exists)

	publisher := &models.Publisher{Name: "東京書籍", Code: " TS "}
	require.NoError(t, repo.Create(context.Background(), publisher))
	assert.NotEmpty(t, publisher.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTextbookUnitRepositoryListBuildsFilters(t *testing.T) {
	db, mock, cleanup := newCatalogRepoMock(t)
	defer cleanup()
	repo := NewTextbookUnitRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM textbook_units WHERE subject_id = $1 AND publisher_id = $2 AND grade = $3 ORDER BY grade ASC, unit_order ASC")).
		WithArgs("s-sansu", "pub-1", 5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "publisher_id", "subject_id", "grade", "unit_order", "unit_name", "category", "suggested_hours", "suggested_period"}).
			AddRow("u-1", "pub-1", "s-sansu", 5, 1, "整数と小数", "数と計算", 6.0, "4月"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM textbook_units ORDER BY grade ASC, unit_order ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	units, err := repo.List(context.Background(), models.TextbookUnitFilter{SubjectID: "s-sansu", PublisherID: "pub-1", Grade: 5})
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, 6.0, units[0].SuggestedHours)

	units, err = repo.List(context.Background(), models.TextbookUnitFilter{})
	require.NoError(t, err)
	assert.Empty(t, units)
	require.NoError(t, mock.ExpectationsWereMet())
}
