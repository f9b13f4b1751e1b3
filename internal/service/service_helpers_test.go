package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/shuankun/shuankun-api/internal/models"
	appErrors "github.com/shuankun/shuankun-api/pkg/errors"
)

type txProviderMock struct {
	db   *sqlx.DB
	mock sqlmock.Sqlmock
}

func newTxProviderMock(t *testing.T) (txProvider, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlxdb, mock: mock}, mock
}

func (t *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return t.db.BeginTxx(ctx, opts)
}

type memoryCacheRepo struct {
	mu          sync.Mutex
	store       map[string][]byte
	invalidated []string
}

func (m *memoryCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	payload, ok := m.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (m *memoryCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.store == nil {
		m.store = make(map[string][]byte)
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.store[key] = payload
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidated = append(m.invalidated, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.store {
		if strings.HasPrefix(key, prefix) {
			delete(m.store, key)
		}
	}
	return nil
}

type profileStoreStub struct {
	profile     *models.TeacherProfile
	err         error
	subjects    []models.UserSubject
	subjectsErr error

	listedGrades []int
	saved        *models.TeacherProfile
	upsertErr    error
	replaced     []models.UserSubject
	replaceErr   error
}

func (p *profileStoreStub) Get(_ context.Context, _ string) (*models.TeacherProfile, error) {
	if p.err != nil {
		return nil, p.err
	}
	if p.profile == nil {
		return nil, sql.ErrNoRows
	}
	return p.profile, nil
}

func (p *profileStoreStub) ListSubjects(_ context.Context, _ string, grade int) ([]models.UserSubject, error) {
	p.listedGrades = append(p.listedGrades, grade)
	if p.subjectsErr != nil {
		return nil, p.subjectsErr
	}
	if grade == 0 {
		return p.subjects, nil
	}
	out := make([]models.UserSubject, 0, len(p.subjects))
	for _, subject := range p.subjects {
		if subject.Grade == grade {
			out = append(out, subject)
		}
	}
	return out, nil
}

func (p *profileStoreStub) Upsert(_ context.Context, profile *models.TeacherProfile) error {
	if p.upsertErr != nil {
		return p.upsertErr
	}
	copied := *profile
	p.saved = &copied
	p.profile = &copied
	return nil
}

func (p *profileStoreStub) ReplaceSubjects(_ context.Context, _ sqlx.ExtContext, _ string, subjects []models.UserSubject) error {
	if p.replaceErr != nil {
		return p.replaceErr
	}
	p.replaced = subjects
	return nil
}

func requireAppError(t *testing.T, err error, code string) *appErrors.Error {
	t.Helper()
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr), "expected *errors.Error, got %T", err)
	require.Equal(t, code, appErr.Code)
	return appErr
}
