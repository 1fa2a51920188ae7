package accounts

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/ledgerline/internal/shared"
)

type memoryChartRepo struct {
	accounts map[string]Account
	nextID   int64
	inserts  int
	lists    int
}

func newMemoryChartRepo() *memoryChartRepo {
	return &memoryChartRepo{accounts: make(map[string]Account)}
}

func (r *memoryChartRepo) List(ctx context.Context, companyID int64) ([]Account, error) {
	r.lists++
	var out []Account
	for _, a := range r.accounts {
		if a.CompanyID == companyID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memoryChartRepo) GetByCode(ctx context.Context, companyID int64, code string) (Account, error) {
	if a, ok := r.accounts[code]; ok && a.CompanyID == companyID {
		return a, nil
	}
	return Account{}, shared.ErrNotFound
}

func (r *memoryChartRepo) Insert(ctx context.Context, account Account) (Account, error) {
	if _, ok := r.accounts[account.Code]; ok {
		return Account{}, shared.ErrConflict
	}
	r.nextID++
	r.inserts++
	account.ID = r.nextID
	account.IsActive = true
	r.accounts[account.Code] = account
	return account, nil
}

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute)
}

func TestListServedFromCache(t *testing.T) {
	repo := newMemoryChartRepo()
	_, err := repo.Insert(context.Background(), Account{CompanyID: 1, Code: CodeBank, Name: "Bank", Type: AccountTypeAsset})
	require.NoError(t, err)

	service := NewService(repo, newTestCache(t))

	first, err := service.List(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := service.List(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, second, 1)
	require.Equal(t, 1, repo.lists, "second list should hit the cache")
}

func TestCreateBumpsCacheVersion(t *testing.T) {
	repo := newMemoryChartRepo()
	service := NewService(repo, newTestCache(t))

	_, err := service.List(context.Background(), 1)
	require.NoError(t, err)

	_, err = service.Create(context.Background(), Account{CompanyID: 1, Code: "6000", Name: "Rent", Type: AccountTypeExpense})
	require.NoError(t, err)

	chart, err := service.List(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, chart, 1, "creation must invalidate the cached chart")
}

func TestCreateRejectsUnknownType(t *testing.T) {
	service := NewService(newMemoryChartRepo(), newTestCache(t))
	_, err := service.Create(context.Background(), Account{CompanyID: 1, Code: "9999", Name: "Bogus", Type: "CONTRA"})
	require.Error(t, err)
}

func TestEnsureCreatesMissingLedger(t *testing.T) {
	repo := newMemoryChartRepo()
	service := NewService(repo, newTestCache(t))

	account, err := service.Ensure(context.Background(), 1, SpecVATInput)
	require.NoError(t, err)
	require.Equal(t, CodeVATInput, account.Code)
	require.Equal(t, AccountTypeAsset, account.Type)
	require.Equal(t, 1, repo.inserts)

	again, err := service.Ensure(context.Background(), 1, SpecVATInput)
	require.NoError(t, err)
	require.Equal(t, account.ID, again.ID)
	require.Equal(t, 1, repo.inserts, "second ensure must not re-create")
}
