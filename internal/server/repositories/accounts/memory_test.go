package accounts

import (
	"context"
	"sync"
	"testing"

	"github.com/dmitrijs2005/shopauth/internal/common"
	"github.com/dmitrijs2005/shopauth/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	a, err := repo.Create(ctx, newAccount(t, "Alice", "alice@example.com", "555", []byte("h")))
	require.NoError(t, err)
	require.NotEmpty(t, a.ID)

	byEmail, err := repo.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, a.ID, byEmail.ID)

	byMobile, err := repo.GetByMobile(ctx, "555")
	require.NoError(t, err)
	assert.Equal(t, a.ID, byMobile.ID)

	byID, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", byID.Name)

	_, err = repo.GetByMobile(ctx, "")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestMemoryRepository_Duplicates(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	_, err := repo.Create(ctx, newAccount(t, "", "a@example.com", "1", nil))
	require.NoError(t, err)

	_, err = repo.Create(ctx, newAccount(t, "", "a@example.com", "2", nil))
	assert.ErrorIs(t, err, common.ErrEmailTaken)

	_, err = repo.Create(ctx, newAccount(t, "", "b@example.com", "1", nil))
	assert.ErrorIs(t, err, common.ErrMobileTaken)

	// empty mobiles never collide
	_, err = repo.Create(ctx, newAccount(t, "", "c@example.com", "", nil))
	require.NoError(t, err)
	_, err = repo.Create(ctx, newAccount(t, "", "d@example.com", "", nil))
	require.NoError(t, err)
}

func TestMemoryRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	a, err := repo.Create(ctx, newAccount(t, "", "a@example.com", "", []byte("h")))
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	got.PasswordHash[0] = 'x'
	got.Role = models.RoleAdmin

	again, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("h"), again.PasswordHash)
	assert.Equal(t, models.RoleUser, again.Role)
}

func TestMemoryRepository_Updates(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	a, err := repo.Create(ctx, newAccount(t, "", "a@example.com", "", nil))
	require.NoError(t, err)

	require.NoError(t, repo.UpdatePassword(ctx, a.ID, []byte("new")))
	require.NoError(t, repo.UpdateRole(ctx, a.ID, models.RoleAdmin, []byte("newer")))

	got, err := repo.GetByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, got.Role)
	assert.Equal(t, []byte("newer"), got.PasswordHash)

	assert.ErrorIs(t, repo.UpdatePassword(ctx, "missing", nil), common.ErrorNotFound)
	assert.ErrorIs(t, repo.UpdateRole(ctx, "missing", models.RoleAdmin, nil), common.ErrorNotFound)
}

func TestMemoryRepository_ConcurrentCreateSameEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	const n = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a, _ := models.NewAccount("", "race@example.com", "", models.RoleUser, nil)
			if _, err := repo.Create(ctx, a); err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, created)
}
