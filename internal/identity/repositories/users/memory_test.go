package users

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
	"github.com/dmitrijs2005/gatekeeper/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Repository = (*MemoryRepository)(nil)
var _ Repository = (*PostgresRepository)(nil)

func TestMemoryRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	u := sampleUser()
	_, err := repo.Create(ctx, u)
	require.NoError(t, err)

	byEmail, err := repo.GetByEmail(ctx, u.Email)
	require.NoError(t, err)
	assert.Equal(t, u, byEmail)

	byName, err := repo.GetByUsername(ctx, u.Username)
	require.NoError(t, err)
	assert.Equal(t, u, byName)

	byEmail.Username = "mutated"
	again, err := repo.GetByEmail(ctx, u.Email)
	require.NoError(t, err)
	assert.Equal(t, "alice", again.Username, "returned records must be copies")

	_, err = repo.GetByEmail(ctx, "ALICE@example.com")
	assert.ErrorIs(t, err, common.ErrNotFound, "email lookup is case-sensitive")
}

func TestMemoryRepository_Duplicates(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	_, err := repo.Create(ctx, sampleUser())
	require.NoError(t, err)

	_, err = repo.Create(ctx, &models.User{ID: "2", Email: "alice@example.com", Username: "alice"})
	assert.ErrorIs(t, err, common.ErrDuplicateEmail, "email is checked before username")

	_, err = repo.Create(ctx, &models.User{ID: "3", Email: "other@example.com", Username: "alice"})
	assert.ErrorIs(t, err, common.ErrDuplicateUsername)
}

func TestMemoryRepository_ListOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	empty, err := repo.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	for i := 0; i < 3; i++ {
		_, err := repo.Create(ctx, &models.User{
			ID:       fmt.Sprintf("id-%d", i),
			Email:    fmt.Sprintf("u%d@example.com", i),
			Username: fmt.Sprintf("user%d", i),
		})
		require.NoError(t, err)
	}

	got, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, u := range got {
		assert.Equal(t, fmt.Sprintf("id-%d", i), u.ID)
	}
}

func TestMemoryRepository_ConcurrentSameEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	const n = 16
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.Create(ctx, &models.User{
				ID:       fmt.Sprintf("id-%d", i),
				Email:    "race@example.com",
				Username: fmt.Sprintf("racer%d", i),
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	var ok, dup int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, common.ErrDuplicateEmail):
			dup++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, dup)
}
