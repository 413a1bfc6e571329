package infrastructure_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mateusmacedo/go-railwatch/internal/search/domain"
	"github.com/mateusmacedo/go-railwatch/internal/search/infrastructure"
)

func memoryRecord(t *testing.T, id string, userID int64) domain.SearchRecord {
	t.Helper()
	tomorrow := time.Now().UTC().Add(24 * time.Hour).Format(domain.DateFormat)
	request, err := domain.NewSearchRequest("Minsk", "Brest", tomorrow, "08:30", userID, time.UTC)
	require.NoError(t, err)
	return domain.NewSearchRecord(id, request)
}

func TestInMemorySearchRepository(t *testing.T) {
	ctx := context.Background()
	repo := infrastructure.NewInMemorySearchRepository()

	record := memoryRecord(t, "id-1", 1)
	require.NoError(t, repo.Save(ctx, record))
	require.Error(t, repo.Save(ctx, record), "saving the same id twice must fail")

	record.FailureCount = 3
	require.NoError(t, repo.Update(ctx, record))
	stored, ok := repo.Get("id-1")
	require.True(t, ok)
	require.Equal(t, 3, stored.FailureCount)

	missing := memoryRecord(t, "ghost", 1)
	require.ErrorIs(t, repo.Update(ctx, missing), domain.ErrNotFound)

	require.NoError(t, repo.Save(ctx, memoryRecord(t, "id-2", 2)))
	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	mine, err := repo.FindByUserID(ctx, 1)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, "id-1", mine[0].ID)

	require.NoError(t, repo.Delete(ctx, "id-1"))
	require.NoError(t, repo.Delete(ctx, "id-1"), "delete is idempotent")
	require.Equal(t, 1, repo.Len())
}
