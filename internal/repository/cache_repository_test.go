package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/univ-portal-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, "univ:")
	ctx := context.Background()

	var dest map[string]string
	assert.ErrorIs(t, repo.Get(ctx, "academic_year:current", &dest), appErrors.ErrCacheMiss)
	require.NoError(t, repo.Set(ctx, "academic_year:current", map[string]string{"a": "b"}, time.Minute))
	require.NoError(t, repo.DeleteByPattern(ctx, "academic_year:*"))
	require.NoError(t, repo.Ping(ctx))
	require.NoError(t, repo.Close())
	assert.Equal(t, "univ:academic_year:current", repo.key("academic_year:current"))
}
