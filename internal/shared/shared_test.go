package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/jhipl/backoffice/internal/platform/httpx"
)

func TestIdentityMiddlewareNormalises(t *testing.T) {
	var got string
	h := IdentityMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = IdentityFromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(IdentityHeader, "  User@JHIPL.com ")
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, "user@jhipl.com", got)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Empty(t, got)
}

func TestIdempotencyStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	store := NewIdempotencyStore(client, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.CheckAndInsert(ctx, "k1", "invoice"))
	err := store.CheckAndInsert(ctx, "k1", "invoice")
	require.ErrorIs(t, err, ErrIdempotencyConflict)
	require.ErrorIs(t, err, httpx.ErrConflict)
	require.NoError(t, store.CheckAndInsert(ctx, "k1", "reimbursement"))

	require.NoError(t, store.Delete(ctx, "k1", "invoice"))
	require.NoError(t, store.CheckAndInsert(ctx, "k1", "invoice"))

	mr.FastForward(2 * time.Hour)
	require.NoError(t, store.CheckAndInsert(ctx, "k1", "invoice"))

	require.Error(t, store.CheckAndInsert(ctx, "", "invoice"))
}

func TestNilIdempotencyStoreAllowsAll(t *testing.T) {
	var store *IdempotencyStore
	require.NoError(t, store.CheckAndInsert(context.Background(), "k", "m"))
	require.NoError(t, NewIdempotencyStore(nil, 0).CheckAndInsert(context.Background(), "k", "m"))
}

func TestPagination(t *testing.T) {
	p := NewPagination(2, 10, 25)
	require.Equal(t, 3, p.TotalPages)
	start, end := p.Bounds()
	require.Equal(t, 10, start)
	require.Equal(t, 20, end)

	p = NewPagination(9, 10, 25)
	start, end = p.Bounds()
	require.Equal(t, 25, start)
	require.Equal(t, 25, end)

	req := httptest.NewRequest(http.MethodGet, "/?page=0&per_page=999", nil)
	p = PaginationFromRequest(req, 5)
	require.Equal(t, 1, p.Page)
	require.Equal(t, 200, p.PerPage)
}
