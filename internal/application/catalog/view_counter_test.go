package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mirage-codex-api/internal/domain/entity"
	"mirage-codex-api/internal/domain/repository"
)

type countingBookRepo struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func (f *countingBookRepo) Create(_ context.Context, _ *entity.Book) error { return nil }

func (f *countingBookRepo) GetByID(_ context.Context, _ string) (*entity.Book, error) {
	return nil, nil
}

func (f *countingBookRepo) List(_ context.Context, _ *repository.BookFilter, _ repository.Pagination) (*repository.PagedResult[*entity.Book], error) {
	return &repository.PagedResult[*entity.Book]{}, nil
}

func (f *countingBookRepo) UpdateCoverURL(_ context.Context, _, _ string) error { return nil }

func (f *countingBookRepo) IncrementViewCount(_ context.Context, id string, delta int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.counts == nil {
		f.counts = map[string]int64{}
	}
	f.counts[id] += delta
	return nil
}

type passthroughTx struct{}

func (passthroughTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func TestViewCounterAggregatesBeforeFlush(t *testing.T) {
	repo := &countingBookRepo{}
	counter := NewViewCounter(repo, passthroughTx{}, time.Hour)

	counter.Add("book-1")
	counter.Add("book-1")
	counter.Add("book-2")
	counter.Add("")

	counter.Flush(context.Background())

	assert.Equal(t, int64(2), repo.counts["book-1"])
	assert.Equal(t, int64(1), repo.counts["book-2"])
}

func TestViewCounterFlushIsEmptySafe(t *testing.T) {
	repo := &countingBookRepo{}
	counter := NewViewCounter(repo, passthroughTx{}, time.Hour)

	counter.Flush(context.Background())
	assert.Empty(t, repo.counts)
}

func TestViewCounterRequeuesOnFlushFailure(t *testing.T) {
	repo := &countingBookRepo{err: errors.New("db down")}
	counter := NewViewCounter(repo, passthroughTx{}, time.Hour)

	counter.Add("book-1")
	counter.Flush(context.Background())
	assert.Empty(t, repo.counts)

	// 失败的增量留在内存中，恢复后下一次冲刷补上
	repo.mu.Lock()
	repo.err = nil
	repo.mu.Unlock()

	counter.Flush(context.Background())
	assert.Equal(t, int64(1), repo.counts["book-1"])
}

func TestViewCounterStopFlushesRemainder(t *testing.T) {
	repo := &countingBookRepo{}
	counter := NewViewCounter(repo, passthroughTx{}, time.Hour)
	counter.Start(context.Background())

	counter.Add("book-1")
	counter.Stop()

	require.Equal(t, int64(1), repo.counts["book-1"])
}
