package catalog

import (
	"context"
	"sync"
	"time"

	"mirage-codex-api/internal/domain/repository"
	"mirage-codex-api/pkg/logger"
	"mirage-codex-api/pkg/metrics"
)

// ViewCounter 浏览计数聚合器。
// 流事件先在内存中按书籍聚合，定时批量落库，减少热点书籍的行锁竞争。
// 崩溃会丢失窗口内未落库的增量，浏览计数只作为热度信号，可容忍。
type ViewCounter struct {
	books      repository.BookRepository
	tx         repository.Transactor
	flushEvery time.Duration

	mu      sync.Mutex
	pending map[string]int64

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewViewCounter 创建浏览计数聚合器
func NewViewCounter(books repository.BookRepository, tx repository.Transactor, flushEvery time.Duration) *ViewCounter {
	if flushEvery <= 0 {
		flushEvery = 5 * time.Second
	}
	return &ViewCounter{
		books:      books,
		tx:         tx,
		flushEvery: flushEvery,
		pending:    make(map[string]int64),
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// Add 累加一次浏览
func (v *ViewCounter) Add(bookID string) {
	if bookID == "" {
		return
	}
	v.mu.Lock()
	v.pending[bookID]++
	v.mu.Unlock()
}

// Start 启动定时落库循环
func (v *ViewCounter) Start(ctx context.Context) {
	go func() {
		defer close(v.doneCh)

		ticker := time.NewTicker(v.flushEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				v.Flush(ctx)
			case <-v.stopCh:
				v.Flush(ctx)
				return
			case <-ctx.Done():
				v.Flush(context.WithoutCancel(ctx))
				return
			}
		}
	}()
}

// Stop 停止循环并落库剩余增量
func (v *ViewCounter) Stop() {
	close(v.stopCh)
	<-v.doneCh
}

// Flush 将聚合的增量批量写入数据库
func (v *ViewCounter) Flush(ctx context.Context) {
	v.mu.Lock()
	if len(v.pending) == 0 {
		v.mu.Unlock()
		return
	}
	batch := v.pending
	v.pending = make(map[string]int64)
	v.mu.Unlock()

	err := v.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		for bookID, delta := range batch {
			if err := v.books.IncrementViewCount(txCtx, bookID, delta); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.Error(ctx, "failed to flush view counts", err, "books", len(batch))
		metrics.ViewEventsConsumed.WithLabelValues("flush_failed").Add(float64(len(batch)))
		// 回灌失败的增量，下个周期重试
		v.mu.Lock()
		for bookID, delta := range batch {
			v.pending[bookID] += delta
		}
		v.mu.Unlock()
		return
	}

	metrics.ViewEventsConsumed.WithLabelValues("flushed").Add(float64(len(batch)))
}
