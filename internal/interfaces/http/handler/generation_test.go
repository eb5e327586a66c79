package handler

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mirage-codex-api/internal/application/generation"
	"mirage-codex-api/internal/config"
)

// sseRecorder 补上 CloseNotify，gin 的 Stream 需要它
type sseRecorder struct {
	*httptest.ResponseRecorder
	closeCh chan bool
}

func newSSERecorder() *sseRecorder {
	return &sseRecorder{
		ResponseRecorder: httptest.NewRecorder(),
		closeCh:          make(chan bool, 1),
	}
}

func (r *sseRecorder) CloseNotify() <-chan bool { return r.closeCh }

type fakePageStreamer struct {
	open func(ctx context.Context) (*schema.StreamReader[*schema.Message], error)
}

func (f *fakePageStreamer) Stream(ctx context.Context, _ *generation.StreamRequest) (*schema.StreamReader[*schema.Message], error) {
	return f.open(ctx)
}

func (f *fakePageStreamer) SavePage(_ context.Context, _ *generation.SaveRequest) (*generation.SaveResult, error) {
	return &generation.SaveResult{}, nil
}

func newStreamRouter(open func(ctx context.Context) (*schema.StreamReader[*schema.Message], error), timeout time.Duration) *gin.Engine {
	gin.SetMode(gin.TestMode)

	h := &GenerationHandler{
		pipeline: &fakePageStreamer{open: open},
		genCfg:   &config.GenerationConfig{StreamTimeout: timeout},
	}
	r := gin.New()
	r.POST("/v1/editions/:eid/pages/:num/stream", h.StreamPage)
	return r
}

func streamOnce(router *gin.Engine, ctx context.Context) *sseRecorder {
	rec := newSSERecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/editions/ed-1/pages/1/stream", nil)
	if ctx != nil {
		req = req.WithContext(ctx)
	}
	router.ServeHTTP(rec, req)
	return rec
}

func TestStreamPageAlwaysEndsWithDone(t *testing.T) {
	router := newStreamRouter(func(_ context.Context) (*schema.StreamReader[*schema.Message], error) {
		sr, sw := schema.Pipe[*schema.Message](2)
		go func() {
			defer sw.Close()
			sw.Send(schema.AssistantMessage("The lamp ", nil), nil)
			sw.Send(schema.AssistantMessage("went dark.", nil), nil)
			sw.Send(&schema.Message{
				Role: schema.Assistant,
				ResponseMeta: &schema.ResponseMeta{
					Usage: &schema.TokenUsage{PromptTokens: 12, CompletionTokens: 34},
				},
			}, nil)
		}()
		return sr, nil
	}, time.Minute)

	// 结束事件的发出不允许依赖通道关闭的调度顺序，跑一批验证
	for i := 0; i < 100; i++ {
		rec := streamOnce(router, nil)
		body := rec.Body.String()

		require.Contains(t, body, "event:content", "request %d", i)
		require.Contains(t, body, "event:usage", "request %d", i)
		require.Contains(t, body, "event:done", "request %d", i)
		require.NotContains(t, body, "event:error", "request %d", i)
		assert.Less(t, strings.Index(body, "event:content"), strings.Index(body, "event:done"), "request %d", i)
	}
}

func TestStreamPageReportsStreamFailure(t *testing.T) {
	router := newStreamRouter(func(_ context.Context) (*schema.StreamReader[*schema.Message], error) {
		sr, sw := schema.Pipe[*schema.Message](2)
		go func() {
			defer sw.Close()
			sw.Send(schema.AssistantMessage("The lamp ", nil), nil)
			sw.Send(nil, stderrors.New("upstream connection reset"))
		}()
		return sr, nil
	}, time.Minute)

	for i := 0; i < 50; i++ {
		rec := streamOnce(router, nil)
		body := rec.Body.String()

		require.Contains(t, body, "event:error", "request %d", i)
		require.NotContains(t, body, "event:done", "truncated stream must not look complete, request %d", i)
	}
}

func TestStreamPageStopsWhenClientGone(t *testing.T) {
	router := newStreamRouter(func(_ context.Context) (*schema.StreamReader[*schema.Message], error) {
		sr, sw := schema.Pipe[*schema.Message](2)
		go func() {
			defer sw.Close()
			for {
				if closed := sw.Send(schema.AssistantMessage("more prose ", nil), nil); closed {
					return
				}
			}
		}()
		return sr, nil
	}, time.Minute)

	baseline := runtime.NumGoroutine()

	for i := 0; i < 10; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()
		streamOnce(router, ctx)
		cancel()
	}

	// 断开后转发 goroutine 必须退出，而不是卡在无人消费的通道上
	require.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= baseline+2
	}, 2*time.Second, 20*time.Millisecond, "stream producer goroutines must exit after disconnect")
}

func TestStreamPageHonorsStreamTimeout(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	router := newStreamRouter(func(_ context.Context) (*schema.StreamReader[*schema.Message], error) {
		sr, sw := schema.Pipe[*schema.Message](2)
		go func() {
			defer sw.Close()
			sw.Send(schema.AssistantMessage("The lamp ", nil), nil)
			<-release
		}()
		return sr, nil
	}, 50*time.Millisecond)

	start := time.Now()
	rec := streamOnce(router, nil)
	elapsed := time.Since(start)

	assert.Less(t, elapsed, 3*time.Second, "stalled generation must be cut off by the configured ceiling")
	body := rec.Body.String()
	assert.Contains(t, body, "event:content")
	assert.NotContains(t, body, "event:done")
}
