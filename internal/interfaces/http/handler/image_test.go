package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"mirage-codex-api/internal/config"
)

func newImageRouter(features *config.FeaturesConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)

	h := &ImageHandler{features: features}
	r := gin.New()
	r.GET("/v1/images/page", h.EnsurePageImage)
	return r
}

func TestEnsurePageImageDisabledReturnsNotFound(t *testing.T) {
	router := newImageRouter(&config.FeaturesConfig{
		Illustrations: config.IllustrationsFeature{Enabled: false},
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/images/page?book_id=b-1&edition_id=ed-1&page_number=1&prompt=a+lighthouse", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEnsurePageImageEnabledValidatesQuery(t *testing.T) {
	router := newImageRouter(&config.FeaturesConfig{
		Illustrations: config.IllustrationsFeature{Enabled: true},
	})

	// 开关打开时请求继续走参数校验，而不是被当成不存在的接口
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/images/page", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
