// Package handler 提供 HTTP 请求处理器
package handler

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mirage-codex-api/internal/interfaces/http/dto"
	"mirage-codex-api/pkg/errors"
	"mirage-codex-api/pkg/logger"
)

// currentUserID 从 Gin Context 取认证身份，未认证返回空串
func currentUserID(c *gin.Context) string {
	return c.GetString("user_id")
}

// respondError 将应用错误翻译为稳定的客户端错误形态。
// 内部细节（堆栈、上游原始错误体）不暴露给客户端。
func respondError(c *gin.Context, err error, fallback string) {
	var insufficientErr *errors.InsufficientCreditsError
	if stderrors.As(err, &insufficientErr) {
		c.JSON(http.StatusPaymentRequired, dto.ErrorResponse{
			Code:    http.StatusPaymentRequired,
			Message: "insufficient credits",
			Error: &dto.ErrorDetail{
				ErrorCode: string(errors.CodeInsufficientCredits),
				Details:   insufficientErr.Error(),
			},
			TraceID: c.GetString("trace_id"),
		})
		return
	}

	if errors.IsAppError(err) {
		appErr := errors.AsAppError(err)
		c.JSON(appErr.HTTPStatus, dto.ErrorResponse{
			Code:    appErr.HTTPStatus,
			Message: appErr.Message,
			Error: &dto.ErrorDetail{
				ErrorCode: string(appErr.Code),
			},
			TraceID: c.GetString("trace_id"),
		})
		return
	}

	logger.Error(c.Request.Context(), fallback, err)
	dto.InternalError(c, fallback)
}
