package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"mirage-codex-api/internal/application/billing"
	"mirage-codex-api/internal/domain/repository"
	"mirage-codex-api/internal/interfaces/http/dto"
)

// CreditHandler 积分处理器
type CreditHandler struct {
	gate    *billing.Gate
	credits repository.CreditRepository
}

// NewCreditHandler 创建积分处理器
func NewCreditHandler(gate *billing.Gate, credits repository.CreditRepository) *CreditHandler {
	return &CreditHandler{
		gate:    gate,
		credits: credits,
	}
}

// GetBalance 查询当前用户余额。
// 首次查询触发计费引导，幂等创建余额记录。
// @Summary 积分余额
// @Tags Credits
// @Produce json
// @Success 200 {object} dto.Response[dto.CreditBalanceResponse]
// @Router /v1/credits/me [get]
func (h *CreditHandler) GetBalance(c *gin.Context) {
	ctx := c.Request.Context()
	userID := currentUserID(c)

	if err := h.gate.Bootstrap(ctx, userID); err != nil {
		respondError(c, err, "failed to bootstrap billing")
		return
	}

	balance, err := h.credits.GetBalance(ctx, userID)
	if err != nil {
		respondError(c, err, "failed to get balance")
		return
	}
	if balance == nil {
		dto.NotFound(c, "balance not found")
		return
	}

	dto.Success(c, dto.CreditBalanceResponse{
		Balance:        balance.Balance,
		MonthlyResetAt: balance.MonthlyResetAt.Format(time.RFC3339),
	})
}
