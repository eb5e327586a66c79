package dto

// EnsurePageImageRequest 页面插图请求。
// 全部走查询参数，命中路径允许匿名访问。
type EnsurePageImageRequest struct {
	BookID     string `form:"book_id" binding:"required,uuid"`
	EditionID  string `form:"edition_id" binding:"required,uuid"`
	PageNumber int    `form:"page_number" binding:"required,min=1"`
	Prompt     string `form:"prompt" binding:"required"`
}

// ImageResponse 插图引用
type ImageResponse struct {
	Hash   string `json:"hash,omitempty"`
	URL    string `json:"url"`
	Reused bool   `json:"reused"`
}

// EnsureCoverRequest 封面生成请求
type EnsureCoverRequest struct {
	Prompt string `json:"prompt" binding:"required"`
	Force  bool   `json:"force"`
}

// CreditBalanceResponse 积分余额
type CreditBalanceResponse struct {
	Balance        int64  `json:"balance"`
	MonthlyResetAt string `json:"monthly_reset_at"`
}
