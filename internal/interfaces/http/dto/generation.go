// Package dto 提供 HTTP 层数据传输对象
package dto

// SavePageRequest 页面保存请求。
// 版次与页码取自路径，正文为客户端在流结束后回传的完整内容。
type SavePageRequest struct {
	Content string `json:"content" binding:"required"`
}

// SavePageResponse 页面保存结果
type SavePageResponse struct {
	AlreadySaved bool  `json:"already_saved"`
	Debited      bool  `json:"debited"`
	Cost         int64 `json:"cost"`
}

// PageResponse 页面内容
type PageResponse struct {
	EditionID  string `json:"edition_id"`
	PageNumber int    `json:"page_number"`
	Content    string `json:"content"`
	WordCount  int    `json:"word_count"`
	CreatedAt  string `json:"created_at"`
}
