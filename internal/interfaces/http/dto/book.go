package dto

// ListBooksRequest 书架浏览请求
type ListBooksRequest struct {
	Genre    string   `form:"genre"`
	Language string   `form:"language"`
	Query    string   `form:"q"`
	Tags     []string `form:"tags"`
	Page     int      `form:"page,default=1"`
	PageSize int      `form:"page_size,default=20"`
}

// BookResponse 书籍信息
type BookResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Summary   string `json:"summary,omitempty"`
	AuthorID  string `json:"author_id"`
	GenreSlug string `json:"genre_slug,omitempty"`
	Language  string `json:"language"`
	PageCount int    `json:"page_count"`
	CoverURL  string `json:"cover_url,omitempty"`
	LikeCount int64  `json:"like_count"`
	ViewCount int64  `json:"view_count"`
	CreatedAt string `json:"created_at"`
}

// ToggleReactionResponse 互动翻转结果
type ToggleReactionResponse struct {
	Active bool `json:"active"`
}

// RecordViewRequest 浏览事件上报
type RecordViewRequest struct {
	EditionID  string `json:"edition_id,omitempty"`
	PageNumber int    `json:"page_number,omitempty"`
}
