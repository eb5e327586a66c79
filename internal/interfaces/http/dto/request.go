package dto

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// BindBookID 从路径取书籍 ID
func BindBookID(c *gin.Context) string {
	return c.Param("bid")
}

// BindEditionID 从路径取版次 ID
func BindEditionID(c *gin.Context) string {
	return c.Param("eid")
}

// BindPageNumber 从路径取页码，非法时返回 0
func BindPageNumber(c *gin.Context) int {
	n, err := strconv.Atoi(c.Param("num"))
	if err != nil {
		return 0
	}
	return n
}
