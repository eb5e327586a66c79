// Package illustration 实现页面插图与封面的幂等生成
package illustration

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// PageImageHash 计算页面插图的幂等哈希。
// 四个输入的纯函数：任一输入变化（哪怕提示词差一个字符）都会改变哈希。
func PageImageHash(bookID, editionID string, pageNumber int, prompt string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%s:%d:%s", bookID, editionID, pageNumber, prompt)))
	return hex.EncodeToString(sum[:])
}
