// Package entity 定义领域实体
package entity

import (
	"time"
)

// ProviderKey 用户自带的提供商 API Key 登记。
// 持有某提供商 Key 的用户在该提供商的模型上免计费。
// Key 本身不落库明文，只存加密后的密文与指纹。
type ProviderKey struct {
	ID          string    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID      string    `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:uq_provider_keys_user_provider"`
	Provider    string    `json:"provider" gorm:"type:varchar(64);not null;uniqueIndex:uq_provider_keys_user_provider"`
	Ciphertext  string    `json:"-" gorm:"type:text;not null"`
	Fingerprint string    `json:"fingerprint" gorm:"type:char(16);not null"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 指定表名
func (ProviderKey) TableName() string {
	return "provider_keys"
}
