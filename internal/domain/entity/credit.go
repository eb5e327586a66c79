// Package entity 定义领域实体
package entity

import (
	"time"
)

// CreditBalance 用户积分余额。
// 余额只通过 CreditRepository 的原子操作变更，管线代码不直接改写。
type CreditBalance struct {
	UserID         string    `json:"user_id" gorm:"type:uuid;primaryKey"`
	Balance        int64     `json:"balance" gorm:"not null;default:0"`
	MonthlyResetAt time.Time `json:"monthly_reset_at" gorm:"not null"`
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (CreditBalance) TableName() string {
	return "credit_balances"
}

// NeedsReset 检查是否已过月度重置时间
func (b *CreditBalance) NeedsReset(now time.Time) bool {
	return !now.Before(b.MonthlyResetAt)
}

// TransactionKind 积分流水类型
type TransactionKind string

const (
	TransactionKindDebit TransactionKind = "debit"
	TransactionKindGrant TransactionKind = "grant"
)

// CreditTransaction 积分流水记录，与余额变更在同一事务内写入。
type CreditTransaction struct {
	ID        string          `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID    string          `json:"user_id" gorm:"type:uuid;index;not null"`
	Kind      TransactionKind `json:"kind" gorm:"type:varchar(20);not null"`
	Amount    int64           `json:"amount" gorm:"not null"`
	Reason    string          `json:"reason" gorm:"type:varchar(100);not null"`
	RefID     string          `json:"ref_id,omitempty" gorm:"type:varchar(128);index"`
	CreatedAt time.Time       `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 指定表名
func (CreditTransaction) TableName() string {
	return "credit_transactions"
}
