package schema

import (
	"time"
)

// Account represents the accounts table - the payment-token balance held by
// an address. Purchases debit the buyer and credit the creator/seller splits
// inside the purchase transaction.
type Account struct {
	// Address is the account holder's address
	Address string `gorm:"column:address;primaryKey;type:text"`
	// Balance is the spendable payment-token amount
	Balance uint64 `gorm:"column:balance;not null;default:0;type:bigint"`
	// CreatedAt is the timestamp when the account was first credited
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp of the last balance change
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Account model
func (Account) TableName() string {
	return "accounts"
}
