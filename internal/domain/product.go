package domain

import (
	"time"

	"github.com/google/uuid"
)

// ProductStatus is the lifecycle state of a product contract
type ProductStatus string

const (
	StatusActive       ProductStatus = "Active"
	StatusExpired      ProductStatus = "Expired"
	StatusExpiringSoon ProductStatus = "ExpiringSoon"
)

// Valid reports whether s is one of the known statuses
func (s ProductStatus) Valid() bool {
	switch s {
	case StatusActive, StatusExpired, StatusExpiringSoon:
		return true
	}
	return false
}

// Product represents a sold bot subscription with its contract window
type Product struct {
	ID                uuid.UUID     `json:"id" db:"id"`
	Name              string        `json:"name" db:"name"`
	Description       *string       `json:"description" db:"description"`
	BotUsername       *string       `json:"bot_username" db:"bot_username"`
	WebsiteLink       *string       `json:"website_link" db:"website_link"`
	ContractMonths    int           `json:"contract_months" db:"contract_months"`
	ContractStartDate time.Time     `json:"contract_start_date" db:"contract_start_date"`
	ContractEndDate   time.Time     `json:"contract_end_date" db:"contract_end_date"`
	IsRenewed         bool          `json:"is_renewed" db:"is_renewed"`
	Status            ProductStatus `json:"status" db:"status"`
	CustomerTelegram  *string       `json:"customer_telegram" db:"customer_telegram"`
	CustomerLink      *string       `json:"customer_link" db:"customer_link"`
	CreatedAt         time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at" db:"updated_at"`
}

// RefreshStatus recomputes the derived status against now
func (p *Product) RefreshStatus(now time.Time) {
	p.Status = DeriveStatus(p.ContractEndDate, now)
}
