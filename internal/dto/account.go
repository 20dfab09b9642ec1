package dto

import (
	"time"

	"github.com/ScreenBuddy/screenbuddy_backend/internal/core/domain"
)

// CreateChildRequest registers a child account plus its login. The child's
// actor id is the new account id.
type CreateChildRequest struct {
	Name     string `json:"name" binding:"required"`
	Username string `json:"username" binding:"required,min=3"`
	Password string `json:"password" binding:"required,min=6"`
}

// ChildAccountResponse mirrors domain.ChildAccount.
type ChildAccountResponse struct {
	AccountID string    `json:"accountID"`
	OwnerID   string    `json:"ownerID"`
	Name      string    `json:"name"`
	TimeBucks int64     `json:"timeBucks"`
	Frozen    bool      `json:"frozen"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// ToChildAccountResponse converts a domain.ChildAccount to its DTO.
func ToChildAccountResponse(acc *domain.ChildAccount) ChildAccountResponse {
	return ChildAccountResponse{
		AccountID: acc.AccountID,
		OwnerID:   acc.OwnerID,
		Name:      acc.Name,
		TimeBucks: acc.TimeBucks,
		Frozen:    acc.Frozen,
		IsActive:  acc.IsActive,
		CreatedAt: acc.CreatedAt,
	}
}

// ToListChildAccountResponse converts a slice of accounts.
func ToListChildAccountResponse(accounts []domain.ChildAccount) []ChildAccountResponse {
	res := make([]ChildAccountResponse, len(accounts))
	for i := range accounts {
		res[i] = ToChildAccountResponse(&accounts[i])
	}
	return res
}

// BalanceResponse is the payload of the balance query.
type BalanceResponse struct {
	AccountID string `json:"accountID"`
	TimeBucks int64  `json:"timeBucks"`
}
