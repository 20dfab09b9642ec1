package services

import (
	"context"

	portssvc "github.com/ScreenBuddy/screenbuddy_backend/internal/core/ports/services"
)

// staticBillingService is the default stand-in for the external billing
// collaborator. The engine only ever reads the active flag; the real
// subscription lifecycle (checkout, webhooks) lives outside this system.
type staticBillingService struct {
	active bool
}

// NewStaticBillingService creates a billing collaborator that reports the
// same subscription state for every owner.
func NewStaticBillingService(active bool) portssvc.BillingSvc {
	return &staticBillingService{active: active}
}

var _ portssvc.BillingSvc = (*staticBillingService)(nil)

func (s *staticBillingService) IsSubscriptionActive(ctx context.Context, ownerID string) (bool, error) {
	return s.active, nil
}
