package dto

import (
	"time"

	"github.com/ScreenBuddy/screenbuddy_backend/internal/core/domain"
)

// UpsertRuleRequest sets the unlock price for one app on one child account.
type UpsertRuleRequest struct {
	AppRef        string `json:"appRef" binding:"required,appref"`
	AppName       string `json:"appName" binding:"required"`
	RatePerMinute int64  `json:"ratePerMinute" binding:"required,gt=0"`
	Active        *bool  `json:"active" binding:"required"`
}

// RuleResponse mirrors domain.AppEntitlementRule.
type RuleResponse struct {
	RuleID        string `json:"ruleID"`
	AccountID     string `json:"accountID"`
	AppRef        string `json:"appRef"`
	AppName       string `json:"appName"`
	RatePerMinute int64  `json:"ratePerMinute"`
	Active        bool   `json:"active"`
}

// ToRuleResponse converts a domain.AppEntitlementRule to its DTO.
func ToRuleResponse(r *domain.AppEntitlementRule) RuleResponse {
	return RuleResponse{
		RuleID:        r.RuleID,
		AccountID:     r.AccountID,
		AppRef:        r.AppRef,
		AppName:       r.AppName,
		RatePerMinute: r.RatePerMinute,
		Active:        r.Active,
	}
}

// ToListRuleResponse converts a slice of rules.
func ToListRuleResponse(rules []domain.AppEntitlementRule) []RuleResponse {
	res := make([]RuleResponse, len(rules))
	for i := range rules {
		res[i] = ToRuleResponse(&rules[i])
	}
	return res
}

// OpenSessionRequest is the unlock call: spend Time Bucks to lift an app
// block for a number of minutes.
type OpenSessionRequest struct {
	AccountID      string `json:"accountID" binding:"required"`
	AppRef         string `json:"appRef" binding:"required,appref"`
	Minutes        int    `json:"minutes" binding:"required,gt=0"`
	IdempotencyKey string `json:"idempotencyKey"`
}

// OpenSessionResponse returns the granted session and resulting balance.
type OpenSessionResponse struct {
	SessionID      string    `json:"sessionID"`
	AppRef         string    `json:"appRef"`
	MinutesGranted int       `json:"minutesGranted"`
	Cost           int64     `json:"cost"`
	ExpiresAt      time.Time `json:"expiresAt"`
	NewBalance     int64     `json:"newBalance"`
}

// SessionResponse mirrors domain.EntitlementSession.
type SessionResponse struct {
	SessionID      string     `json:"sessionID"`
	AccountID      string     `json:"accountID"`
	AppRef         string     `json:"appRef"`
	MinutesGranted int        `json:"minutesGranted"`
	Cost           int64      `json:"cost"`
	Status         string     `json:"status"`
	StartedAt      time.Time  `json:"startedAt"`
	ExpiresAt      time.Time  `json:"expiresAt"`
	ExpiredAt      *time.Time `json:"expiredAt,omitempty"`
}

// ToSessionResponse converts a domain.EntitlementSession to its DTO.
func ToSessionResponse(s *domain.EntitlementSession) SessionResponse {
	return SessionResponse{
		SessionID:      s.SessionID,
		AccountID:      s.AccountID,
		AppRef:         s.AppRef,
		MinutesGranted: s.MinutesGranted,
		Cost:           s.Cost,
		Status:         string(s.Status),
		StartedAt:      s.StartedAt,
		ExpiresAt:      s.ExpiresAt,
		ExpiredAt:      s.ExpiredAt,
	}
}

// ToListSessionResponse converts a slice of sessions.
func ToListSessionResponse(sessions []domain.EntitlementSession) []SessionResponse {
	res := make([]SessionResponse, len(sessions))
	for i := range sessions {
		res[i] = ToSessionResponse(&sessions[i])
	}
	return res
}
