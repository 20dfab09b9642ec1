package domain

import "time"

// AppEntitlementRule prices the unlock of one app for one child.
// RatePerMinute is in whole Time Bucks per minute.
type AppEntitlementRule struct {
	RuleID        string `json:"ruleID"`
	AccountID     string `json:"accountID"`
	AppRef        string `json:"appRef"` // bundle id / package name
	AppName       string `json:"appName"`
	RatePerMinute int64  `json:"ratePerMinute"`
	Active        bool   `json:"active"`
	AuditFields
}

// SessionStatus tracks the lifecycle of an entitlement session.
type SessionStatus string

const (
	SessionActive  SessionStatus = "ACTIVE"
	SessionExpired SessionStatus = "EXPIRED"
)

// EntitlementSession is a time-boxed grant permitting a blocked app to be
// used. It is created atomically with the ledger debit that paid for it and
// becomes immutable once expired. ExpiredAt records when the EXPIRED flip
// was observed, which can trail ExpiresAt when a device reports late.
type EntitlementSession struct {
	SessionID      string        `json:"sessionID"`
	AccountID      string        `json:"accountID"`
	AppRef         string        `json:"appRef"`
	MinutesGranted int           `json:"minutesGranted"`
	Cost           int64         `json:"cost"`
	Status         SessionStatus `json:"status"`
	StartedAt      time.Time     `json:"startedAt"`
	ExpiresAt      time.Time     `json:"expiresAt"`
	ExpiredAt      *time.Time    `json:"expiredAt,omitempty"`
}
