package apperrors

import "errors"

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrInsufficientFunds indicates that a spend would drive the account balance negative.
var ErrInsufficientFunds = errors.New("insufficient time bucks")

// ErrAccountFrozen indicates that spending is frozen for the account.
var ErrAccountFrozen = errors.New("spending is frozen for this account")

// ErrUnauthorized indicates missing or invalid credentials.
var ErrUnauthorized = errors.New("unauthorized")

// ErrForbidden indicates the actor does not own the resource or lacks the required role.
var ErrForbidden = errors.New("forbidden")

// ErrInvalidState indicates a state-machine precondition was violated,
// e.g. approving a completion that is no longer pending.
var ErrInvalidState = errors.New("invalid state for requested operation")
