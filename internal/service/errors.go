package service

import (
	"errors"

	"mines_wager/internal/settlement"
)

var (
	ErrUndefinedUser          = errors.New("undefined user")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrInvalidWagerParameters = errors.New("invalid wager parameters")
	ErrPersistenceFailure     = errors.New("persistence failure")
	ErrDuplicateRefund        = errors.New("refund already in progress")
	ErrNoActiveWager          = errors.New("no active wager")
	ErrWagerInProgress        = errors.New("wager already in progress")
	ErrNotPlatformLinked      = errors.New("session is not platform linked")

	ErrPlatformUnreachable = settlement.ErrPlatformUnreachable
	ErrPlatformRejected    = settlement.ErrPlatformRejected
)
