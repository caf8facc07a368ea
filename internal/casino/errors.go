package casino

import (
	"errors"

	"croupier/internal/storage"
)

var (
	ErrBetTooSmall     = errors.New("bet below table minimum")
	ErrBetTooLarge     = errors.New("bet above table maximum")
	ErrCasinoDisabled  = errors.New("casino disabled in this guild")
	ErrRateLimited     = errors.New("too many bets, slow down")
	ErrCreditFailed    = errors.New("winnings could not be credited")
	ErrSessionNotFound = errors.New("session not found or expired")
	ErrNotSessionOwner = errors.New("session belongs to another player")

	// ErrInsufficientBalance is the ledger's error, so errors.Is works on both sides.
	ErrInsufficientBalance = storage.ErrInsufficientBalance
)
