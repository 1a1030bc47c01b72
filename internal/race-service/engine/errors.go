package engine

import (
	"context"
	"errors"

	"github.com/radieske/race-bet-platform/internal/shared/auth"
)

// Classes de erro; toda falha de regra de negócio embrulha uma delas
var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrValidation    = errors.New("validation failed")
	ErrStateConflict = errors.New("state conflict")
	ErrConsistency   = errors.New("consistency violation")
	ErrNotFound      = errors.New("not found")
)

// Error carrega o motivo legível e a classe
type Error struct {
	Kind   error
	Reason string
}

func (e *Error) Error() string { return e.Reason }
func (e *Error) Unwrap() error { return e.Kind }

func newErr(kind error, reason string) *Error { return &Error{Kind: kind, Reason: reason} }

var (
	ErrNotAdmin       = newErr(ErrUnauthorized, "admin capability required")
	ErrNoCaller       = newErr(ErrUnauthorized, "caller identity required")
	ErrWalletNotOwned = newErr(ErrUnauthorized, "wallet not owned by caller")

	ErrInvalidAmount      = newErr(ErrValidation, "amount must be positive")
	ErrUnknownBetType     = newErr(ErrValidation, "unknown bet type")
	ErrInvalidSelection   = newErr(ErrValidation, "invalid selection")
	ErrUnknownEntrant     = newErr(ErrValidation, "entrant does not belong to race")
	ErrInvalidPosition    = newErr(ErrValidation, "finish position must be positive")
	ErrInvalidTakeout     = newErr(ErrValidation, "takeout rate must be in [0, 1)")
	ErrInvalidMode        = newErr(ErrValidation, "unknown payout mode")
	ErrInvalidConsolation = newErr(ErrValidation, "consolation rate must be in [0, 1]")
	ErrNoResults          = newErr(ErrValidation, "no results provided")

	ErrRaceNotAccepting    = newErr(ErrStateConflict, "race not accepting wagers")
	ErrInsufficientBalance = newErr(ErrStateConflict, "insufficient balance")
	ErrRaceNotSettleable   = newErr(ErrStateConflict, "race cannot be settled in its current state")
	ErrAlreadyFinalized    = newErr(ErrStateConflict, "race already finalized")
	ErrNotSettled          = newErr(ErrStateConflict, "race has not been settled")
	ErrResetNotAllowed     = newErr(ErrStateConflict, "finalized race cannot be reset")
	ErrRaceNotClosable     = newErr(ErrStateConflict, "race cannot be closed in its current state")

	ErrWalletMissing = newErr(ErrConsistency, "wallet disappeared during transaction")
)

func requireAdmin(ctx context.Context) (auth.Caller, error) {
	c, ok := auth.FromContext(ctx)
	if !ok {
		return auth.Caller{}, ErrNoCaller
	}
	if !c.IsAdmin() {
		return c, ErrNotAdmin
	}
	return c, nil
}
