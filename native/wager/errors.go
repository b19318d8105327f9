package wager

import "errors"

// Rejections are grouped by failure class so RPC callers can distinguish
// "retry later" (deadline gates) from "never valid" (bad values) from
// "operator fault" (liquidity). Arithmetic desync errors are fatal: they
// indicate the pot and the escrow balance have diverged, which no caller
// action can repair.
var (
	// Validation.
	ErrInvalidGuess     = errors.New("wager: guess must be between 0 and 100")
	ErrInvalidOutcome   = errors.New("wager: outcome must be between 0 and 100")
	ErrInvalidBetAmount = errors.New("wager: bet amount out of range")
	ErrInvalidDeadline  = errors.New("wager: deadline must be in the future")

	// Authorization.
	ErrInvalidAuthority = errors.New("wager: caller is not the game authority")

	// Phase and deadline gates.
	ErrGameExists             = errors.New("wager: game already initialized")
	ErrGameNotFound           = errors.New("wager: game not initialized")
	ErrGameClosed             = errors.New("wager: game is closed")
	ErrBettingClosed          = errors.New("wager: betting is closed")
	ErrResultAlreadySubmitted = errors.New("wager: result already submitted")
	ErrResultNotSubmitted     = errors.New("wager: result not submitted")
	ErrSubmissionExpired      = errors.New("wager: submission deadline has passed")
	ErrSubmissionNotExpired   = errors.New("wager: submission deadline has not passed")
	ErrRevealClosed           = errors.New("wager: reveal window is closed")
	ErrWithdrawNotOpen        = errors.New("wager: withdraw window has not opened")
	ErrWithdrawExpired        = errors.New("wager: withdraw window has closed")
	ErrTreasuryClaimLocked    = errors.New("wager: treasury claim window has not opened")

	// Bet record state.
	ErrBetExists      = errors.New("wager: participant already committed a bet")
	ErrBetNotFound    = errors.New("wager: no bet found for participant")
	ErrBetNotDeferred = errors.New("wager: bet has no deferred payout to withdraw")
	ErrGameMismatch   = errors.New("wager: bet references a different game")

	// Integrity.
	ErrCommitmentMismatch = errors.New("wager: revealed guess and salt do not match commitment")

	// Arithmetic. Fatal: the escrow accounting invariant has been breached.
	ErrOverflow    = errors.New("wager: arithmetic overflow")
	ErrPotDesynced = errors.New("wager: player pot desynchronized from escrow balance")

	// Liquidity.
	ErrInsufficientEscrow = errors.New("wager: escrow balance cannot cover refund")
	ErrTreasuryEmpty      = errors.New("wager: escrow is empty, nothing to claim")
)
