package wager

import (
	"time"

	"nugwager/core/events"
)

// Default settlement windows, measured from the previous deadline in the
// chain: the reveal window opens when the result is submitted and the final
// claim window opens when the reveal window closes.
const (
	DefaultRevealWindow     int64 = 7 * 24 * 60 * 60
	DefaultFinalClaimWindow int64 = 7 * 24 * 60 * 60
)

// engineState is the narrow view of persistent state the engine needs. The
// backing implementation must serialize whole operations; the engine itself
// performs no locking. Escrow deposits and withdrawals move value between a
// participant account and the escrow vault atomically with the paired record
// writes.
type engineState interface {
	WagerGameGet() (*Game, bool)
	WagerGamePut(*Game) error
	WagerBetGet(player [20]byte) (*Bet, bool)
	WagerBetPut(*Bet) error
	WagerBetDelete(player [20]byte) error
	WagerBetList() ([]*Bet, error)
	EscrowBalance() (uint64, error)
	EscrowDeposit(from [20]byte, amount uint64) error
	EscrowWithdraw(to [20]byte, amount uint64) error
}

// RevealStatus describes how a successful RevealAndClaim settled.
type RevealStatus uint8

const (
	// RevealPaid: the payout was transferred and the bet is settled.
	RevealPaid RevealStatus = iota
	// RevealLost: the guess exceeded the outcome; the stake stays in escrow
	// for the operator and the bet is settled.
	RevealLost
	// RevealDeferred: the payout exceeded operator liquidity. Nothing was
	// transferred; the participant holds a refund right until the final claim
	// deadline.
	RevealDeferred
)

// String returns the canonical label for the status.
func (s RevealStatus) String() string {
	switch s {
	case RevealPaid:
		return "paid"
	case RevealLost:
		return "lost"
	case RevealDeferred:
		return "deferred"
	default:
		return "unknown"
	}
}

// RevealResult reports the settlement of a reveal back to the caller.
type RevealResult struct {
	Status     RevealStatus
	Difference uint8
	Payout     uint64
}

// Engine implements the escrow-accounting state machine for a single
// commit-reveal wager round. All validation happens before any mutation, so
// a returned error implies no observable effect as long as the state backend
// applies writes atomically per operation.
type Engine struct {
	state            engineState
	emitter          events.Emitter
	nowFn            func() int64
	revealWindow     int64
	finalClaimWindow int64
}

// NewEngine creates a wager engine with a no-op emitter and default
// settlement windows.
func NewEngine() *Engine {
	return &Engine{
		emitter:          events.NoopEmitter{},
		nowFn:            func() int64 { return time.Now().Unix() },
		revealWindow:     DefaultRevealWindow,
		finalClaimWindow: DefaultFinalClaimWindow,
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source. Primarily intended for tests.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetWindows overrides the reveal and final-claim window durations in
// seconds. Non-positive values keep the current setting.
func (e *Engine) SetWindows(reveal, finalClaim int64) {
	if reveal > 0 {
		e.revealWindow = reveal
	}
	if finalClaim > 0 {
		e.finalClaimWindow = finalClaim
	}
}

func (e *Engine) emit(evt *events.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(evt)
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) loadGame() (*Game, error) {
	if e == nil || e.state == nil {
		return nil, ErrGameNotFound
	}
	game, ok := e.state.WagerGameGet()
	if !ok {
		return nil, ErrGameNotFound
	}
	return game, nil
}

func checkedAdd(a, b uint64) (uint64, error) {
	sum := a + b
	if sum < a {
		return 0, ErrOverflow
	}
	return sum, nil
}

// potSub extinguishes a stake obligation. Underflow here means the pot no
// longer reflects the outstanding bets, which is unrecoverable.
func potSub(pot, amount uint64) (uint64, error) {
	if amount > pot {
		return 0, ErrPotDesynced
	}
	return pot - amount, nil
}

// InitializeGame creates the singleton game record in the Open phase with a
// zeroed pot. The submission deadline must be in the future.
func (e *Engine) InitializeGame(authority [20]byte, submissionDeadline int64) (*Game, error) {
	if e == nil || e.state == nil {
		return nil, ErrGameNotFound
	}
	if _, ok := e.state.WagerGameGet(); ok {
		return nil, ErrGameExists
	}
	if submissionDeadline <= e.now() {
		return nil, ErrInvalidDeadline
	}
	game := &Game{
		ID:                 GameID(authority),
		Authority:          authority,
		Phase:              PhaseOpen,
		SubmissionDeadline: submissionDeadline,
	}
	if err := e.state.WagerGamePut(game); err != nil {
		return nil, err
	}
	e.emit(NewGameInitializedEvent(game))
	return game.Clone(), nil
}

// FundTreasury deposits operator liquidity into the escrow. The pot is
// untouched, so the whole deposit widens operator liquidity. Any account may
// fund; only the authority can ever sweep it back out.
func (e *Engine) FundTreasury(from [20]byte, amount uint64) error {
	game, err := e.loadGame()
	if err != nil {
		return err
	}
	if game.Phase == PhaseClosed {
		return ErrGameClosed
	}
	if amount == 0 {
		return ErrInvalidBetAmount
	}
	if err := e.state.EscrowDeposit(from, amount); err != nil {
		return err
	}
	e.emit(NewTreasuryFundedEvent(game, from, amount))
	return nil
}

// CommitBet stakes amount against a hidden commitment. One bet per
// participant; the stake moves into escrow and the pot grows by the same
// amount, keeping escrowBalance >= pot.
func (e *Engine) CommitBet(player [20]byte, commitment Commitment, amount uint64) (*Bet, error) {
	game, err := e.loadGame()
	if err != nil {
		return nil, err
	}
	if game.Phase != PhaseOpen || game.Outcome != nil {
		return nil, ErrBettingClosed
	}
	if e.now() >= game.SubmissionDeadline {
		return nil, ErrSubmissionExpired
	}
	if amount == 0 || amount > MaxBetAmount {
		return nil, ErrInvalidBetAmount
	}
	if _, ok := e.state.WagerBetGet(player); ok {
		return nil, ErrBetExists
	}
	pot, err := checkedAdd(game.Pot, amount)
	if err != nil {
		return nil, err
	}
	betCount, err := checkedAdd(game.BetCount, 1)
	if err != nil {
		return nil, err
	}
	if err := e.state.EscrowDeposit(player, amount); err != nil {
		return nil, err
	}
	bet := &Bet{
		Player:     player,
		Game:       game.ID,
		Commitment: commitment,
		Amount:     amount,
	}
	if err := e.state.WagerBetPut(bet); err != nil {
		return nil, err
	}
	game.Pot = pot
	game.BetCount = betCount
	if err := e.state.WagerGamePut(game); err != nil {
		return nil, err
	}
	e.emit(NewBetCommittedEvent(game, bet))
	return bet.Clone(), nil
}

// SubmitResult discloses the outcome, moves the game to RevealOpen and fixes
// the reveal deadline one reveal-window past the submission deadline.
func (e *Engine) SubmitResult(caller [20]byte, outcome uint8) error {
	game, err := e.loadGame()
	if err != nil {
		return err
	}
	if caller != game.Authority {
		return ErrInvalidAuthority
	}
	if outcome > MaxOutcome {
		return ErrInvalidOutcome
	}
	if game.Phase == PhaseClosed {
		return ErrGameClosed
	}
	if game.Outcome != nil || game.Phase != PhaseOpen {
		return ErrResultAlreadySubmitted
	}
	if e.now() >= game.SubmissionDeadline {
		return ErrSubmissionExpired
	}
	game.Outcome = &outcome
	game.Phase = PhaseRevealOpen
	game.RevealDeadline = game.SubmissionDeadline + e.revealWindow
	if err := e.state.WagerGamePut(game); err != nil {
		return err
	}
	e.emit(NewResultSubmittedEvent(game))
	return nil
}

// RevealAndClaim verifies the commitment and settles the bet. A win pays
// immediately when operator liquidity covers the payout, otherwise the claim
// is deferred: the bet is flagged, the final claim deadline is fixed, and no
// funds move. Deferral is a successful completion for the caller. A deferred
// bet may be revealed again while the window is open in case the operator
// has funded the escrow since.
func (e *Engine) RevealAndClaim(player [20]byte, guess uint8, salt uint64) (*RevealResult, error) {
	if guess > MaxOutcome {
		return nil, ErrInvalidGuess
	}
	game, err := e.loadGame()
	if err != nil {
		return nil, err
	}
	if game.Phase == PhaseClosed {
		return nil, ErrGameClosed
	}
	if game.Outcome == nil || game.Phase != PhaseRevealOpen {
		return nil, ErrResultNotSubmitted
	}
	if e.now() >= game.RevealDeadline {
		return nil, ErrRevealClosed
	}
	bet, ok := e.state.WagerBetGet(player)
	if !ok {
		return nil, ErrBetNotFound
	}
	if bet.Game != game.ID {
		return nil, ErrGameMismatch
	}
	if game.Pot < bet.Amount {
		return nil, ErrPotDesynced
	}
	if !bet.Commitment.Matches(guess, salt) {
		return nil, ErrCommitmentMismatch
	}
	outcome := *game.Outcome

	// Loss: the guess overshot the outcome. The stake stays in escrow and
	// becomes operator liquidity once the pot obligation is dropped.
	if guess > outcome {
		return e.settleLoss(game, bet)
	}

	difference := outcome - guess
	payout, err := PayoutAmount(bet.Amount, difference)
	if err != nil {
		return nil, err
	}
	if payout == 0 {
		// The curve floor keeps every multiplier positive, so this is
		// unreachable; settle as a loss rather than move zero funds.
		return e.settleLoss(game, bet)
	}

	balance, err := e.state.EscrowBalance()
	if err != nil {
		return nil, err
	}
	if balance < game.Pot {
		return nil, ErrPotDesynced
	}
	liquidity := balance - game.Pot
	if payout > liquidity {
		bet.AttemptedReveal = true
		if err := e.state.WagerBetPut(bet); err != nil {
			return nil, err
		}
		if game.FinalClaimDeadline == 0 {
			game.FinalClaimDeadline = game.RevealDeadline + e.finalClaimWindow
			if err := e.state.WagerGamePut(game); err != nil {
				return nil, err
			}
		}
		e.emit(NewPayoutDeferredEvent(game, bet, payout))
		return &RevealResult{Status: RevealDeferred, Difference: difference, Payout: payout}, nil
	}

	// The stake obligation is extinguished; the excess over the stake comes
	// out of operator liquidity.
	pot, err := potSub(game.Pot, bet.Amount)
	if err != nil {
		return nil, err
	}
	if err := e.state.EscrowWithdraw(player, payout); err != nil {
		return nil, err
	}
	game.Pot = pot
	if err := e.state.WagerGamePut(game); err != nil {
		return nil, err
	}
	bet.Claimed = true
	if err := e.state.WagerBetDelete(player); err != nil {
		return nil, err
	}
	e.emit(NewPayoutClaimedEvent(game, bet, payout))
	return &RevealResult{Status: RevealPaid, Difference: difference, Payout: payout}, nil
}

func (e *Engine) settleLoss(game *Game, bet *Bet) (*RevealResult, error) {
	pot, err := potSub(game.Pot, bet.Amount)
	if err != nil {
		return nil, err
	}
	game.Pot = pot
	if err := e.state.WagerGamePut(game); err != nil {
		return nil, err
	}
	if err := e.state.WagerBetDelete(bet.Player); err != nil {
		return nil, err
	}
	e.emit(NewBetLostEvent(game, bet))
	return &RevealResult{Status: RevealLost}, nil
}

// WithdrawUnpaidBet refunds exactly the original stake of a deferred payout.
// Only open strictly between the reveal deadline and the final claim
// deadline. An escrow that cannot cover the stake is the operator's fault
// and is surfaced, never absorbed.
func (e *Engine) WithdrawUnpaidBet(player [20]byte) (uint64, error) {
	game, err := e.loadGame()
	if err != nil {
		return 0, err
	}
	if game.Phase == PhaseClosed {
		return 0, ErrGameClosed
	}
	if game.Outcome == nil || game.RevealDeadline == 0 {
		return 0, ErrResultNotSubmitted
	}
	bet, ok := e.state.WagerBetGet(player)
	if !ok {
		return 0, ErrBetNotFound
	}
	if bet.Game != game.ID {
		return 0, ErrGameMismatch
	}
	if !bet.AttemptedReveal || bet.Claimed {
		return 0, ErrBetNotDeferred
	}
	now := e.now()
	if now <= game.RevealDeadline {
		return 0, ErrWithdrawNotOpen
	}
	if game.FinalClaimDeadline == 0 || now >= game.FinalClaimDeadline {
		return 0, ErrWithdrawExpired
	}
	return e.refundBet(game, bet, NewBetWithdrawnEvent)
}

// ReclaimBetOnTimeout refunds a stake after the authority abandoned the game
// by missing the submission deadline. Each participant reclaims
// independently; there is no ordering among refunds.
func (e *Engine) ReclaimBetOnTimeout(player [20]byte) (uint64, error) {
	game, err := e.loadGame()
	if err != nil {
		return 0, err
	}
	if game.Phase == PhaseClosed {
		return 0, ErrGameClosed
	}
	if game.Outcome != nil {
		return 0, ErrResultAlreadySubmitted
	}
	if e.now() < game.SubmissionDeadline {
		return 0, ErrSubmissionNotExpired
	}
	bet, ok := e.state.WagerBetGet(player)
	if !ok {
		return 0, ErrBetNotFound
	}
	if bet.Game != game.ID {
		return 0, ErrGameMismatch
	}
	return e.refundBet(game, bet, NewBetReclaimedEvent)
}

func (e *Engine) refundBet(game *Game, bet *Bet, eventFn func(*Game, *Bet) *events.Event) (uint64, error) {
	balance, err := e.state.EscrowBalance()
	if err != nil {
		return 0, err
	}
	if balance < bet.Amount {
		return 0, ErrInsufficientEscrow
	}
	pot, err := potSub(game.Pot, bet.Amount)
	if err != nil {
		return 0, err
	}
	if err := e.state.EscrowWithdraw(bet.Player, bet.Amount); err != nil {
		return 0, err
	}
	game.Pot = pot
	if err := e.state.WagerGamePut(game); err != nil {
		return 0, err
	}
	bet.Claimed = true
	if err := e.state.WagerBetDelete(bet.Player); err != nil {
		return 0, err
	}
	e.emit(eventFn(game, bet))
	return bet.Amount, nil
}

// ClaimRemainingTreasury sweeps the entire escrow balance to the authority
// and closes the game. Gated so that every deferred participant had a full
// withdraw window first: the reveal deadline must have passed, and if a
// final claim deadline was ever set it must have elapsed too. Residual pot
// after the sweep is an accepted accounting artifact; the claims it backed
// are forfeit.
func (e *Engine) ClaimRemainingTreasury(caller [20]byte) (uint64, error) {
	game, err := e.loadGame()
	if err != nil {
		return 0, err
	}
	if caller != game.Authority {
		return 0, ErrInvalidAuthority
	}
	if game.Phase == PhaseClosed {
		return 0, ErrGameClosed
	}
	if game.Outcome == nil {
		return 0, ErrResultNotSubmitted
	}
	now := e.now()
	if game.RevealDeadline == 0 || now < game.RevealDeadline {
		return 0, ErrTreasuryClaimLocked
	}
	if game.FinalClaimDeadline != 0 && now < game.FinalClaimDeadline {
		return 0, ErrTreasuryClaimLocked
	}
	balance, err := e.state.EscrowBalance()
	if err != nil {
		return 0, err
	}
	if balance == 0 {
		return 0, ErrTreasuryEmpty
	}
	if err := e.state.EscrowWithdraw(game.Authority, balance); err != nil {
		return 0, err
	}
	game.Phase = PhaseClosed
	if err := e.state.WagerGamePut(game); err != nil {
		return 0, err
	}
	e.emit(NewTreasuryClaimedEvent(game, balance))
	return balance, nil
}

// Game returns a copy of the current game record.
func (e *Engine) Game() (*Game, error) {
	game, err := e.loadGame()
	if err != nil {
		return nil, err
	}
	return game.Clone(), nil
}

// Bet returns a copy of the participant's outstanding bet record.
func (e *Engine) Bet(player [20]byte) (*Bet, error) {
	if e == nil || e.state == nil {
		return nil, ErrBetNotFound
	}
	bet, ok := e.state.WagerBetGet(player)
	if !ok {
		return nil, ErrBetNotFound
	}
	return bet.Clone(), nil
}

// AuditInvariant verifies the two global accounting invariants: the escrow
// balance covers the pot, and the pot equals the sum of all unsettled
// stakes. Intended for tests and operator tooling.
func (e *Engine) AuditInvariant() error {
	game, err := e.loadGame()
	if err != nil {
		return err
	}
	if game.Phase == PhaseClosed {
		// Residual pot after the sweep is an accepted artifact.
		return nil
	}
	balance, err := e.state.EscrowBalance()
	if err != nil {
		return err
	}
	if balance < game.Pot {
		return ErrPotDesynced
	}
	bets, err := e.state.WagerBetList()
	if err != nil {
		return err
	}
	var sum uint64
	for _, bet := range bets {
		sum, err = checkedAdd(sum, bet.Amount)
		if err != nil {
			return err
		}
	}
	if sum != game.Pot {
		return ErrPotDesynced
	}
	return nil
}
