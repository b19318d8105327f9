package wager

import (
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// GamePhase is the lifecycle state of the wager round. The settling window
// between the reveal deadline and the final claim deadline is not a stored
// phase; every guard in that window keys off the timestamps instead.
type GamePhase uint8

const (
	PhaseOpen GamePhase = iota
	PhaseRevealOpen
	PhaseClosed
)

// String returns the canonical lowercase label for the phase.
func (p GamePhase) String() string {
	switch p {
	case PhaseOpen:
		return "open"
	case PhaseRevealOpen:
		return "reveal_open"
	case PhaseClosed:
		return "closed"
	default:
		return fmt.Sprintf("phase(%d)", uint8(p))
	}
}

// Valid reports whether the phase value is within the supported range.
func (p GamePhase) Valid() bool {
	switch p {
	case PhaseOpen, PhaseRevealOpen, PhaseClosed:
		return true
	default:
		return false
	}
}

// MaxBetAmount caps a single stake. Bets are accepted in (0, MaxBetAmount].
const MaxBetAmount uint64 = 1_000_000_000

// MaxOutcome bounds both the submitted outcome and every guess.
const MaxOutcome uint8 = 100

var gameSeed = []byte("nugwager/game")

// GameID derives the deterministic identifier for the game hosted by the
// given authority.
func GameID(authority [20]byte) [32]byte {
	var id [32]byte
	copy(id[:], ethcrypto.Keccak256(gameSeed, authority[:]))
	return id
}

// Game is the singleton round record. Outcome is nil until the authority
// submits it. Deadlines use unix seconds; zero means unset. When all three
// are set they are strictly increasing: submission < reveal < finalClaim.
type Game struct {
	ID                 [32]byte
	Authority          [20]byte
	Outcome            *uint8
	Phase              GamePhase
	BetCount           uint64
	Pot                uint64
	SubmissionDeadline int64
	RevealDeadline     int64
	FinalClaimDeadline int64
}

// Clone returns a deep copy so callers can mutate freely without touching the
// stored instance.
func (g *Game) Clone() *Game {
	if g == nil {
		return nil
	}
	clone := *g
	if g.Outcome != nil {
		outcome := *g.Outcome
		clone.Outcome = &outcome
	}
	return &clone
}

// Bet is the per-participant stake record. Amount is immutable after
// creation. AttemptedReveal flips the first time a winning reveal could not
// be paid from operator liquidity; Claimed flips when a payout or refund has
// actually been transferred, immediately before the record is deleted.
type Bet struct {
	Player          [20]byte
	Game            [32]byte
	Commitment      Commitment
	Amount          uint64
	AttemptedReveal bool
	Claimed         bool
}

// Clone returns a copy of the bet record.
func (b *Bet) Clone() *Bet {
	if b == nil {
		return nil
	}
	clone := *b
	return &clone
}

// SanitizeGame validates a game record before it is persisted or served.
func SanitizeGame(g *Game) (*Game, error) {
	if g == nil {
		return nil, fmt.Errorf("wager: nil game")
	}
	clone := g.Clone()
	if !clone.Phase.Valid() {
		return nil, fmt.Errorf("wager: invalid game phase: %d", clone.Phase)
	}
	if clone.Outcome != nil && *clone.Outcome > MaxOutcome {
		return nil, fmt.Errorf("wager: outcome out of range: %d", *clone.Outcome)
	}
	if clone.Phase != PhaseOpen && clone.Outcome == nil && clone.Phase != PhaseClosed {
		return nil, fmt.Errorf("wager: phase %s requires a submitted outcome", clone.Phase)
	}
	if clone.RevealDeadline != 0 && clone.SubmissionDeadline != 0 && clone.RevealDeadline <= clone.SubmissionDeadline {
		return nil, fmt.Errorf("wager: reveal deadline must follow submission deadline")
	}
	if clone.FinalClaimDeadline != 0 && clone.RevealDeadline != 0 && clone.FinalClaimDeadline <= clone.RevealDeadline {
		return nil, fmt.Errorf("wager: final claim deadline must follow reveal deadline")
	}
	return clone, nil
}

// SanitizeBet validates a bet record before it is persisted or served.
func SanitizeBet(b *Bet) (*Bet, error) {
	if b == nil {
		return nil, fmt.Errorf("wager: nil bet")
	}
	clone := b.Clone()
	if clone.Amount == 0 {
		return nil, fmt.Errorf("wager: bet amount must be positive")
	}
	if clone.Amount > MaxBetAmount {
		return nil, fmt.Errorf("wager: bet amount exceeds maximum: %d", clone.Amount)
	}
	return clone, nil
}
