package wager

import (
	"encoding/hex"
	"strconv"

	"nugwager/core/events"
)

const (
	EventTypeGameInitialized = "wager.game_initialized"
	EventTypeBetCommitted    = "wager.bet_committed"
	EventTypeResultSubmitted = "wager.result_submitted"
	EventTypePayoutClaimed   = "wager.payout_claimed"
	EventTypeBetLost         = "wager.bet_lost"
	EventTypePayoutDeferred  = "wager.payout_deferred"
	EventTypeBetWithdrawn    = "wager.bet_withdrawn"
	EventTypeBetReclaimed    = "wager.bet_reclaimed"
	EventTypeTreasuryFunded  = "wager.treasury_funded"
	EventTypeTreasuryClaimed = "wager.treasury_claimed"
)

// NewGameInitializedEvent returns the canonical payload for a freshly created
// game record.
func NewGameInitializedEvent(g *Game) *events.Event {
	evt := newGameEvent(EventTypeGameInitialized, g)
	return evt
}

// NewBetCommittedEvent returns the payload emitted when a participant stakes
// against a commitment.
func NewBetCommittedEvent(g *Game, b *Bet) *events.Event {
	evt := newGameEvent(EventTypeBetCommitted, g)
	addBetAttributes(evt, b)
	return evt
}

// NewResultSubmittedEvent returns the payload emitted when the authority
// discloses the outcome.
func NewResultSubmittedEvent(g *Game) *events.Event {
	return newGameEvent(EventTypeResultSubmitted, g)
}

// NewPayoutClaimedEvent returns the payload for an immediately funded payout.
func NewPayoutClaimedEvent(g *Game, b *Bet, payout uint64) *events.Event {
	evt := newGameEvent(EventTypePayoutClaimed, g)
	addBetAttributes(evt, b)
	evt.Attributes["payout"] = strconv.FormatUint(payout, 10)
	return evt
}

// NewBetLostEvent returns the payload for a losing reveal.
func NewBetLostEvent(g *Game, b *Bet) *events.Event {
	evt := newGameEvent(EventTypeBetLost, g)
	addBetAttributes(evt, b)
	return evt
}

// NewPayoutDeferredEvent returns the payload emitted when operator liquidity
// cannot cover a winning payout and the claim is converted into a time-boxed
// refund right.
func NewPayoutDeferredEvent(g *Game, b *Bet, payout uint64) *events.Event {
	evt := newGameEvent(EventTypePayoutDeferred, g)
	addBetAttributes(evt, b)
	evt.Attributes["payout"] = strconv.FormatUint(payout, 10)
	evt.Attributes["finalClaimDeadline"] = strconv.FormatInt(g.FinalClaimDeadline, 10)
	return evt
}

// NewBetWithdrawnEvent returns the payload for a stake-only refund of a
// deferred payout.
func NewBetWithdrawnEvent(g *Game, b *Bet) *events.Event {
	evt := newGameEvent(EventTypeBetWithdrawn, g)
	addBetAttributes(evt, b)
	return evt
}

// NewBetReclaimedEvent returns the payload for a refund after the authority
// abandoned the game.
func NewBetReclaimedEvent(g *Game, b *Bet) *events.Event {
	evt := newGameEvent(EventTypeBetReclaimed, g)
	addBetAttributes(evt, b)
	return evt
}

// NewTreasuryFundedEvent returns the payload for an operator liquidity
// deposit into the escrow.
func NewTreasuryFundedEvent(g *Game, from [20]byte, amount uint64) *events.Event {
	evt := newGameEvent(EventTypeTreasuryFunded, g)
	evt.Attributes["from"] = hex.EncodeToString(from[:])
	evt.Attributes["amount"] = strconv.FormatUint(amount, 10)
	return evt
}

// NewTreasuryClaimedEvent returns the payload for the final escrow sweep.
func NewTreasuryClaimedEvent(g *Game, amount uint64) *events.Event {
	evt := newGameEvent(EventTypeTreasuryClaimed, g)
	evt.Attributes["amount"] = strconv.FormatUint(amount, 10)
	return evt
}

func newGameEvent(eventType string, g *Game) *events.Event {
	attrs := make(map[string]string)
	evt := &events.Event{Type: eventType, Attributes: attrs}
	if g == nil {
		return evt
	}
	attrs["game"] = hex.EncodeToString(g.ID[:])
	attrs["authority"] = hex.EncodeToString(g.Authority[:])
	attrs["phase"] = g.Phase.String()
	attrs["pot"] = strconv.FormatUint(g.Pot, 10)
	attrs["betCount"] = strconv.FormatUint(g.BetCount, 10)
	if g.Outcome != nil {
		attrs["outcome"] = strconv.FormatUint(uint64(*g.Outcome), 10)
	}
	return evt
}

func addBetAttributes(evt *events.Event, b *Bet) {
	if evt == nil || b == nil {
		return
	}
	evt.Attributes["player"] = hex.EncodeToString(b.Player[:])
	evt.Attributes["amount"] = strconv.FormatUint(b.Amount, 10)
}
