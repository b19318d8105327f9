package wager

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEventAttributes(t *testing.T) {
	authority := newTestAddress(0xAA)
	outcome := uint8(50)
	game := &Game{
		ID:        GameID(authority),
		Authority: authority,
		Outcome:   &outcome,
		Phase:     PhaseRevealOpen,
		BetCount:  2,
		Pot:       3000,
	}
	bet := &Bet{
		Player: newTestAddress(0x01),
		Game:   game.ID,
		Amount: 1000,
	}

	evt := NewPayoutClaimedEvent(game, bet, 4000)
	require.Equal(t, EventTypePayoutClaimed, evt.Type)
	require.Equal(t, hex.EncodeToString(game.ID[:]), evt.Attributes["game"])
	require.Equal(t, hex.EncodeToString(authority[:]), evt.Attributes["authority"])
	require.Equal(t, "reveal_open", evt.Attributes["phase"])
	require.Equal(t, "3000", evt.Attributes["pot"])
	require.Equal(t, "50", evt.Attributes["outcome"])
	require.Equal(t, hex.EncodeToString(bet.Player[:]), evt.Attributes["player"])
	require.Equal(t, "1000", evt.Attributes["amount"])
	require.Equal(t, "4000", evt.Attributes["payout"])
}

func TestEventOutcomeOmittedWhileHidden(t *testing.T) {
	game := &Game{ID: GameID(newTestAddress(0xAA)), Phase: PhaseOpen}
	evt := NewGameInitializedEvent(game)
	require.Equal(t, EventTypeGameInitialized, evt.Type)
	_, ok := evt.Attributes["outcome"]
	require.False(t, ok)
}

func TestDeferredEventCarriesDeadline(t *testing.T) {
	outcome := uint8(50)
	game := &Game{
		ID:                 GameID(newTestAddress(0xAA)),
		Outcome:            &outcome,
		Phase:              PhaseRevealOpen,
		FinalClaimDeadline: 2000,
	}
	bet := &Bet{Player: newTestAddress(0x01), Game: game.ID, Amount: 100}
	evt := NewPayoutDeferredEvent(game, bet, 400)
	require.Equal(t, "2000", evt.Attributes["finalClaimDeadline"])
	require.Equal(t, "400", evt.Attributes["payout"])
}
