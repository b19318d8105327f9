package wager

import (
	"testing"

	"github.com/stretchr/testify/require"

	"nugwager/core/events"
)

type mockState struct {
	game     *Game
	bets     map[[20]byte]*Bet
	accounts map[[20]byte]uint64
	escrow   uint64
}

func newMockState() *mockState {
	return &mockState{
		bets:     make(map[[20]byte]*Bet),
		accounts: make(map[[20]byte]uint64),
	}
}

func newTestAddress(fill byte) [20]byte {
	var addr [20]byte
	for i := range addr {
		addr[i] = fill
	}
	return addr
}

func (m *mockState) WagerGameGet() (*Game, bool) {
	if m.game == nil {
		return nil, false
	}
	return m.game.Clone(), true
}

func (m *mockState) WagerGamePut(g *Game) error {
	sanitized, err := SanitizeGame(g)
	if err != nil {
		return err
	}
	m.game = sanitized
	return nil
}

func (m *mockState) WagerBetGet(player [20]byte) (*Bet, bool) {
	bet, ok := m.bets[player]
	if !ok {
		return nil, false
	}
	return bet.Clone(), true
}

func (m *mockState) WagerBetPut(b *Bet) error {
	sanitized, err := SanitizeBet(b)
	if err != nil {
		return err
	}
	m.bets[sanitized.Player] = sanitized
	return nil
}

func (m *mockState) WagerBetDelete(player [20]byte) error {
	delete(m.bets, player)
	return nil
}

func (m *mockState) WagerBetList() ([]*Bet, error) {
	out := make([]*Bet, 0, len(m.bets))
	for _, bet := range m.bets {
		out = append(out, bet.Clone())
	}
	return out, nil
}

func (m *mockState) EscrowBalance() (uint64, error) {
	return m.escrow, nil
}

func (m *mockState) EscrowDeposit(from [20]byte, amount uint64) error {
	if m.accounts[from] < amount {
		return ErrInsufficientEscrow
	}
	m.accounts[from] -= amount
	m.escrow += amount
	return nil
}

func (m *mockState) EscrowWithdraw(to [20]byte, amount uint64) error {
	if m.escrow < amount {
		return ErrInsufficientEscrow
	}
	m.escrow -= amount
	m.accounts[to] += amount
	return nil
}

// Test timeline: submission deadline at t=1000, reveal window 500s, final
// claim window 500s.
const (
	testSubmissionDeadline int64 = 1000
	testRevealWindow       int64 = 500
	testFinalClaimWindow   int64 = 500
)

type testClock struct {
	now int64
}

func (c *testClock) Now() int64 { return c.now }

func newTestEngine(t *testing.T) (*Engine, *mockState, *events.MemoryEmitter, *testClock) {
	t.Helper()
	st := newMockState()
	emitter := events.NewMemoryEmitter(0)
	clock := &testClock{now: 100}
	engine := NewEngine()
	engine.SetState(st)
	engine.SetEmitter(emitter)
	engine.SetNowFunc(clock.Now)
	engine.SetWindows(testRevealWindow, testFinalClaimWindow)
	return engine, st, emitter, clock
}

var testAuthority = newTestAddress(0xAA)

func initTestGame(t *testing.T, engine *Engine) *Game {
	t.Helper()
	game, err := engine.InitializeGame(testAuthority, testSubmissionDeadline)
	require.NoError(t, err)
	return game
}

func fundAccount(st *mockState, addr [20]byte, amount uint64) {
	st.accounts[addr] += amount
}

func commitTestBet(t *testing.T, engine *Engine, st *mockState, player [20]byte, guess uint8, salt uint64, amount uint64) *Bet {
	t.Helper()
	fundAccount(st, player, amount)
	bet, err := engine.CommitBet(player, ComputeCommitment(guess, salt), amount)
	require.NoError(t, err)
	return bet
}

func TestInitializeGame(t *testing.T) {
	engine, st, emitter, _ := newTestEngine(t)

	game := initTestGame(t, engine)
	require.Equal(t, PhaseOpen, game.Phase)
	require.Nil(t, game.Outcome)
	require.Zero(t, game.Pot)
	require.Zero(t, game.BetCount)
	require.Equal(t, testSubmissionDeadline, game.SubmissionDeadline)
	require.Zero(t, game.RevealDeadline)
	require.Equal(t, GameID(testAuthority), game.ID)
	require.NotNil(t, st.game)

	_, err := engine.InitializeGame(testAuthority, testSubmissionDeadline)
	require.ErrorIs(t, err, ErrGameExists)

	require.Len(t, emitter.Events(), 1)
	require.Equal(t, EventTypeGameInitialized, emitter.Events()[0].Type)
}

func TestInitializeGameRejectsPastDeadline(t *testing.T) {
	engine, _, _, clock := newTestEngine(t)
	clock.now = 2000
	_, err := engine.InitializeGame(testAuthority, testSubmissionDeadline)
	require.ErrorIs(t, err, ErrInvalidDeadline)
}

func TestCommitBet(t *testing.T) {
	engine, st, _, _ := newTestEngine(t)
	initTestGame(t, engine)
	player := newTestAddress(0x01)

	bet := commitTestBet(t, engine, st, player, 42, 7, 500_000)
	require.Equal(t, uint64(500_000), bet.Amount)
	require.False(t, bet.AttemptedReveal)
	require.False(t, bet.Claimed)

	game, err := engine.Game()
	require.NoError(t, err)
	require.Equal(t, uint64(500_000), game.Pot)
	require.Equal(t, uint64(1), game.BetCount)
	require.Equal(t, uint64(500_000), st.escrow)
	require.Zero(t, st.accounts[player])

	require.NoError(t, engine.AuditInvariant())
}

func TestCommitBetRejectsDuplicate(t *testing.T) {
	engine, st, _, _ := newTestEngine(t)
	initTestGame(t, engine)
	player := newTestAddress(0x01)
	commitTestBet(t, engine, st, player, 42, 7, 100)

	fundAccount(st, player, 100)
	_, err := engine.CommitBet(player, ComputeCommitment(43, 8), 100)
	require.ErrorIs(t, err, ErrBetExists)
}

func TestCommitBetAmountBounds(t *testing.T) {
	engine, st, _, _ := newTestEngine(t)
	initTestGame(t, engine)
	player := newTestAddress(0x01)
	fundAccount(st, player, MaxBetAmount*2)

	_, err := engine.CommitBet(player, ComputeCommitment(1, 1), 0)
	require.ErrorIs(t, err, ErrInvalidBetAmount)

	_, err = engine.CommitBet(player, ComputeCommitment(1, 1), MaxBetAmount+1)
	require.ErrorIs(t, err, ErrInvalidBetAmount)

	_, err = engine.CommitBet(player, ComputeCommitment(1, 1), MaxBetAmount)
	require.NoError(t, err)
}

func TestCommitBetClosesAtDeadline(t *testing.T) {
	engine, st, _, clock := newTestEngine(t)
	initTestGame(t, engine)
	player := newTestAddress(0x01)
	fundAccount(st, player, 100)

	clock.now = testSubmissionDeadline
	_, err := engine.CommitBet(player, ComputeCommitment(1, 1), 100)
	require.ErrorIs(t, err, ErrSubmissionExpired)
}

func TestSubmitResult(t *testing.T) {
	engine, _, emitter, _ := newTestEngine(t)
	initTestGame(t, engine)

	require.ErrorIs(t, engine.SubmitResult(newTestAddress(0x01), 50), ErrInvalidAuthority)
	require.ErrorIs(t, engine.SubmitResult(testAuthority, 101), ErrInvalidOutcome)

	require.NoError(t, engine.SubmitResult(testAuthority, 50))
	game, err := engine.Game()
	require.NoError(t, err)
	require.Equal(t, PhaseRevealOpen, game.Phase)
	require.NotNil(t, game.Outcome)
	require.Equal(t, uint8(50), *game.Outcome)
	require.Equal(t, testSubmissionDeadline+testRevealWindow, game.RevealDeadline)

	require.ErrorIs(t, engine.SubmitResult(testAuthority, 50), ErrResultAlreadySubmitted)

	types := make([]string, 0)
	for _, evt := range emitter.Events() {
		types = append(types, evt.Type)
	}
	require.Contains(t, types, EventTypeResultSubmitted)
}

func TestSubmitResultAfterDeadline(t *testing.T) {
	engine, _, _, clock := newTestEngine(t)
	initTestGame(t, engine)
	clock.now = testSubmissionDeadline
	require.ErrorIs(t, engine.SubmitResult(testAuthority, 50), ErrSubmissionExpired)
}

func TestRevealRoundTrip(t *testing.T) {
	engine, st, _, clock := newTestEngine(t)
	initTestGame(t, engine)
	player := newTestAddress(0x01)
	commitTestBet(t, engine, st, player, 50, 12345, 1000)
	// Operator liquidity for the 4x payout on an exact hit.
	fundAccount(st, testAuthority, 10_000)
	require.NoError(t, engine.FundTreasury(testAuthority, 10_000))
	require.NoError(t, engine.SubmitResult(testAuthority, 50))
	clock.now = 1100

	// A mismatched salt is a hard rejection with zero state change.
	potBefore := st.game.Pot
	escrowBefore := st.escrow
	_, err := engine.RevealAndClaim(player, 50, 99999)
	require.ErrorIs(t, err, ErrCommitmentMismatch)
	require.Equal(t, potBefore, st.game.Pot)
	require.Equal(t, escrowBefore, st.escrow)
	_, ok := st.bets[player]
	require.True(t, ok)

	// The committed pair settles.
	result, err := engine.RevealAndClaim(player, 50, 12345)
	require.NoError(t, err)
	require.Equal(t, RevealPaid, result.Status)
	require.NoError(t, engine.AuditInvariant())
}

func TestRevealRequiresResult(t *testing.T) {
	engine, st, _, _ := newTestEngine(t)
	initTestGame(t, engine)
	player := newTestAddress(0x01)
	commitTestBet(t, engine, st, player, 50, 1, 1000)

	_, err := engine.RevealAndClaim(player, 50, 1)
	require.ErrorIs(t, err, ErrResultNotSubmitted)
}

func TestRevealClosesAtDeadline(t *testing.T) {
	engine, st, _, clock := newTestEngine(t)
	initTestGame(t, engine)
	player := newTestAddress(0x01)
	commitTestBet(t, engine, st, player, 50, 1, 1000)
	require.NoError(t, engine.SubmitResult(testAuthority, 50))

	clock.now = testSubmissionDeadline + testRevealWindow
	_, err := engine.RevealAndClaim(player, 50, 1)
	require.ErrorIs(t, err, ErrRevealClosed)
}

// Scenario: exact hit with ample operator liquidity pays amount * 4.0.
func TestRevealExactHitPaysMaxMultiplier(t *testing.T) {
	engine, st, _, clock := newTestEngine(t)
	initTestGame(t, engine)
	player := newTestAddress(0x01)
	commitTestBet(t, engine, st, player, 50, 7, 1_000_000_000)
	fundAccount(st, testAuthority, 4_000_000_000)
	require.NoError(t, engine.FundTreasury(testAuthority, 4_000_000_000))
	require.NoError(t, engine.SubmitResult(testAuthority, 50))
	clock.now = 1200

	result, err := engine.RevealAndClaim(player, 50, 7)
	require.NoError(t, err)
	require.Equal(t, RevealPaid, result.Status)
	require.Equal(t, uint8(0), result.Difference)
	require.Equal(t, uint64(4_000_000_000), result.Payout)
	require.Equal(t, uint64(4_000_000_000), st.accounts[player])

	game, err := engine.Game()
	require.NoError(t, err)
	require.Zero(t, game.Pot)
	_, ok := st.bets[player]
	require.False(t, ok)
	require.NoError(t, engine.AuditInvariant())
}

// Scenario: one off the outcome pays amount * 3.490497.
func TestRevealNearMissPayout(t *testing.T) {
	engine, st, _, clock := newTestEngine(t)
	initTestGame(t, engine)
	player := newTestAddress(0x01)
	commitTestBet(t, engine, st, player, 49, 7, 1_000_000_000)
	fundAccount(st, testAuthority, 4_000_000_000)
	require.NoError(t, engine.FundTreasury(testAuthority, 4_000_000_000))
	require.NoError(t, engine.SubmitResult(testAuthority, 50))
	clock.now = 1200

	result, err := engine.RevealAndClaim(player, 49, 7)
	require.NoError(t, err)
	require.Equal(t, RevealPaid, result.Status)
	require.Equal(t, uint8(1), result.Difference)
	require.Equal(t, uint64(3_490_497_000), result.Payout)
}

// Scenario: an over-guess is an unconditional loss; no transfer, pot drops
// by the stake.
func TestRevealOverGuessLoses(t *testing.T) {
	engine, st, _, clock := newTestEngine(t)
	initTestGame(t, engine)
	player := newTestAddress(0x01)
	commitTestBet(t, engine, st, player, 51, 7, 1_000_000_000)
	require.NoError(t, engine.SubmitResult(testAuthority, 50))
	clock.now = 1200

	result, err := engine.RevealAndClaim(player, 51, 7)
	require.NoError(t, err)
	require.Equal(t, RevealLost, result.Status)
	require.Zero(t, result.Payout)
	require.Zero(t, st.accounts[player])

	game, err := engine.Game()
	require.NoError(t, err)
	require.Zero(t, game.Pot)
	// The stake stays in escrow as operator liquidity.
	require.Equal(t, uint64(1_000_000_000), st.escrow)
	_, ok := st.bets[player]
	require.False(t, ok)
	require.NoError(t, engine.AuditInvariant())
}

// Scenario: a winning payout the operator cannot cover is deferred, not
// failed. The pot is untouched and the final claim window opens.
func TestRevealDeferredWhenIlliquid(t *testing.T) {
	engine, st, emitter, clock := newTestEngine(t)
	initTestGame(t, engine)
	player := newTestAddress(0x01)
	commitTestBet(t, engine, st, player, 50, 7, 1_000_000_000)
	require.NoError(t, engine.SubmitResult(testAuthority, 50))
	clock.now = 1200

	result, err := engine.RevealAndClaim(player, 50, 7)
	require.NoError(t, err)
	require.Equal(t, RevealDeferred, result.Status)
	require.Equal(t, uint64(4_000_000_000), result.Payout)
	require.Zero(t, st.accounts[player])

	game, err := engine.Game()
	require.NoError(t, err)
	require.Equal(t, uint64(1_000_000_000), game.Pot)
	require.Equal(t, game.RevealDeadline+testFinalClaimWindow, game.FinalClaimDeadline)

	bet, err := engine.Bet(player)
	require.NoError(t, err)
	require.True(t, bet.AttemptedReveal)
	require.False(t, bet.Claimed)
	require.NoError(t, engine.AuditInvariant())

	found := false
	for _, evt := range emitter.Events() {
		if evt.Type == EventTypePayoutDeferred {
			found = true
		}
	}
	require.True(t, found)
}

// A deferred participant may reveal again once the operator funds the
// escrow, while the reveal window is still open.
func TestDeferredRevealRetriesAfterFunding(t *testing.T) {
	engine, st, _, clock := newTestEngine(t)
	initTestGame(t, engine)
	player := newTestAddress(0x01)
	commitTestBet(t, engine, st, player, 50, 7, 1_000_000_000)
	require.NoError(t, engine.SubmitResult(testAuthority, 50))
	clock.now = 1200

	result, err := engine.RevealAndClaim(player, 50, 7)
	require.NoError(t, err)
	require.Equal(t, RevealDeferred, result.Status)

	fundAccount(st, testAuthority, 4_000_000_000)
	require.NoError(t, engine.FundTreasury(testAuthority, 4_000_000_000))

	result, err = engine.RevealAndClaim(player, 50, 7)
	require.NoError(t, err)
	require.Equal(t, RevealPaid, result.Status)
	require.Equal(t, uint64(4_000_000_000), st.accounts[player])
	require.NoError(t, engine.AuditInvariant())
}

func TestWithdrawUnpaidBet(t *testing.T) {
	engine, st, _, clock := newTestEngine(t)
	initTestGame(t, engine)
	player := newTestAddress(0x01)
	commitTestBet(t, engine, st, player, 50, 7, 1_000_000_000)
	require.NoError(t, engine.SubmitResult(testAuthority, 50))
	clock.now = 1200

	_, err := engine.RevealAndClaim(player, 50, 7)
	require.NoError(t, err)

	// The withdraw window has not opened yet.
	_, err = engine.WithdrawUnpaidBet(player)
	require.ErrorIs(t, err, ErrWithdrawNotOpen)

	game, err := engine.Game()
	require.NoError(t, err)
	clock.now = game.RevealDeadline + 1

	amount, err := engine.WithdrawUnpaidBet(player)
	require.NoError(t, err)
	require.Equal(t, uint64(1_000_000_000), amount)
	require.Equal(t, uint64(1_000_000_000), st.accounts[player])

	game, err = engine.Game()
	require.NoError(t, err)
	require.Zero(t, game.Pot)
	_, ok := st.bets[player]
	require.False(t, ok)
	require.NoError(t, engine.AuditInvariant())
}

func TestWithdrawUnpaidBetExpires(t *testing.T) {
	engine, st, _, clock := newTestEngine(t)
	initTestGame(t, engine)
	player := newTestAddress(0x01)
	commitTestBet(t, engine, st, player, 50, 7, 1_000_000_000)
	require.NoError(t, engine.SubmitResult(testAuthority, 50))
	clock.now = 1200

	_, err := engine.RevealAndClaim(player, 50, 7)
	require.NoError(t, err)

	game, err := engine.Game()
	require.NoError(t, err)
	clock.now = game.FinalClaimDeadline

	_, err = engine.WithdrawUnpaidBet(player)
	require.ErrorIs(t, err, ErrWithdrawExpired)
}

func TestWithdrawRequiresDeferredBet(t *testing.T) {
	engine, st, _, clock := newTestEngine(t)
	initTestGame(t, engine)
	player := newTestAddress(0x01)
	commitTestBet(t, engine, st, player, 50, 7, 1000)
	require.NoError(t, engine.SubmitResult(testAuthority, 50))

	clock.now = testSubmissionDeadline + testRevealWindow + 1
	_, err := engine.WithdrawUnpaidBet(player)
	require.ErrorIs(t, err, ErrBetNotDeferred)
}

// Scenario: the authority never submits. Every participant reclaims their
// own stake independently.
func TestReclaimBetOnTimeout(t *testing.T) {
	engine, st, _, clock := newTestEngine(t)
	initTestGame(t, engine)
	alice := newTestAddress(0x01)
	bob := newTestAddress(0x02)
	commitTestBet(t, engine, st, alice, 10, 1, 300)
	commitTestBet(t, engine, st, bob, 90, 2, 700)

	// Too early while the submission window is open.
	_, err := engine.ReclaimBetOnTimeout(alice)
	require.ErrorIs(t, err, ErrSubmissionNotExpired)

	clock.now = testSubmissionDeadline

	amount, err := engine.ReclaimBetOnTimeout(bob)
	require.NoError(t, err)
	require.Equal(t, uint64(700), amount)
	require.Equal(t, uint64(700), st.accounts[bob])

	amount, err = engine.ReclaimBetOnTimeout(alice)
	require.NoError(t, err)
	require.Equal(t, uint64(300), amount)

	game, err := engine.Game()
	require.NoError(t, err)
	require.Zero(t, game.Pot)
	require.Zero(t, st.escrow)
	require.NoError(t, engine.AuditInvariant())

	_, err = engine.ReclaimBetOnTimeout(alice)
	require.ErrorIs(t, err, ErrBetNotFound)
}

func TestReclaimRejectedOnceResultSubmitted(t *testing.T) {
	engine, st, _, clock := newTestEngine(t)
	initTestGame(t, engine)
	player := newTestAddress(0x01)
	commitTestBet(t, engine, st, player, 10, 1, 300)
	require.NoError(t, engine.SubmitResult(testAuthority, 50))

	clock.now = testSubmissionDeadline
	_, err := engine.ReclaimBetOnTimeout(player)
	require.ErrorIs(t, err, ErrResultAlreadySubmitted)
}

func TestClaimRemainingTreasury(t *testing.T) {
	engine, st, _, clock := newTestEngine(t)
	initTestGame(t, engine)
	player := newTestAddress(0x01)
	commitTestBet(t, engine, st, player, 51, 7, 1000)
	require.NoError(t, engine.SubmitResult(testAuthority, 50))
	clock.now = 1200

	_, err := engine.RevealAndClaim(player, 51, 7)
	require.NoError(t, err)

	// Locked until the reveal deadline passes.
	_, err = engine.ClaimRemainingTreasury(testAuthority)
	require.ErrorIs(t, err, ErrTreasuryClaimLocked)

	_, err = engine.ClaimRemainingTreasury(player)
	require.ErrorIs(t, err, ErrInvalidAuthority)

	clock.now = testSubmissionDeadline + testRevealWindow
	amount, err := engine.ClaimRemainingTreasury(testAuthority)
	require.NoError(t, err)
	require.Equal(t, uint64(1000), amount)
	require.Equal(t, uint64(1000), st.accounts[testAuthority])
	require.Zero(t, st.escrow)

	game, err := engine.Game()
	require.NoError(t, err)
	require.Equal(t, PhaseClosed, game.Phase)

	// Terminal: nothing mutates once swept.
	_, err = engine.ClaimRemainingTreasury(testAuthority)
	require.ErrorIs(t, err, ErrGameClosed)
	require.ErrorIs(t, engine.FundTreasury(testAuthority, 1), ErrGameClosed)
}

// The sweep waits out the final claim window when deferrals opened one.
func TestClaimRemainingTreasuryWaitsForFinalClaim(t *testing.T) {
	engine, st, _, clock := newTestEngine(t)
	initTestGame(t, engine)
	player := newTestAddress(0x01)
	commitTestBet(t, engine, st, player, 50, 7, 1_000_000_000)
	require.NoError(t, engine.SubmitResult(testAuthority, 50))
	clock.now = 1200

	_, err := engine.RevealAndClaim(player, 50, 7)
	require.NoError(t, err)

	game, err := engine.Game()
	require.NoError(t, err)

	clock.now = game.RevealDeadline + 1
	_, err = engine.ClaimRemainingTreasury(testAuthority)
	require.ErrorIs(t, err, ErrTreasuryClaimLocked)

	clock.now = game.FinalClaimDeadline
	amount, err := engine.ClaimRemainingTreasury(testAuthority)
	require.NoError(t, err)
	require.Equal(t, uint64(1_000_000_000), amount)
}

func TestClaimRemainingTreasuryEmpty(t *testing.T) {
	engine, _, _, clock := newTestEngine(t)
	initTestGame(t, engine)
	require.NoError(t, engine.SubmitResult(testAuthority, 50))
	clock.now = testSubmissionDeadline + testRevealWindow

	_, err := engine.ClaimRemainingTreasury(testAuthority)
	require.ErrorIs(t, err, ErrTreasuryEmpty)
}

func TestFundTreasuryRequiresGame(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)
	require.ErrorIs(t, engine.FundTreasury(testAuthority, 100), ErrGameNotFound)
}

// The escrow invariant holds through an interleaving of wins, losses and
// deferrals across several participants.
func TestInvariantAcrossMixedSettlement(t *testing.T) {
	engine, st, _, clock := newTestEngine(t)
	initTestGame(t, engine)

	winner := newTestAddress(0x01)
	loser := newTestAddress(0x02)
	deferred := newTestAddress(0x03)
	commitTestBet(t, engine, st, winner, 50, 1, 1000)
	commitTestBet(t, engine, st, loser, 80, 2, 2000)
	commitTestBet(t, engine, st, deferred, 0, 3, 1_000_000_000)
	require.NoError(t, engine.AuditInvariant())

	// Enough liquidity for the small winner, not the whale.
	fundAccount(st, testAuthority, 5000)
	require.NoError(t, engine.FundTreasury(testAuthority, 5000))
	require.NoError(t, engine.SubmitResult(testAuthority, 50))
	clock.now = 1200

	result, err := engine.RevealAndClaim(winner, 50, 1)
	require.NoError(t, err)
	require.Equal(t, RevealPaid, result.Status)
	require.Equal(t, uint64(4000), result.Payout)
	require.NoError(t, engine.AuditInvariant())

	result, err = engine.RevealAndClaim(loser, 80, 2)
	require.NoError(t, err)
	require.Equal(t, RevealLost, result.Status)
	require.NoError(t, engine.AuditInvariant())

	result, err = engine.RevealAndClaim(deferred, 0, 3)
	require.NoError(t, err)
	require.Equal(t, RevealDeferred, result.Status)
	require.NoError(t, engine.AuditInvariant())

	game, err := engine.Game()
	require.NoError(t, err)
	clock.now = game.RevealDeadline + 1
	_, err = engine.WithdrawUnpaidBet(deferred)
	require.NoError(t, err)
	require.NoError(t, engine.AuditInvariant())

	clock.now = game.FinalClaimDeadline
	swept, err := engine.ClaimRemainingTreasury(testAuthority)
	require.NoError(t, err)
	// 1000+2000+1e9 staked, +5000 funded, -4000 paid, -1e9 withdrawn.
	require.Equal(t, uint64(4000), swept)
}
