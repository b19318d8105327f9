// Package state persists the wager engine's records over a generic
// key-value database. It implements the narrow state interface the engine
// consumes: the singleton game record, per-participant bet records, simple
// uint64 participant accounts and the escrow vault balance.
package state

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"nugwager/native/wager"
	"nugwager/storage"
)

const (
	keyGame       = "wager/game"
	keyEscrow     = "wager/escrow"
	prefixBet     = "wager/bet/"
	prefixAccount = "wager/account/"
)

// ErrInsufficientBalance is returned when an account cannot cover a deposit
// into escrow.
var ErrInsufficientBalance = errors.New("state: insufficient account balance")

// WagerState stores game, bet and balance records. Individual accessors are
// safe for concurrent use; callers that need a whole engine operation to be
// indivisible (the RPC server does) must additionally serialize operations,
// mirroring the per-record write ordering a chain runtime would provide.
type WagerState struct {
	mu sync.RWMutex
	db storage.Database
}

// NewWagerState wraps the database with the wager keyspace.
func NewWagerState(db storage.Database) *WagerState {
	return &WagerState{db: db}
}

func betKey(player [20]byte) []byte {
	return []byte(prefixBet + hex.EncodeToString(player[:]))
}

func accountKey(addr [20]byte) []byte {
	return []byte(prefixAccount + hex.EncodeToString(addr[:]))
}

// WagerGameGet loads the singleton game record.
func (s *WagerState) WagerGameGet() (*wager.Game, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, err := s.db.Get([]byte(keyGame))
	if err != nil {
		return nil, false
	}
	game := new(wager.Game)
	if err := json.Unmarshal(raw, game); err != nil {
		return nil, false
	}
	return game, true
}

// WagerGamePut sanitizes and stores the game record.
func (s *WagerState) WagerGamePut(game *wager.Game) error {
	sanitized, err := wager.SanitizeGame(game)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(sanitized)
	if err != nil {
		return fmt.Errorf("state: encode game: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Put([]byte(keyGame), raw)
}

// WagerBetGet loads the participant's bet record.
func (s *WagerState) WagerBetGet(player [20]byte) (*wager.Bet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, err := s.db.Get(betKey(player))
	if err != nil {
		return nil, false
	}
	bet := new(wager.Bet)
	if err := json.Unmarshal(raw, bet); err != nil {
		return nil, false
	}
	return bet, true
}

// WagerBetPut sanitizes and stores a bet record keyed by participant.
func (s *WagerState) WagerBetPut(bet *wager.Bet) error {
	sanitized, err := wager.SanitizeBet(bet)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(sanitized)
	if err != nil {
		return fmt.Errorf("state: encode bet: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Put(betKey(sanitized.Player), raw)
}

// WagerBetDelete reclaims the storage backing a settled bet.
func (s *WagerState) WagerBetDelete(player [20]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Delete(betKey(player))
}

// WagerBetList returns every outstanding bet record in key order.
func (s *WagerState) WagerBetList() ([]*wager.Bet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var bets []*wager.Bet
	var decodeErr error
	err := s.db.IteratePrefix([]byte(prefixBet), func(_, value []byte) bool {
		bet := new(wager.Bet)
		if err := json.Unmarshal(value, bet); err != nil {
			decodeErr = fmt.Errorf("state: decode bet: %w", err)
			return false
		}
		bets = append(bets, bet)
		return true
	})
	if err != nil {
		return nil, err
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	return bets, nil
}

// Balance returns an account's spendable balance.
func (s *WagerState) Balance(addr [20]byte) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadUint(accountKey(addr))
}

// Credit adds funds to an account. Used at genesis and by faucet-style
// tooling; the engine itself only moves value through the escrow.
func (s *WagerState) Credit(addr [20]byte, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	balance, err := s.loadUint(accountKey(addr))
	if err != nil {
		return err
	}
	updated := balance + amount
	if updated < balance {
		return fmt.Errorf("state: account balance overflow")
	}
	return s.storeUint(accountKey(addr), updated)
}

// EscrowBalance returns the escrow vault balance.
func (s *WagerState) EscrowBalance() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadUint([]byte(keyEscrow))
}

// EscrowDeposit moves amount from the account into the escrow vault.
func (s *WagerState) EscrowDeposit(from [20]byte, amount uint64) error {
	if amount == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	balance, err := s.loadUint(accountKey(from))
	if err != nil {
		return err
	}
	if balance < amount {
		return ErrInsufficientBalance
	}
	escrow, err := s.loadUint([]byte(keyEscrow))
	if err != nil {
		return err
	}
	updated := escrow + amount
	if updated < escrow {
		return fmt.Errorf("state: escrow balance overflow")
	}
	if err := s.storeUint(accountKey(from), balance-amount); err != nil {
		return err
	}
	return s.storeUint([]byte(keyEscrow), updated)
}

// EscrowWithdraw moves amount from the escrow vault to the account.
func (s *WagerState) EscrowWithdraw(to [20]byte, amount uint64) error {
	if amount == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	escrow, err := s.loadUint([]byte(keyEscrow))
	if err != nil {
		return err
	}
	if escrow < amount {
		return wager.ErrInsufficientEscrow
	}
	balance, err := s.loadUint(accountKey(to))
	if err != nil {
		return err
	}
	updated := balance + amount
	if updated < balance {
		return fmt.Errorf("state: account balance overflow")
	}
	if err := s.storeUint([]byte(keyEscrow), escrow-amount); err != nil {
		return err
	}
	return s.storeUint(accountKey(to), updated)
}

func (s *WagerState) loadUint(key []byte) (uint64, error) {
	raw, err := s.db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var value uint64
	if err := json.Unmarshal(raw, &value); err != nil {
		return 0, fmt.Errorf("state: decode balance: %w", err)
	}
	return value, nil
}

func (s *WagerState) storeUint(key []byte, value uint64) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.db.Put(key, raw)
}
