package rpc

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"nugwager/native/wager"
	"nugwager/observability"
	"nugwager/state"
)

const (
	codeWagerValidation   = -32031
	codeWagerUnauthorized = -32032
	codeWagerPhase        = -32033
	codeWagerIntegrity    = -32034
	codeWagerArithmetic   = -32035
	codeWagerLiquidity    = -32036
	codeWagerNotFound     = -32037
	codeWagerConflict     = -32038
)

type initializeGameParams struct {
	Authority string `json:"authority"`
	// SubmissionDeadline is a unix timestamp; zero means "now plus the
	// configured submission window".
	SubmissionDeadline int64 `json:"submissionDeadline,omitempty"`
}

type fundTreasuryParams struct {
	From   string `json:"from"`
	Amount string `json:"amount"`
}

type commitBetParams struct {
	Player     string `json:"player"`
	Commitment string `json:"commitment"`
	Amount     string `json:"amount"`
}

type submitResultParams struct {
	Caller  string `json:"caller"`
	Outcome uint8  `json:"outcome"`
}

type revealParams struct {
	Player string `json:"player"`
	Guess  uint8  `json:"guess"`
	Salt   string `json:"salt"`
}

type playerParams struct {
	Player string `json:"player"`
}

type callerParams struct {
	Caller string `json:"caller"`
}

type addressParams struct {
	Address string `json:"address"`
}

type gameJSON struct {
	ID                 string  `json:"id"`
	Authority          string  `json:"authority"`
	Outcome            *uint8  `json:"outcome,omitempty"`
	Phase              string  `json:"phase"`
	BetCount           uint64  `json:"betCount"`
	Pot                string  `json:"pot"`
	EscrowBalance      string  `json:"escrowBalance"`
	SubmissionDeadline int64   `json:"submissionDeadline"`
	RevealDeadline     *int64  `json:"revealDeadline,omitempty"`
	FinalClaimDeadline *int64  `json:"finalClaimDeadline,omitempty"`
}

type betJSON struct {
	Player          string `json:"player"`
	Game            string `json:"game"`
	Commitment      string `json:"commitment"`
	Amount          string `json:"amount"`
	AttemptedReveal bool   `json:"attemptedReveal"`
	Claimed         bool   `json:"claimed"`
}

type revealResultJSON struct {
	Status     string `json:"status"`
	Difference uint8  `json:"difference"`
	Payout     string `json:"payout"`
}

type amountResultJSON struct {
	Amount string `json:"amount"`
}

type balanceResultJSON struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
}

type eventJSON struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}

func decodeParams(req *RPCRequest, out interface{}) error {
	if len(req.Params) != 1 {
		return fmt.Errorf("exactly one parameter object expected")
	}
	return json.Unmarshal(req.Params[0], out)
}

func parseAddress(value string) ([20]byte, error) {
	trimmed := strings.TrimSpace(value)
	if !common.IsHexAddress(trimmed) {
		return [20]byte{}, fmt.Errorf("invalid address: %q", value)
	}
	return common.HexToAddress(trimmed), nil
}

func parseAmount(value string) (uint64, error) {
	trimmed := strings.TrimSpace(value)
	amount, err := strconv.ParseUint(trimmed, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount: %q", value)
	}
	return amount, nil
}

// classify maps an engine error onto a stable JSON-RPC code so callers can
// distinguish retry-later, never-valid and operator-fault rejections.
func classify(err error) (int, int) {
	switch {
	case errors.Is(err, wager.ErrInvalidGuess),
		errors.Is(err, wager.ErrInvalidOutcome),
		errors.Is(err, wager.ErrInvalidBetAmount),
		errors.Is(err, wager.ErrInvalidDeadline):
		return http.StatusBadRequest, codeWagerValidation
	case errors.Is(err, wager.ErrInvalidAuthority):
		return http.StatusForbidden, codeWagerUnauthorized
	case errors.Is(err, wager.ErrBettingClosed),
		errors.Is(err, wager.ErrResultAlreadySubmitted),
		errors.Is(err, wager.ErrResultNotSubmitted),
		errors.Is(err, wager.ErrSubmissionExpired),
		errors.Is(err, wager.ErrSubmissionNotExpired),
		errors.Is(err, wager.ErrRevealClosed),
		errors.Is(err, wager.ErrWithdrawNotOpen),
		errors.Is(err, wager.ErrWithdrawExpired),
		errors.Is(err, wager.ErrTreasuryClaimLocked),
		errors.Is(err, wager.ErrBetNotDeferred),
		errors.Is(err, wager.ErrGameClosed):
		return http.StatusConflict, codeWagerPhase
	case errors.Is(err, wager.ErrGameExists),
		errors.Is(err, wager.ErrBetExists):
		return http.StatusConflict, codeWagerConflict
	case errors.Is(err, wager.ErrGameNotFound),
		errors.Is(err, wager.ErrBetNotFound):
		return http.StatusNotFound, codeWagerNotFound
	case errors.Is(err, wager.ErrCommitmentMismatch),
		errors.Is(err, wager.ErrGameMismatch):
		return http.StatusBadRequest, codeWagerIntegrity
	case errors.Is(err, wager.ErrOverflow),
		errors.Is(err, wager.ErrPotDesynced):
		return http.StatusInternalServerError, codeWagerArithmetic
	case errors.Is(err, wager.ErrInsufficientEscrow),
		errors.Is(err, wager.ErrTreasuryEmpty),
		errors.Is(err, state.ErrInsufficientBalance):
		return http.StatusConflict, codeWagerLiquidity
	default:
		return http.StatusInternalServerError, codeServerError
	}
}

func outcomeLabel(err error) string {
	if err == nil {
		return "ok"
	}
	_, code := classify(err)
	switch code {
	case codeWagerValidation:
		return "validation"
	case codeWagerUnauthorized:
		return "unauthorized"
	case codeWagerPhase:
		return "phase"
	case codeWagerIntegrity:
		return "integrity"
	case codeWagerArithmetic:
		return "arithmetic"
	case codeWagerLiquidity:
		return "liquidity"
	case codeWagerNotFound:
		return "not_found"
	case codeWagerConflict:
		return "conflict"
	default:
		return "error"
	}
}

// runOperation serializes a mutating engine call and records its metrics and
// the post-operation balance gauges.
func (s *Server) runOperation(operation string, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := fn()
	metrics := observability.Wager()
	metrics.ObserveOperation(operation, outcomeLabel(err))
	if game, gameErr := s.engine.Game(); gameErr == nil {
		if balance, balErr := s.state.EscrowBalance(); balErr == nil {
			metrics.SetBalances(game.Pot, balance)
		}
	}
	return err
}

func writeWagerError(w http.ResponseWriter, id interface{}, err error) {
	status, code := classify(err)
	writeError(w, status, id, code, err.Error(), nil)
}

func (s *Server) handleInitializeGame(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params initializeGameParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	authority, err := parseAddress(params.Authority)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	deadline := params.SubmissionDeadline
	if deadline == 0 {
		deadline = s.nowFn() + s.submissionWindow
	}
	var game *wager.Game
	opErr := s.runOperation("initialize_game", func() error {
		var err error
		game, err = s.engine.InitializeGame(authority, deadline)
		return err
	})
	if opErr != nil {
		writeWagerError(w, req.ID, opErr)
		return
	}
	result, err := s.gameResult(game)
	if err != nil {
		writeWagerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, result)
}

func (s *Server) handleFundTreasury(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params fundTreasuryParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	from, err := parseAddress(params.From)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	opErr := s.runOperation("fund_treasury", func() error {
		return s.engine.FundTreasury(from, amount)
	})
	if opErr != nil {
		writeWagerError(w, req.ID, opErr)
		return
	}
	writeResult(w, req.ID, amountResultJSON{Amount: strconv.FormatUint(amount, 10)})
}

func (s *Server) handleCommitBet(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params commitBetParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	player, err := parseAddress(params.Player)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	commitment, err := wager.ParseCommitment(params.Commitment)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	var bet *wager.Bet
	opErr := s.runOperation("commit_bet", func() error {
		var err error
		bet, err = s.engine.CommitBet(player, commitment, amount)
		return err
	})
	if opErr != nil {
		writeWagerError(w, req.ID, opErr)
		return
	}
	writeResult(w, req.ID, betToJSON(bet))
}

func (s *Server) handleSubmitResult(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params submitResultParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	opErr := s.runOperation("submit_result", func() error {
		return s.engine.SubmitResult(caller, params.Outcome)
	})
	if opErr != nil {
		writeWagerError(w, req.ID, opErr)
		return
	}
	game, err := s.engine.Game()
	if err != nil {
		writeWagerError(w, req.ID, err)
		return
	}
	result, err := s.gameResult(game)
	if err != nil {
		writeWagerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, result)
}

func (s *Server) handleRevealAndClaim(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params revealParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	player, err := parseAddress(params.Player)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	salt, err := parseAmount(params.Salt)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	var result *wager.RevealResult
	opErr := s.runOperation("reveal_and_claim", func() error {
		var err error
		result, err = s.engine.RevealAndClaim(player, params.Guess, salt)
		return err
	})
	if opErr != nil {
		writeWagerError(w, req.ID, opErr)
		return
	}
	writeResult(w, req.ID, revealResultJSON{
		Status:     result.Status.String(),
		Difference: result.Difference,
		Payout:     strconv.FormatUint(result.Payout, 10),
	})
}

func (s *Server) handleWithdrawUnpaidBet(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	s.handleRefund(w, req, "withdraw_unpaid_bet", s.engine.WithdrawUnpaidBet)
}

func (s *Server) handleReclaimBetOnTimeout(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	s.handleRefund(w, req, "reclaim_bet_on_timeout", s.engine.ReclaimBetOnTimeout)
}

func (s *Server) handleRefund(w http.ResponseWriter, req *RPCRequest, operation string, fn func([20]byte) (uint64, error)) {
	var params playerParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	player, err := parseAddress(params.Player)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	var amount uint64
	opErr := s.runOperation(operation, func() error {
		var err error
		amount, err = fn(player)
		return err
	})
	if opErr != nil {
		writeWagerError(w, req.ID, opErr)
		return
	}
	writeResult(w, req.ID, amountResultJSON{Amount: strconv.FormatUint(amount, 10)})
}

func (s *Server) handleClaimRemainingTreasury(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params callerParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	var amount uint64
	opErr := s.runOperation("claim_remaining_treasury", func() error {
		var err error
		amount, err = s.engine.ClaimRemainingTreasury(caller)
		return err
	})
	if opErr != nil {
		writeWagerError(w, req.ID, opErr)
		return
	}
	writeResult(w, req.ID, amountResultJSON{Amount: strconv.FormatUint(amount, 10)})
}

func (s *Server) handleGetGame(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	game, err := s.engine.Game()
	if err != nil {
		writeWagerError(w, req.ID, err)
		return
	}
	result, err := s.gameResult(game)
	if err != nil {
		writeWagerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, result)
}

func (s *Server) handleGetBet(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params playerParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	player, err := parseAddress(params.Player)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	bet, err := s.engine.Bet(player)
	if err != nil {
		writeWagerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, betToJSON(bet))
}

func (s *Server) handleGetBalance(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params addressParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	addr, err := parseAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	balance, err := s.state.Balance(addr)
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "balance lookup failed", err.Error())
		return
	}
	writeResult(w, req.ID, balanceResultJSON{
		Address: common.Address(addr).Hex(),
		Balance: strconv.FormatUint(balance, 10),
	})
}

func (s *Server) handleGetEvents(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	if s.emitter == nil {
		writeResult(w, req.ID, []eventJSON{})
		return
	}
	retained := s.emitter.Events()
	out := make([]eventJSON, 0, len(retained))
	for _, evt := range retained {
		out = append(out, eventJSON{Type: evt.Type, Attributes: evt.Attributes})
	}
	writeResult(w, req.ID, out)
}

func (s *Server) gameResult(game *wager.Game) (*gameJSON, error) {
	balance, err := s.state.EscrowBalance()
	if err != nil {
		return nil, err
	}
	out := &gameJSON{
		ID:                 "0x" + hex.EncodeToString(game.ID[:]),
		Authority:          common.Address(game.Authority).Hex(),
		Outcome:            game.Outcome,
		Phase:              game.Phase.String(),
		BetCount:           game.BetCount,
		Pot:                strconv.FormatUint(game.Pot, 10),
		EscrowBalance:      strconv.FormatUint(balance, 10),
		SubmissionDeadline: game.SubmissionDeadline,
	}
	if game.RevealDeadline != 0 {
		deadline := game.RevealDeadline
		out.RevealDeadline = &deadline
	}
	if game.FinalClaimDeadline != 0 {
		deadline := game.FinalClaimDeadline
		out.FinalClaimDeadline = &deadline
	}
	return out, nil
}

func betToJSON(bet *wager.Bet) *betJSON {
	return &betJSON{
		Player:          common.Address(bet.Player).Hex(),
		Game:            "0x" + hex.EncodeToString(bet.Game[:]),
		Commitment:      bet.Commitment.String(),
		Amount:          strconv.FormatUint(bet.Amount, 10),
		AttemptedReveal: bet.AttemptedReveal,
		Claimed:         bet.Claimed,
	}
}
