package rpc

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nugwager/core/events"
	"nugwager/native/wager"
	"nugwager/observability"
	"nugwager/state"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
	rpcTokenEnv     = "NUGWAGER_RPC_TOKEN"
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000
)

// Server exposes the wager engine over JSON-RPC 2.0. Mutating methods are
// serialized under a single mutex so every engine operation executes as one
// indivisible step against the shared game record, the way a chain runtime
// would order transactions touching the same account.
type Server struct {
	engine  *wager.Engine
	state   *state.WagerState
	emitter *events.MemoryEmitter

	mu        sync.Mutex
	authToken string
	limiter   *clientLimiter

	// submissionWindow seeds the deadline when wager_initializeGame is
	// called without an explicit timestamp.
	submissionWindow int64
	nowFn            func() int64
}

// NewServer wires the RPC front-end. The emitter may be nil, disabling the
// wager_getEvents tail.
func NewServer(engine *wager.Engine, st *state.WagerState, emitter *events.MemoryEmitter) *Server {
	token := strings.TrimSpace(os.Getenv(rpcTokenEnv))
	return &Server{
		engine:           engine,
		state:            st,
		emitter:          emitter,
		authToken:        token,
		limiter:          newClientLimiter(600, 30),
		submissionWindow: 7 * 24 * 60 * 60,
		nowFn:            func() int64 { return time.Now().Unix() },
	}
}

// SetRateLimit adjusts the per-client request budget.
func (s *Server) SetRateLimit(perMinute float64, burst int) {
	s.limiter = newClientLimiter(perMinute, burst)
}

// SetSubmissionWindow sets the default betting window in seconds applied
// when initialization omits an explicit submission deadline.
func (s *Server) SetSubmissionWindow(seconds int64) {
	if seconds > 0 {
		s.submissionWindow = seconds
	}
}

// SetNowFunc overrides the time source. Primarily intended for tests.
func (s *Server) SetNowFunc(now func() int64) {
	if now != nil {
		s.nowFn = now
	}
}

// Router assembles the HTTP routes: the JSON-RPC endpoint, a liveness probe
// and the prometheus scrape target.
func (s *Server) Router() (http.Handler, error) {
	registry, err := observability.Wager().Registry()
	if err != nil {
		return nil, fmt.Errorf("rpc: register metrics: %w", err)
	}
	r := chi.NewRouter()
	r.Use(s.limiter.middleware)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	r.Post("/", s.handle)
	return r, nil
}

// Start serves the router on addr and blocks.
func (s *Server) Start(addr string) error {
	router, err := s.Router()
	if err != nil {
		return err
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return server.ListenAndServe()
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      int               `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) requireAuth(r *http.Request) *RPCError {
	if s.authToken == "" {
		return nil
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return &RPCError{Code: codeUnauthorized, Message: "unauthorized", Data: "bearer token required"}
	}
	supplied := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if subtle.ConstantTimeCompare([]byte(supplied), []byte(s.authToken)) != 1 {
		return &RPCError{Code: codeUnauthorized, Message: "unauthorized", Data: "invalid token"}
	}
	return nil
}

// handle is the main request handler that routes to specific handlers.
func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() {
		_ = reader.Close()
	}()

	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(reader)
	if err != nil {
		status := http.StatusBadRequest
		message := "failed to read request body"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			message = fmt.Sprintf("request body exceeds %d bytes", maxRequestBytes)
		}
		writeError(w, status, nil, codeInvalidRequest, message, err.Error())
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}

	switch req.Method {
	case "wager_initializeGame":
		s.authenticated(w, r, req, s.handleInitializeGame)
	case "wager_fundTreasury":
		s.authenticated(w, r, req, s.handleFundTreasury)
	case "wager_commitBet":
		s.authenticated(w, r, req, s.handleCommitBet)
	case "wager_submitResult":
		s.authenticated(w, r, req, s.handleSubmitResult)
	case "wager_revealAndClaim":
		s.authenticated(w, r, req, s.handleRevealAndClaim)
	case "wager_withdrawUnpaidBet":
		s.authenticated(w, r, req, s.handleWithdrawUnpaidBet)
	case "wager_reclaimBetOnTimeout":
		s.authenticated(w, r, req, s.handleReclaimBetOnTimeout)
	case "wager_claimRemainingTreasury":
		s.authenticated(w, r, req, s.handleClaimRemainingTreasury)
	case "wager_getGame":
		s.handleGetGame(w, r, req)
	case "wager_getBet":
		s.handleGetBet(w, r, req)
	case "wager_getBalance":
		s.handleGetBalance(w, r, req)
	case "wager_getEvents":
		s.handleGetEvents(w, r, req)
	default:
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, "method not found", req.Method)
	}
}

func (s *Server) authenticated(w http.ResponseWriter, r *http.Request, req *RPCRequest, next func(http.ResponseWriter, *http.Request, *RPCRequest)) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	next(w, r, req)
}
