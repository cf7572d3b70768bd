package api

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/fundvault/fundvault/internal/notifications"
	"github.com/fundvault/fundvault/internal/repository"
)

const maxQueryLimit = 1000

// Vault is the ledger surface the API dispatches to.
type Vault interface {
	Deposit(ctx context.Context, from common.Address, amountWei *big.Int) (*big.Int, error)
	Withdraw(ctx context.Context, caller common.Address) (*big.Int, error)
	Owner() common.Address
	FundedAmount(addr common.Address) *big.Int
	FunderAt(i int) (common.Address, error)
	Funders() []common.Address
	Pooled() *big.Int
}

// Versioner exposes the oracle's version identifier.
type Versioner interface {
	Version(ctx context.Context) (*big.Int, error)
}

// Crediter records inbound value against a simulated vault balance.
// Nil in live mode, where custody follows real transactions.
type Crediter interface {
	Credit(amountWei *big.Int)
}

type ServerConfig struct {
	Vault      Vault
	Oracle     Versioner
	Journal    *repository.JournalRepo
	Notify     *notifications.Sender
	Credit     Crediter
	Pool       *pgxpool.Pool
	Port       int
	APIKey     string
	CORSOrigin string
	Log        *zap.Logger
}

type Server struct {
	vault      Vault
	oracle     Versioner
	journal    *repository.JournalRepo
	notify     *notifications.Sender
	credit     Crediter
	pool       *pgxpool.Pool
	httpServer *http.Server
	apiKey     string
	log        *zap.Logger
}

func NewServer(cfg ServerConfig) *Server {
	s := &Server{
		vault:   cfg.Vault,
		oracle:  cfg.Oracle,
		journal: cfg.Journal,
		notify:  cfg.Notify,
		credit:  cfg.Credit,
		pool:    cfg.Pool,
		apiKey:  cfg.APIKey,
		log:     cfg.Log,
	}

	mux := http.NewServeMux()

	// Ledger operations
	mux.HandleFunc("POST /v1/fund", s.handleFund)
	mux.HandleFunc("POST /v1/withdraw", s.handleWithdraw)

	// Ledger reads
	mux.HandleFunc("GET /v1/owner", s.handleOwner)
	mux.HandleFunc("GET /v1/minimum", s.handleMinimum)
	mux.HandleFunc("GET /v1/pooled", s.handlePooled)
	mux.HandleFunc("GET /v1/funders", s.handleFunders)
	mux.HandleFunc("GET /v1/funders/at/{index}", s.handleFunderAt)
	mux.HandleFunc("GET /v1/funders/{address}", s.handleFundedAmount)

	// Oracle
	mux.HandleFunc("GET /v1/version", s.handleVersion)

	// Journal
	mux.HandleFunc("GET /v1/deposits", s.handleDeposits)
	mux.HandleFunc("GET /v1/stats", s.handleStats)

	// Health check (no auth required)
	mux.HandleFunc("GET /health", s.handleHealth)

	// Anything else carrying value routes to the deposit path.
	mux.HandleFunc("/", s.handleFallback)

	handler := s.authMiddleware(corsMiddleware(mux, cfg.CORSOrigin))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return s
}

func (s *Server) Start() error {
	s.log.Info("REST API server started",
		zap.String("addr", s.httpServer.Addr),
		zap.Bool("authEnabled", s.apiKey != ""))
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// --- middleware ---

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" || r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		auth := r.Header.Get("Authorization")
		if auth == "" {
			writeError(w, http.StatusUnauthorized, "missing Authorization header")
			return
		}

		token := strings.TrimPrefix(auth, "Bearer ")
		if token == auth || token != s.apiKey {
			writeError(w, http.StatusUnauthorized, "invalid API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func corsMiddleware(next http.Handler, allowOrigin string) http.Handler {
	if allowOrigin == "" {
		allowOrigin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- validation helpers ---

func parseAddress(raw string) (common.Address, error) {
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("invalid address %q", raw)
	}
	return common.HexToAddress(raw), nil
}

func parseWei(raw string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(raw, 10)
	if !ok || amount.Sign() <= 0 {
		return nil, fmt.Errorf("invalid wei amount %q, expected positive decimal integer", raw)
	}
	return amount, nil
}

func parseLimit(r *http.Request, defaultLimit int) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return defaultLimit
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return defaultLimit
	}
	if n > maxQueryLimit {
		return maxQueryLimit
	}
	return n
}

// --- response helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
