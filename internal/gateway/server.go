package gateway

import (
	"net/http"
	"time"

	"github.com/zenGate-Global/cardano-tx-platform/internal/platformcfg"
	"github.com/zenGate-Global/cardano-tx-platform/internal/platformlog"
	"github.com/zenGate-Global/cardano-tx-platform/internal/protocol"
	"github.com/zenGate-Global/cardano-tx-platform/internal/systemdb"
)

// Server is the HTTP gateway of spec.md §4.6: it authenticates a bearer
// token, sniffs the body against the closed set of JSON intents, and
// forwards the decoded command to the dispatcher over a pooled TCP
// connection.
type Server struct {
	Auth      *Authenticator
	Dispatch  *protocol.Client
	Contracts *systemdb.ContractRepository
	Limiter   *ClaimLimiter
	Log       *platformlog.Logger

	RequestTimeout time.Duration
}

// NewServer wires a gateway from configuration, dialing no connections
// itself — protocol.Client dials lazily on first use.
func NewServer(cfg *platformcfg.Config, auth *Authenticator, contracts *systemdb.ContractRepository, log *platformlog.Logger) *Server {
	return &Server{
		Auth:      auth,
		Dispatch:  protocol.NewClient(cfg.DispatcherAddr, 32, time.Duration(cfg.RequestDeadlineSecs)*time.Second),
		Contracts: contracts,
		Limiter:   NewClaimLimiter(cfg.ClaimRateLimitPerBurst, time.Duration(cfg.ClaimRateLimitWindowSecs)*time.Second),
		Log:       log,

		RequestTimeout: time.Duration(cfg.RequestDeadlineSecs) * time.Second,
	}
}

// Routes builds the HTTP surface of spec.md §6 on the Go 1.22+ pattern-
// matching ServeMux; no pack repo reaches for a third-party router (even
// containerman17-l1-data-tools, the only other complete-HTTP-service
// example, registers routes on a bare *http.ServeMux), so the gateway
// follows that rather than adding one.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /cn/{contract_type}/{action}", s.requireAuth(s.handleContractBuild))
	mux.HandleFunc("POST /cn/fn/{contract_type}/{fingerprint}", s.requireAuth(s.handleContractFinalize))
	mux.HandleFunc("POST /ms/{multisig_type}", s.requireAuth(s.handleMultisigBuild))
	mux.HandleFunc("POST /ms/fn/{multisig_type}/{fingerprint}", s.requireAuth(s.handleMultisigFinalize))
	mux.HandleFunc("POST /tx/{std_type}", s.requireAuth(s.handleStdBuild))
	mux.HandleFunc("POST /tx/fn/{std_type}/{fingerprint}", s.requireAuth(s.handleStdFinalize))
	mux.HandleFunc("POST /api/mint/oneshot", s.requireAuth(s.handleOneshotMint))
	mux.HandleFunc("GET /lcn", s.requireAuth(s.handleListContracts))
	mux.HandleFunc("OPTIONS /", s.handlePreflight)

	return mux
}

// ListenAndServe starts the HTTP server on addr.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.Routes(),
	}
	return srv.ListenAndServe()
}
