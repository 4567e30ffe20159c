package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/example/inventory-dashboard/internal/domain"
	"github.com/example/inventory-dashboard/internal/usecase"
)

const defaultRevenueDays = 30

// Deps — сценарии, которые обслуживает HTTP-слой.
type Deps struct {
	Transactions  usecase.GetTransactions
	InternalUsage usecase.GetInternalUsage
	Restocks      usecase.GetRestocks
	AddRestock    usecase.RecordRestock
	Revenue       usecase.GetRevenue
	Inventory     usecase.GetInventory
	Sync          usecase.SyncOrderLogs

	Tokens      *TokenVerifier
	SyncTimeout time.Duration
	Clock       domain.Clock
	Log         *log.Logger
}

type Server struct {
	Router *mux.Router

	deps   Deps
	tokens *TokenVerifier
	log    *log.Logger
}

func NewServer(d Deps) *Server {
	if d.Log == nil {
		d.Log = log.Default()
	}
	if d.Clock == nil {
		d.Clock = domain.SystemClock{}
	}
	s := &Server{Router: mux.NewRouter(), deps: d, tokens: d.Tokens, log: d.Log}

	api := s.Router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/transactions", s.withAuth(s.handleTransactions)).Methods(http.MethodGet)
	api.HandleFunc("/internal-usage", s.withAuth(s.handleInternalUsage)).Methods(http.MethodGet)
	api.HandleFunc("/restocks", s.withAuth(s.handleRestocks)).Methods(http.MethodGet)
	api.HandleFunc("/restocks", s.withAdmin(s.handleAddRestock)).Methods(http.MethodPost)
	api.HandleFunc("/revenue", s.withAuth(s.handleRevenue)).Methods(http.MethodGet)
	api.HandleFunc("/inventory", s.withAuth(s.handleInventory)).Methods(http.MethodGet)
	api.HandleFunc("/sync", s.withAdmin(s.handleSync)).Methods(http.MethodPost)

	s.Router.Use(logging(d.Log))
	return s
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": s.deps.Clock.Now().UTC().Format(time.RFC3339),
		"message":   "inventory dashboard is running",
	})
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.deps.Transactions.Execute(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, txs)
}

func (s *Server) handleInternalUsage(w http.ResponseWriter, r *http.Request) {
	txs, err := s.deps.InternalUsage.Execute(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, txs)
}

func (s *Server) handleRestocks(w http.ResponseWriter, r *http.Request) {
	rs, err := s.deps.Restocks.Execute(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, rs)
}

func (s *Server) handleAddRestock(w http.ResponseWriter, r *http.Request) {
	var in domain.Restock
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		s.writeError(w, r, domain.ErrBadParams)
		return
	}
	rec, inserted, err := s.deps.AddRestock.Execute(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	msg := "restock recorded"
	if !inserted {
		msg = "restock already recorded"
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: msg, Data: rec})
}

func (s *Server) handleRevenue(w http.ResponseWriter, r *http.Request) {
	days := defaultRevenueDays
	if q := r.URL.Query().Get("days"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil {
			s.writeError(w, r, domain.ErrBadParams)
			return
		}
		days = n
	}
	sum, err := s.deps.Revenue.Execute(r.Context(), days)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, sum)
}

func (s *Server) handleInventory(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.Inventory.Execute(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, items)
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.deps.SyncTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.deps.SyncTimeout)
		defer cancel()
	}

	res, err := s.deps.Sync.Execute(ctx)
	if err != nil {
		var syncErr *domain.SyncError
		if errors.As(err, &syncErr) {
			s.log.Printf("sync: %v", err)
			writeJSON(w, http.StatusInternalServerError, envelope{
				Success: false,
				Error:   "sync failed",
				Data:    map[string]int{"processed": syncErr.Processed},
			})
			return
		}
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "sync completed", Data: res})
}
