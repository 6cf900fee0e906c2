// Package api exposes the ledger operations over HTTP. Caller identity is
// taken from the X-Caller-Identity header; signature verification is the
// trusted host's job, the API only parses and forwards identities.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/tokenforge/settlement-ledger/internal/ledger"
	"github.com/tokenforge/settlement-ledger/internal/models"
)

// IdentityHeader carries the hex-encoded caller identity on every mutating
// request.
const IdentityHeader = "X-Caller-Identity"

type Server struct {
	ledger *ledger.Ledger
	mux    *http.ServeMux
}

func NewServer(l *ledger.Ledger) *Server {
	s := &Server{ledger: l, mux: http.NewServeMux()}

	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /initialize", s.handleInitialize)
	s.mux.HandleFunc("POST /payments/native", s.handlePayNative)
	s.mux.HandleFunc("POST /payments/token", s.handlePayToken)
	s.mux.HandleFunc("POST /refunds/native", s.handleRefundNative)
	s.mux.HandleFunc("POST /refunds/token", s.handleRefundToken)
	s.mux.HandleFunc("PUT /admin/paused", s.handleSetPaused)
	s.mux.HandleFunc("GET /account", s.handleAccount)
	s.mux.HandleFunc("GET /settlements", s.handleSettlements)
	s.mux.HandleFunc("GET /refunds", s.handleRefunds)

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleInitialize(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerIdentity(w, r)
	if !ok {
		return
	}

	var req struct {
		Treasury string `json:"treasury,omitempty"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	var expected *models.Identity
	if req.Treasury != "" {
		id, err := models.ParseIdentity(req.Treasury)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_identity", err.Error())
			return
		}
		expected = &id
	}

	account, err := s.ledger.Initialize(r.Context(), caller, expected)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, accountResponse(account))
}

func (s *Server) handlePayNative(w http.ResponseWriter, r *http.Request) {
	s.handlePay(w, r, false)
}

func (s *Server) handlePayToken(w http.ResponseWriter, r *http.Request) {
	s.handlePay(w, r, true)
}

func (s *Server) handlePay(w http.ResponseWriter, r *http.Request, withMint bool) {
	caller, ok := callerIdentity(w, r)
	if !ok {
		return
	}

	var req struct {
		Amount      amountField `json:"amount"`
		ServiceType string      `json:"service_type"`
		SessionID   string      `json:"session_id"`
		Mint        string      `json:"mint,omitempty"`
		Receiver    string      `json:"receiver,omitempty"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "missing_session_id", "session_id is required")
		return
	}

	amount, err := req.Amount.baseUnits()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid_amount", err.Error())
		return
	}

	var receiver *models.Identity
	if req.Receiver != "" {
		id, err := models.ParseIdentity(req.Receiver)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_identity", err.Error())
			return
		}
		receiver = &id
	}

	var settlement models.Settlement
	if withMint {
		mint, err := models.ParseIdentity(req.Mint)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_identity", err.Error())
			return
		}
		settlement, err = s.ledger.PayToken(r.Context(), caller, mint, amount, req.ServiceType, req.SessionID, receiver)
		if err != nil {
			writeLedgerError(w, err)
			return
		}
	} else {
		settlement, err = s.ledger.PayNative(r.Context(), caller, amount, req.ServiceType, req.SessionID, receiver)
		if err != nil {
			writeLedgerError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusCreated, settlementResponse(settlement))
}

func (s *Server) handleRefundNative(w http.ResponseWriter, r *http.Request) {
	s.handleRefund(w, r, false)
}

func (s *Server) handleRefundToken(w http.ResponseWriter, r *http.Request) {
	s.handleRefund(w, r, true)
}

func (s *Server) handleRefund(w http.ResponseWriter, r *http.Request, withMint bool) {
	caller, ok := callerIdentity(w, r)
	if !ok {
		return
	}

	var req struct {
		Amount    amountField `json:"amount"`
		SessionID string      `json:"session_id"`
		Recipient string      `json:"recipient"`
		Mint      string      `json:"mint,omitempty"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	amount, err := req.Amount.baseUnits()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid_amount", err.Error())
		return
	}
	recipient, err := models.ParseIdentity(req.Recipient)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_identity", err.Error())
		return
	}

	var refund models.Refund
	if withMint {
		mint, err := models.ParseIdentity(req.Mint)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_identity", err.Error())
			return
		}
		refund, err = s.ledger.RefundToken(r.Context(), caller, recipient, mint, amount, req.SessionID)
		if err != nil {
			writeLedgerError(w, err)
			return
		}
	} else {
		refund, err = s.ledger.RefundNative(r.Context(), caller, recipient, amount, req.SessionID)
		if err != nil {
			writeLedgerError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusCreated, refundResponse(refund))
}

func (s *Server) handleSetPaused(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerIdentity(w, r)
	if !ok {
		return
	}

	var req struct {
		Paused bool `json:"paused"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if err := s.ledger.SetPaused(r.Context(), caller, req.Paused); err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"paused": req.Paused})
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	account, err := s.ledger.Account(r.Context())
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accountResponse(account))
}

func (s *Server) handleSettlements(w http.ResponseWriter, r *http.Request) {
	settlements, err := s.ledger.Settlements(r.Context())
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	resp := make([]any, 0, len(settlements))
	for _, settlement := range settlements {
		resp = append(resp, settlementResponse(settlement))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRefunds(w http.ResponseWriter, r *http.Request) {
	refunds, err := s.ledger.Refunds(r.Context())
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	resp := make([]any, 0, len(refunds))
	for _, refund := range refunds {
		resp = append(resp, refundResponse(refund))
	}
	writeJSON(w, http.StatusOK, resp)
}

func callerIdentity(w http.ResponseWriter, r *http.Request) (models.Identity, bool) {
	raw := r.Header.Get(IdentityHeader)
	if raw == "" {
		writeError(w, http.StatusBadRequest, "missing_identity", IdentityHeader+" header is required")
		return models.Identity{}, false
	}
	id, err := models.ParseIdentity(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_identity", err.Error())
		return models.Identity{}, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return false
	}
	return true
}

// writeLedgerError maps the core error taxonomy to HTTP statuses. Every
// sentinel gets a distinct machine-readable code.
func writeLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrAlreadyInitialized):
		writeError(w, http.StatusConflict, "already_initialized", err.Error())
	case errors.Is(err, ledger.ErrNotInitialized):
		writeError(w, http.StatusNotFound, "not_initialized", err.Error())
	case errors.Is(err, ledger.ErrServicePaused):
		writeError(w, http.StatusLocked, "service_paused", err.Error())
	case errors.Is(err, ledger.ErrInvalidAmount):
		writeError(w, http.StatusUnprocessableEntity, "invalid_amount", err.Error())
	case errors.Is(err, ledger.ErrSessionAlreadyProcessed):
		writeError(w, http.StatusConflict, "session_already_processed", err.Error())
	case errors.Is(err, ledger.ErrReceiverMismatch):
		writeError(w, http.StatusUnprocessableEntity, "receiver_mismatch", err.Error())
	case errors.Is(err, ledger.ErrInvalidTreasuryAddress):
		writeError(w, http.StatusUnprocessableEntity, "invalid_treasury_address", err.Error())
	case errors.Is(err, ledger.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized", err.Error())
	case errors.Is(err, ledger.ErrTransferFailed):
		writeError(w, http.StatusPaymentRequired, "transfer_failed", err.Error())
	default:
		log.Printf("internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": code, "message": message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("encode response: %v", err)
	}
}
