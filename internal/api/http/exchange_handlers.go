package httpapi

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	appExchange "github.com/midas-vault/midas-vault/internal/application/exchange"
	"github.com/midas-vault/midas-vault/internal/domain/barter"
	"github.com/midas-vault/midas-vault/internal/domain/purchase"
	"github.com/midas-vault/midas-vault/internal/domain/tradein"
	"github.com/midas-vault/midas-vault/internal/domain/user"
)

type createPurchaseRequest struct {
	ProductID uuid.UUID `json:"product_id"`
}

// byID runs a single-record operation named by a route parameter.
func byID[T any](s *Server, w http.ResponseWriter, r *http.Request, param string,
	fn func(ctx context.Context, actor user.Actor, id uuid.UUID) (T, error)) {
	id, ok := pathID(w, r, param)
	if !ok {
		return
	}
	out, err := fn(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

func statusFilter[T ~string](r *http.Request) *T {
	v := optionalQuery(r, "status")
	if v == nil {
		return nil
	}
	status := T(*v)
	return &status
}

// Purchases

func (s *Server) createPurchase(w http.ResponseWriter, r *http.Request) {
	var req createPurchaseRequest
	if !decodeBody(w, r, &req) {
		return
	}
	view, err := s.exchangeSvc.CreatePurchase(r.Context(), actorFrom(r.Context()), req.ProductID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, view)
}

func (s *Server) listPurchases(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffset(r, 20, 100)
	views, err := s.exchangeSvc.ListPurchases(r.Context(), actorFrom(r.Context()), statusFilter[purchase.Status](r), limit, offset)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"purchases": views})
}

func (s *Server) getPurchase(w http.ResponseWriter, r *http.Request) {
	byID(s, w, r, "purchaseId", s.exchangeSvc.GetPurchase)
}

func (s *Server) confirmPurchase(w http.ResponseWriter, r *http.Request) {
	byID(s, w, r, "purchaseId", s.exchangeSvc.ConfirmPurchase)
}

func (s *Server) cancelPurchase(w http.ResponseWriter, r *http.Request) {
	byID(s, w, r, "purchaseId", s.exchangeSvc.CancelPurchase)
}

// Barters

func (s *Server) createBarter(w http.ResponseWriter, r *http.Request) {
	var req appExchange.CreateBarterInput
	if !decodeBody(w, r, &req) {
		return
	}
	view, err := s.exchangeSvc.CreateBarter(r.Context(), actorFrom(r.Context()), req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, view)
}

func (s *Server) listBarters(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffset(r, 20, 100)
	views, err := s.exchangeSvc.ListBarters(r.Context(), actorFrom(r.Context()), statusFilter[barter.Status](r), limit, offset)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"barters": views})
}

func (s *Server) getBarter(w http.ResponseWriter, r *http.Request) {
	byID(s, w, r, "barterId", s.exchangeSvc.GetBarter)
}

func (s *Server) acceptBarter(w http.ResponseWriter, r *http.Request) {
	byID(s, w, r, "barterId", s.exchangeSvc.AcceptBarter)
}

func (s *Server) rejectBarter(w http.ResponseWriter, r *http.Request) {
	byID(s, w, r, "barterId", s.exchangeSvc.RejectBarter)
}

func (s *Server) confirmBarter(w http.ResponseWriter, r *http.Request) {
	byID(s, w, r, "barterId", s.exchangeSvc.ConfirmBarter)
}

func (s *Server) cancelBarter(w http.ResponseWriter, r *http.Request) {
	byID(s, w, r, "barterId", s.exchangeSvc.CancelBarter)
}

// Trade-ins

func (s *Server) createTradeIn(w http.ResponseWriter, r *http.Request) {
	var req appExchange.CreateTradeInInput
	if !decodeBody(w, r, &req) {
		return
	}
	view, err := s.exchangeSvc.CreateTradeIn(r.Context(), actorFrom(r.Context()), req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, view)
}

func (s *Server) listTradeIns(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffset(r, 20, 100)
	views, err := s.exchangeSvc.ListTradeIns(r.Context(), actorFrom(r.Context()), statusFilter[tradein.Status](r), limit, offset)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"trade_ins": views})
}

func (s *Server) getTradeIn(w http.ResponseWriter, r *http.Request) {
	byID(s, w, r, "tradeInId", s.exchangeSvc.GetTradeIn)
}

func (s *Server) acceptTradeIn(w http.ResponseWriter, r *http.Request) {
	byID(s, w, r, "tradeInId", s.exchangeSvc.AcceptTradeIn)
}

func (s *Server) rejectTradeIn(w http.ResponseWriter, r *http.Request) {
	byID(s, w, r, "tradeInId", s.exchangeSvc.RejectTradeIn)
}

func (s *Server) payTradeIn(w http.ResponseWriter, r *http.Request) {
	byID(s, w, r, "tradeInId", s.exchangeSvc.PayTradeIn)
}

func (s *Server) cancelTradeIn(w http.ResponseWriter, r *http.Request) {
	byID(s, w, r, "tradeInId", s.exchangeSvc.CancelTradeIn)
}
