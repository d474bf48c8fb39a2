package httpapi

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	appProduct "github.com/midas-vault/midas-vault/internal/application/product"
	"github.com/midas-vault/midas-vault/internal/domain/product"
	"github.com/midas-vault/midas-vault/internal/domain/user"
)

type verificationRequest struct {
	Note *string `json:"note"`
}

type verificationFunc func(ctx context.Context, actor user.Actor, productID uuid.UUID, note *string) (*product.Product, error)

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	var req appProduct.CreateInput
	if !decodeBody(w, r, &req) {
		return
	}
	p, err := s.productSvc.Create(r.Context(), actorFrom(r.Context()), req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

// listProducts is the public marketplace: approved and available only.
func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffset(r, 20, 100)
	products, err := s.productSvc.ListMarketplace(r.Context(), r.URL.Query().Get("search"), limit, offset)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"products": products})
}

func (s *Server) listMyProducts(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffset(r, 20, 100)
	products, err := s.productSvc.ListMine(r.Context(), actorFrom(r.Context()), limit, offset)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"products": products})
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "productId")
	if !ok {
		return
	}
	p, err := s.productSvc.Get(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "productId")
	if !ok {
		return
	}
	var req appProduct.UpdateInput
	if !decodeBody(w, r, &req) {
		return
	}
	p, err := s.productSvc.UpdateDetails(r.Context(), actorFrom(r.Context()), id, req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "productId")
	if !ok {
		return
	}
	if err := s.productSvc.Delete(r.Context(), actorFrom(r.Context()), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "product deleted")
}

func (s *Server) resubmitProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "productId")
	if !ok {
		return
	}
	p, err := s.productSvc.Resubmit(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) listPendingVerifications(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffset(r, 50, 200)
	products, err := s.productSvc.ListPending(r.Context(), actorFrom(r.Context()), limit, offset)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"products": products})
}

func (s *Server) approveProduct(w http.ResponseWriter, r *http.Request) {
	s.decideProduct(w, r, s.productSvc.Approve)
}

func (s *Server) rejectProduct(w http.ResponseWriter, r *http.Request) {
	s.decideProduct(w, r, s.productSvc.Reject)
}

func (s *Server) decideProduct(w http.ResponseWriter, r *http.Request, decide verificationFunc) {
	id, ok := pathID(w, r, "productId")
	if !ok {
		return
	}
	var req verificationRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}
	p, err := decide(r.Context(), actorFrom(r.Context()), id, req.Note)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}
