package handlers

import (
	"net/http"

	"github.com/hongminglow/storefront/internal/apperr"
	"github.com/hongminglow/storefront/internal/checkout"
	"github.com/hongminglow/storefront/internal/http/respond"
	"github.com/hongminglow/storefront/internal/models/dto"
	"github.com/hongminglow/storefront/internal/session"
)

// CheckoutHandler accepts a client cart and returns the payment reference.
type CheckoutHandler struct {
	checkout *checkout.Service
}

func NewCheckoutHandler(svc *checkout.Service) *CheckoutHandler {
	return &CheckoutHandler{checkout: svc}
}

func (h *CheckoutHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/checkout", h.handleCheckout)
}

func (h *CheckoutHandler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req dto.CheckoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Fail(w, r, err)
		return
	}

	lines := make([]checkout.Line, 0, len(req.Cart))
	for _, item := range req.Cart {
		lines = append(lines, checkout.Line{
			ProductID:   item.Product.ID,
			Name:        item.Product.Name,
			ClientPrice: item.Product.Price,
			Quantity:    item.Quantity,
		})
	}

	receipt, err := h.checkout.Execute(r.Context(), checkout.Input{
		UserID: session.FromContext(r.Context()).UserID(),
		Lines:  lines,
	})
	if err != nil {
		status := apperr.HTTPStatus(err)
		// An unknown product in a cart is a bad request, not a missing route.
		if apperr.KindOf(err) == apperr.KindNotFound {
			status = http.StatusBadRequest
		}
		respond.FailStatus(w, r, status, err)
		return
	}

	respond.JSON(w, http.StatusOK, "checkout complete", dto.CheckoutResponse{
		Success:     true,
		Total:       receipt.Total,
		BankAccount: receipt.BankAccount,
		OrderID:     receipt.OrderID,
	})
}
