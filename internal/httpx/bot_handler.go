package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"gamekey-bot/internal/bot"
	"gamekey-bot/internal/market"
	"gamekey-bot/internal/purchases"
)

// BotHandler is the dispatch facade: the chat-transport gateway translates
// user commands into these endpoints and renders the JSON results.
type BotHandler struct {
	Svc *bot.Service
}

func (h *BotHandler) Register(r *chi.Mux) {
	r.Post("/commands/buy", h.buy)
	r.Post("/commands/quickbuy", h.quickBuy)
	r.Post("/commands/confirm", h.confirm)
	r.Post("/commands/cancel", h.cancel)
	r.Post("/links", h.createLink)
	r.Delete("/links/{externalID}", h.removeLink)
	r.Get("/links", h.listLinks)
	r.Get("/balance", h.balance)
	r.Get("/history", h.history)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, bot.ErrUnauthorized):
		code = http.StatusForbidden
	case errors.Is(err, bot.ErrSessionExpired):
		code = http.StatusConflict
	case errors.Is(err, bot.ErrLinkNotFound), errors.Is(err, market.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, bot.ErrInvalidQuantity):
		code = http.StatusBadRequest
	case errors.Is(err, bot.ErrOutOfStock), errors.Is(err, bot.ErrInsufficientStock):
		code = http.StatusConflict
	case errors.Is(err, purchases.ErrDuplicateOrder):
		// Anomaly, not user error; surface a generic failure.
		code = http.StatusInternalServerError
	default:
		var apiErr *market.APIError
		if errors.As(err, &apiErr) {
			code = http.StatusBadGateway
		}
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

type buyReq struct {
	UserID    int64 `json:"user_id"`
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

func (h *BotHandler) buy(w http.ResponseWriter, r *http.Request) {
	var req buyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	q, err := h.Svc.BuyIntent(r.Context(), req.UserID, req.ProductID, req.Quantity)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quoteResp(q))
}

type quickBuyReq struct {
	UserID     int64  `json:"user_id"`
	ExternalID string `json:"external_id"`
}

func (h *BotHandler) quickBuy(w http.ResponseWriter, r *http.Request) {
	var req quickBuyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	q, err := h.Svc.QuickBuyIntent(r.Context(), req.UserID, req.ExternalID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quoteResp(q))
}

func quoteResp(q bot.Quote) map[string]any {
	resp := map[string]any{
		"product":  q.Product,
		"quantity": q.Quantity,
		"total":    q.Total,
	}
	if q.ExternalID != "" {
		resp["external_id"] = q.ExternalID
		resp["linked_price"] = q.LinkedPrice
		resp["price_drift"] = q.Drift
	}
	return resp
}

type userReq struct {
	UserID int64 `json:"user_id"`
}

func (h *BotHandler) confirm(w http.ResponseWriter, r *http.Request) {
	var req userReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	receipt, err := h.Svc.Confirm(r.Context(), req.UserID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"order_id":    receipt.OrderID,
		"status":      receipt.Status,
		"total_price": receipt.TotalPrice,
		"keys":        receipt.Keys,
		"pending":     receipt.Pending,
	})
}

func (h *BotHandler) cancel(w http.ResponseWriter, r *http.Request) {
	var req userReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if err := h.Svc.Cancel(r.Context(), req.UserID); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": "cancelled"})
}

type linkReq struct {
	UserID     int64  `json:"user_id"`
	ProductID  int64  `json:"product_id"`
	ExternalID string `json:"external_id"`
}

func (h *BotHandler) createLink(w http.ResponseWriter, r *http.Request) {
	var req linkReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.ExternalID == "" || req.ProductID == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing fields"})
		return
	}
	product, err := h.Svc.LinkCreate(r.Context(), req.UserID, req.ProductID, req.ExternalID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"external_id": req.ExternalID,
		"product":     product,
	})
}

func (h *BotHandler) removeLink(w http.ResponseWriter, r *http.Request) {
	externalID := chi.URLParam(r, "externalID")
	userID := queryUserID(r)
	if err := h.Svc.LinkRemove(r.Context(), userID, externalID); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": "removed"})
}

func (h *BotHandler) listLinks(w http.ResponseWriter, r *http.Request) {
	links, err := h.Svc.ListLinks(r.Context(), queryUserID(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, links)
}

func (h *BotHandler) balance(w http.ResponseWriter, r *http.Request) {
	b, err := h.Svc.Balance(r.Context(), queryUserID(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *BotHandler) history(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	items, err := h.Svc.History(r.Context(), queryUserID(r), limit)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func queryUserID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	return id
}
