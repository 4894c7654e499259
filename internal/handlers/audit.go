package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/BradenHooton/taskvault/internal/auth"
	"github.com/BradenHooton/taskvault/internal/models"
	pkghttp "github.com/BradenHooton/taskvault/pkg/http"
)

// SecurityEventLister reads an account's audit trail
type SecurityEventLister interface {
	ListForAccount(ctx context.Context, email string, limit, offset int) ([]*models.SecurityEvent, error)
}

// AuditHandler serves the caller's own security events
type AuditHandler struct {
	events SecurityEventLister
}

func NewAuditHandler(events SecurityEventLister) *AuditHandler {
	return &AuditHandler{events: events}
}

type SecurityEventsResponse struct {
	Events []*models.SecurityEvent `json:"events"`
	Limit  int                     `json:"limit"`
	Offset int                     `json:"offset"`
}

// ListMine returns security events recorded against the authenticated account's email
func (h *AuditHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}

	limit, offset := parsePagination(r)

	events, err := h.events.ListForAccount(r.Context(), claims.Email, limit, offset)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, SecurityEventsResponse{Events: events, Limit: limit, Offset: offset})
}

// parsePagination reads limit and offset, falling back to 50 and 0
func parsePagination(r *http.Request) (int, int) {
	limit := 50
	offset := 0

	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 100 {
			limit = v
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if v, err := strconv.Atoi(o); err == nil && v >= 0 {
			offset = v
		}
	}

	return limit, offset
}
