package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BradenHooton/taskvault/internal/handlers"
	"github.com/BradenHooton/taskvault/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestAuditHandler_ListMine(t *testing.T) {
	var gotEmail string
	var gotLimit, gotOffset int
	lister := &handlers.MockSecurityEventLister{
		ListForAccountFunc: func(ctx context.Context, email string, limit, offset int) ([]*models.SecurityEvent, error) {
			gotEmail, gotLimit, gotOffset = email, limit, offset
			return []*models.SecurityEvent{{Action: models.SecurityActionOTPVerify, Success: true}}, nil
		},
	}
	handler := handlers.NewAuditHandler(lister)

	req := handlers.WithAuthContext(httptest.NewRequest("GET", "/api/v1/me/security-events?limit=500&offset=5", nil), "acct-1", "user@example.com")
	w := httptest.NewRecorder()
	handler.ListMine(w, req)

	var resp handlers.SecurityEventsResponse
	handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
	assert.Len(t, resp.Events, 1)
	assert.Equal(t, "user@example.com", gotEmail)
	assert.Equal(t, 50, gotLimit, "out-of-range limit falls back to the default")
	assert.Equal(t, 5, gotOffset)
	assert.NotContains(t, w.Body.String(), "device_fingerprint")
}

func TestAuditHandler_ListMine_Unauthenticated(t *testing.T) {
	handler := handlers.NewAuditHandler(&handlers.MockSecurityEventLister{})

	w := httptest.NewRecorder()
	handler.ListMine(w, httptest.NewRequest("GET", "/api/v1/me/security-events", nil))

	handlers.AssertErrorResponse(t, w, http.StatusUnauthorized, "unauthorized")
}
