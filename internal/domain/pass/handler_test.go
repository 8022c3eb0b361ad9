package pass_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vispass/vispass-api/internal/domain/pass"
	"github.com/vispass/vispass-api/internal/middleware"
)

func TestPassIssueInsufficientFundsResponse(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(db)

	accountID := fundAccount(t, db, testFee-1)
	h := pass.NewHandler(newPassService(db, pass.Config{Fee: testFee}))

	req := httptest.NewRequest(http.MethodPost, "/passes", strings.NewReader(`{"visitor_name":"Jane Visitor"}`))
	req = req.WithContext(context.WithValue(req.Context(), middleware.AccountIDKey, accountID))
	rr := httptest.NewRecorder()

	h.Issue(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}

	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code    string            `json:"code"`
			Message string            `json:"message"`
			Details map[string]string `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Success {
		t.Fatal("expected success=false")
	}
	if body.Error.Code != "INSUFFICIENT_FUNDS" {
		t.Fatalf("expected INSUFFICIENT_FUNDS, got %q", body.Error.Code)
	}
	if got := body.Error.Details["balance"]; got != "99" {
		t.Fatalf("expected current balance 99 in details, got %q", got)
	}
	if got := body.Error.Details["fee"]; got != "100" {
		t.Fatalf("expected fee 100 in details, got %q", got)
	}
}
