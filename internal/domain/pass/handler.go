package pass

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vispass/vispass-api/internal/domain/wallet"
	"github.com/vispass/vispass-api/internal/middleware"
	"github.com/vispass/vispass-api/internal/pkg/qr"
	"github.com/vispass/vispass-api/internal/pkg/response"
	"github.com/vispass/vispass-api/internal/pkg/validator"
)

// Handler handles pass HTTP requests
type Handler struct {
	svc *Service
}

// NewHandler creates pass handler
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Issue handles POST /passes
func (h *Handler) Issue(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())
	if accountID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req IssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	c, balance, err := h.svc.Issue(r.Context(), accountID, req.VisitorName, req.Purpose)
	if err != nil {
		if errors.Is(err, wallet.ErrInsufficientFunds) {
			response.ErrorWithDetails(w, http.StatusConflict, "INSUFFICIENT_FUNDS",
				"insufficient wallet balance for entry fee", map[string]string{
					"balance": strconv.FormatInt(balance, 10),
					"fee":     strconv.FormatInt(h.svc.Fee(), 10),
				})
			return
		}
		response.InternalError(w)
		return
	}

	response.Created(w, IssueResponse{Credential: c, Token: c.Token, Balance: balance})
}

// Redeem handles POST /passes/redeem (gate scan, staff only)
func (h *Handler) Redeem(w http.ResponseWriter, r *http.Request) {
	var req RedeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	c, err := h.svc.Redeem(r.Context(), req.Token)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			response.NotFound(w, "pass not found")
		case errors.Is(err, ErrAlreadyConsumed):
			response.Conflict(w, "pass already processed")
		case errors.Is(err, ErrExpired):
			response.Conflict(w, "pass expired")
		case errors.Is(err, ErrNotActive):
			response.Conflict(w, "pass is not active")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, c)
}

// Cancel handles POST /passes/{id}/cancel
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())
	if accountID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	credentialID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid pass ID")
		return
	}

	c, err := h.svc.Cancel(r.Context(), credentialID, accountID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			response.NotFound(w, "pass not found")
		case errors.Is(err, ErrNotOwner):
			response.Forbidden(w, "pass belongs to another account")
		case errors.Is(err, ErrAlreadyConsumed):
			response.Conflict(w, "pass already consumed")
		case errors.Is(err, ErrNotActive):
			response.Conflict(w, "pass is not active")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, c)
}

// QRImage handles GET /passes/{id}/qr: renders the credential token as a
// downloadable PNG for the owner.
func (h *Handler) QRImage(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())
	if accountID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	credentialID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid pass ID")
		return
	}

	c, err := h.svc.Get(r.Context(), credentialID, accountID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			response.NotFound(w, "pass not found")
		case errors.Is(err, ErrNotOwner):
			response.Forbidden(w, "pass belongs to another account")
		default:
			response.InternalError(w)
		}
		return
	}

	size := 256
	if s := r.URL.Query().Get("size"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 128 && v <= 1024 {
			size = v
		}
	}

	png, err := qr.RenderPNG(c.Token, size)
	if err != nil {
		response.InternalError(w)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// Get handles GET /passes/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())
	if accountID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	credentialID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid pass ID")
		return
	}

	c, err := h.svc.Get(r.Context(), credentialID, accountID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			response.NotFound(w, "pass not found")
		case errors.Is(err, ErrNotOwner):
			response.Forbidden(w, "pass belongs to another account")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, c)
}

// ListMine handles GET /passes
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())
	if accountID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	limit := 20
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

	credentials, err := h.svc.ListMine(r.Context(), accountID, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, credentials)
}

// Routes returns pass router
func (h *Handler) Routes(authMiddleware, staffMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Post("/", h.Issue)
	r.Get("/", h.ListMine)
	r.With(staffMiddleware).Post("/redeem", h.Redeem)
	r.Get("/{id}", h.Get)
	r.Get("/{id}/qr", h.QRImage)
	r.Post("/{id}/cancel", h.Cancel)

	return r
}
