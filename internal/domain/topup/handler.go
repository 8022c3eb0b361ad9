package topup

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vispass/vispass-api/internal/middleware"
	"github.com/vispass/vispass-api/internal/pkg/response"
	"github.com/vispass/vispass-api/internal/pkg/validator"
)

// Handler handles top-up HTTP requests
type Handler struct {
	svc *Service
}

// NewHandler creates top-up handler
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Submit handles POST /topups
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())
	if accountID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	created, err := h.svc.Submit(r.Context(), accountID, req.Amount, req.ProofRef, Method(req.Method))
	if err != nil {
		response.InternalError(w)
		return
	}

	response.Created(w, created)
}

// ListMine handles GET /topups
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())
	if accountID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	limit, offset := paginationParams(r)

	requests, err := h.svc.ListMine(r.Context(), accountID, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, requests)
}

// ListPending handles GET /topups/pending (admin)
func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r)

	requests, err := h.svc.ListPending(r.Context(), limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, requests)
}

// Decide handles POST /topups/{id}/decision (admin)
func (h *Handler) Decide(w http.ResponseWriter, r *http.Request) {
	adminID := middleware.GetAccountID(r.Context())
	if adminID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	requestID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid request ID")
		return
	}

	var req DecideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	decided, err := h.svc.Decide(r.Context(), requestID, Status(req.Verdict), adminID, req.AdminNote)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			response.NotFound(w, "top-up request not found")
		case errors.Is(err, ErrAlreadyDecided):
			response.Conflict(w, "top-up request already processed")
		case errors.Is(err, ErrInvalidVerdict):
			response.BadRequest(w, "verdict must be approved or rejected")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, decided)
}

// Routes returns top-up router
func (h *Handler) Routes(authMiddleware, adminMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Post("/", h.Submit)
	r.Get("/", h.ListMine)
	r.With(adminMiddleware).Get("/pending", h.ListPending)
	r.With(adminMiddleware).Post("/{id}/decision", h.Decide)

	return r
}

func paginationParams(r *http.Request) (limit, offset int) {
	limit = 20
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
