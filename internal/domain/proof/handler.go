package proof

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vispass/vispass-api/internal/middleware"
	"github.com/vispass/vispass-api/internal/pkg/response"
	"github.com/vispass/vispass-api/internal/pkg/storage"
)

const maxUploadBody = 12 * 1024 * 1024

// Handler handles proof HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates proof handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Upload handles POST /proofs
// Multipart form: file
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)

	if err := r.ParseMultipartForm(maxUploadBody); err != nil {
		response.BadRequest(w, "File too large or invalid form")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "No file provided")
		return
	}
	defer file.Close()

	accountID := middleware.GetAccountID(r.Context())
	if accountID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	p, err := h.service.Upload(r.Context(), accountID, file)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrFileTooLarge):
			response.BadRequest(w, "File exceeds maximum size")
		case errors.Is(err, storage.ErrInvalidMimeType):
			response.BadRequest(w, "File type not allowed")
		case errors.Is(err, storage.ErrEmptyFile):
			response.BadRequest(w, "File is empty")
		default:
			response.InternalError(w)
		}
		return
	}

	response.Created(w, p)
}

// Get handles GET /proofs/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid proof ID")
		return
	}

	accountID := middleware.GetAccountID(r.Context())
	role := middleware.GetRole(r.Context())
	staff := role == "staff" || role == "admin"

	p, err := h.service.Get(r.Context(), id, accountID, staff)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			response.NotFound(w, "proof not found")
		case errors.Is(err, ErrNotOwner):
			response.Forbidden(w, "proof belongs to another account")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, p)
}

// ListMine handles GET /proofs
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())

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

	proofs, err := h.service.ListMine(r.Context(), accountID, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, proofs)
}

// Routes returns proof router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Post("/", h.Upload)
	r.Get("/", h.ListMine)
	r.Get("/{id}", h.Get)

	return r
}
