package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/ternhq/tern/internal/application"
	"github.com/ternhq/tern/internal/domain"
)

type Handlers struct {
	service  *application.URLService
	baseURL  string
	repo     domain.URLRepository
	validate *validator.Validate
}

func NewHandlers(service *application.URLService, baseURL string, repo domain.URLRepository) *Handlers {
	return &Handlers{
		service:  service,
		baseURL:  baseURL,
		repo:     repo,
		validate: validator.New(),
	}
}

// CreateURLRequest represents the request payload for creating a short URL.
type CreateURLRequest struct {
	URL string `json:"url" validate:"required"`
}

// URLResponse represents a short URL record as returned by the API.
type URLResponse struct {
	ShortURL    string    `json:"shortUrl"`
	Code        string    `json:"code"`
	OriginalURL string    `json:"originalUrl"`
	CreatedAt   time.Time `json:"createdAt"`
	Visits      int64     `json:"visits"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse represents a confirmation response.
type MessageResponse struct {
	Message string `json:"message"`
}

func (h *Handlers) toResponse(url *domain.URL) URLResponse {
	return URLResponse{
		ShortURL:    h.baseURL + "/" + url.Code,
		Code:        url.Code,
		OriginalURL: url.OriginalURL,
		CreatedAt:   url.CreatedAt,
		Visits:      url.Visits,
	}
}

// HandleHealth handles the health check endpoint.
//
//	@Summary		Health check endpoint
//	@Description	Check if the service is running
//	@Tags			health
//	@Produce		plain
//	@Success		200	{string}	string	"OK"
//	@Router			/health [get]
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// HandleReady handles the readiness check endpoint.
//
//	@Summary		Readiness check endpoint
//	@Description	Check if the service is ready to serve requests (includes database connectivity)
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	object{status=string,timestamp=string}	"Service is ready"
//	@Failure		503	{object}	ErrorResponse							"Service is not ready"
//	@Router			/ready [get]
func (h *Handlers) HandleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.HealthCheck(ctx); err != nil {
		slog.Error("Readiness check failed", "error", err)
		respondWithError(w, http.StatusServiceUnavailable, "Service not ready: database unavailable")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"status":    "ready",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// HandleShorten handles the URL shortening endpoint.
//
//	@Summary		Create a short URL
//	@Description	Create a shortened URL from a long URL; returns the existing record when the URL was already shortened
//	@Tags			urls
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CreateURLRequest	true	"URL to shorten"
//	@Success		201		{object}	URLResponse			"Short URL created"
//	@Success		200		{object}	URLResponse			"URL was already shortened"
//	@Failure		400		{object}	ErrorResponse		"Missing or invalid URL"
//	@Router			/shorten [post]
func (h *Handlers) HandleShorten(w http.ResponseWriter, r *http.Request) {
	var req CreateURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Missing 'url' in request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Missing 'url' in request body")
		return
	}

	url, created, err := h.service.Shorten(r.Context(), req.URL)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidURL) {
			respondWithError(w, http.StatusBadRequest, "Invalid URL")
			return
		}
		slog.Error("Failed to create short URL", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to create short URL")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		slog.Info("Created short URL", "code", url.Code, "original_url", url.OriginalURL)
	}
	respondWithJSON(w, status, h.toResponse(url))
}

// HandleRedirect handles the redirect endpoint.
//
//	@Summary		Redirect to original URL
//	@Description	Redirect to the original URL using the short code
//	@Tags			urls
//	@Param			code	path	string	true	"Short code"
//	@Success		302		"Redirect to original URL"
//	@Failure		404		{object}	ErrorResponse	"Short URL not found"
//	@Router			/{code} [get]
func (h *Handlers) HandleRedirect(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	originalURL, err := h.service.Resolve(r.Context(), code)
	if err != nil {
		if errors.Is(err, domain.ErrURLNotFound) {
			respondWithError(w, http.StatusNotFound, "Short URL not found")
			return
		}
		slog.Error("Failed to resolve short code", "code", code, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to resolve short code")
		return
	}

	http.Redirect(w, r, originalURL, http.StatusFound)
}

// HandleStatsList handles the stats listing endpoint.
//
//	@Summary		List all short URLs
//	@Description	List every short URL with its visit count
//	@Tags			stats
//	@Produce		json
//	@Success		200	{array}	URLResponse
//	@Router			/stats [get]
func (h *Handlers) HandleStatsList(w http.ResponseWriter, r *http.Request) {
	urls, err := h.service.ListStats(r.Context())
	if err != nil {
		slog.Error("Failed to list URLs", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to list URLs")
		return
	}

	responses := make([]URLResponse, 0, len(urls))
	for i := range urls {
		responses = append(responses, h.toResponse(&urls[i]))
	}
	respondWithJSON(w, http.StatusOK, responses)
}

// HandleStatsGet handles the per-code stats endpoint.
//
//	@Summary		Get stats for a short URL
//	@Description	Get the record and visit count for a single short code
//	@Tags			stats
//	@Produce		json
//	@Param			code	path		string	true	"Short code"
//	@Success		200		{object}	URLResponse
//	@Failure		404		{object}	ErrorResponse	"Short URL not found"
//	@Router			/stats/{code} [get]
func (h *Handlers) HandleStatsGet(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	url, err := h.service.GetStats(r.Context(), code)
	if err != nil {
		if errors.Is(err, domain.ErrURLNotFound) {
			respondWithError(w, http.StatusNotFound, "Short URL not found")
			return
		}
		slog.Error("Failed to get URL stats", "code", code, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to get URL stats")
		return
	}

	respondWithJSON(w, http.StatusOK, h.toResponse(url))
}

// HandleStatsDelete handles the delete endpoint.
//
//	@Summary		Delete a short URL
//	@Description	Delete a short URL and its cached entry
//	@Tags			stats
//	@Produce		json
//	@Param			code	path		string	true	"Short code"
//	@Success		200		{object}	MessageResponse
//	@Failure		404		{object}	ErrorResponse	"Short URL not found"
//	@Router			/stats/{code} [delete]
func (h *Handlers) HandleStatsDelete(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	if err := h.service.Remove(r.Context(), code); err != nil {
		if errors.Is(err, domain.ErrURLNotFound) {
			respondWithError(w, http.StatusNotFound, "Short URL not found")
			return
		}
		slog.Error("Failed to delete short URL", "code", code, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to delete short URL")
		return
	}

	slog.Info("Deleted short URL", "code", code)
	respondWithJSON(w, http.StatusOK, MessageResponse{Message: "Deleted"})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}
