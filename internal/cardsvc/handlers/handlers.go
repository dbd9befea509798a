package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/avvvet/pixelcard-services/internal/cardsvc/models"
	"github.com/avvvet/pixelcard-services/internal/cardsvc/service"
	"github.com/go-chi/jwtauth"
	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"
	gobreaker "github.com/sony/gobreaker/v2"
)

const rootMessage = "Pixel Card Collection Game API"

// CardService is the part of service.CardService the HTTP layer uses.
type CardService interface {
	GenerateCard(ctx context.Context) (models.Card, error)
	ListCards(ctx context.Context, limit int) ([]models.Card, error)
	SetLiked(ctx context.Context, cardID string, liked bool) error
	Collection(ctx context.Context) ([]models.Card, error)
	PreGenerate(ctx context.Context, count int) []string
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// BreakerStater reports the image API circuit state for health checks.
type BreakerStater interface {
	State() gobreaker.State
}

type Handler struct {
	svc       CardService
	db        Pinger
	breaker   BreakerStater
	tokenAuth *jwtauth.JWTAuth
	validate  *validator.Validate
	maxPregen int
}

func NewHandler(svc CardService, db Pinger) *Handler {
	return &Handler{
		svc:       svc,
		db:        db,
		validate:  validator.New(),
		maxPregen: service.DefaultMaxPregenCount,
	}
}

// SetPregenLimit sets the largest count accepted by pre-generate-cards.
func (h *Handler) SetPregenLimit(n int) {
	if n > 0 {
		h.maxPregen = n
	}
}

// SetImageBreaker adds the image API circuit state to the health report.
func (h *Handler) SetImageBreaker(b BreakerStater) {
	h.breaker = b
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Detail string `json:"detail"`
}

type PreGenerateResponse struct {
	Message string   `json:"message"`
	CardIDs []string `json:"card_ids"`
}

// LikeCardRequest requires both fields to be present. An empty card_id is
// accepted and, like any unknown id, changes nothing.
type LikeCardRequest struct {
	CardID *string `json:"card_id" validate:"required"`
	Liked  *bool   `json:"liked" validate:"required"`
}

func (h *Handler) CreateResponse(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Errorf("encode response: %v", err)
	}
}

func (h *Handler) CreateError(w http.ResponseWriter, code int, detail string) {
	h.CreateResponse(w, code, ErrorResponse{Detail: detail})
}

// serviceError logs err and answers 500. Every service error kind maps to
// the same status.
func (h *Handler) serviceError(w http.ResponseWriter, prefix string, err error) {
	kind := "unknown"
	switch {
	case errors.Is(err, service.ErrGenerationFailed):
		kind = "generation_failed"
	case errors.Is(err, service.ErrStorageUnavailable):
		kind = "storage_unavailable"
	}
	log.WithField("kind", kind).Errorf("%s: %v", prefix, err)
	h.CreateError(w, http.StatusInternalServerError, fmt.Sprintf("%s: %v", prefix, err))
}

func (h *Handler) RootHandler(w http.ResponseWriter, r *http.Request) {
	h.CreateResponse(w, http.StatusOK, MessageResponse{Message: rootMessage})
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	body := map[string]string{"status": "ok"}
	if h.breaker != nil {
		body["image_api"] = h.breaker.State().String()
	}

	if err := h.db.Ping(ctx); err != nil {
		log.Warnf("health check: %v", err)
		body["status"] = "unavailable"
		h.CreateResponse(w, http.StatusServiceUnavailable, body)
		return
	}
	h.CreateResponse(w, http.StatusOK, body)
}

func (h *Handler) GenerateCard(w http.ResponseWriter, r *http.Request) {
	// a client hanging up does not abort the image call
	ctx := context.WithoutCancel(r.Context())

	card, err := h.svc.GenerateCard(ctx)
	if err != nil {
		h.serviceError(w, "Error generating card", err)
		return
	}
	h.CreateResponse(w, http.StatusOK, card)
}

func (h *Handler) ListCards(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit", service.DefaultListLimit)
	if err != nil {
		h.CreateError(w, http.StatusBadRequest, err.Error())
		return
	}

	cards, err := h.svc.ListCards(r.Context(), limit)
	if err != nil {
		h.serviceError(w, "Error fetching cards", err)
		return
	}
	h.CreateResponse(w, http.StatusOK, cards)
}

func (h *Handler) LikeCard(w http.ResponseWriter, r *http.Request) {
	var req LikeCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.CreateError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.CreateError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := h.svc.SetLiked(r.Context(), *req.CardID, *req.Liked); err != nil {
		h.serviceError(w, "Error updating card", err)
		return
	}
	h.CreateResponse(w, http.StatusOK, MessageResponse{Message: "Card updated successfully"})
}

func (h *Handler) Collection(w http.ResponseWriter, r *http.Request) {
	cards, err := h.svc.Collection(r.Context())
	if err != nil {
		h.serviceError(w, "Error fetching collection", err)
		return
	}
	h.CreateResponse(w, http.StatusOK, cards)
}

func (h *Handler) PreGenerateCards(w http.ResponseWriter, r *http.Request) {
	count, err := intQuery(r, "count", service.DefaultPregenCount)
	if err != nil {
		h.CreateError(w, http.StatusBadRequest, err.Error())
		return
	}
	if count > h.maxPregen {
		h.CreateError(w, http.StatusBadRequest,
			fmt.Sprintf("query parameter count must not exceed %d", h.maxPregen))
		return
	}

	// the batch finishes even if the client is gone; ids are logged so a
	// cut connection does not lose them
	ids := h.svc.PreGenerate(context.WithoutCancel(r.Context()), count)
	log.WithField("card_ids", ids).Infof("pre-generated %d of %d cards", len(ids), count)

	h.CreateResponse(w, http.StatusOK, PreGenerateResponse{
		Message: fmt.Sprintf("Generated %d cards", len(ids)),
		CardIDs: ids,
	})
}

func intQuery(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("query parameter %s must be a non-negative integer", key)
	}
	return n, nil
}
