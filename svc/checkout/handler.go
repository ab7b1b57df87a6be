package checkout

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/dmitrymomot/memberpay/pkg/binder"
	"github.com/dmitrymomot/memberpay/pkg/catalog"
	"github.com/dmitrymomot/memberpay/pkg/httpx"
	"github.com/dmitrymomot/memberpay/pkg/logger"
)

// createTransactionRequest is the inbound purchase-intent payload.
type createTransactionRequest struct {
	Plan         string   `json:"plan" validate:"required"`
	BillingCycle string   `json:"billingCycle" validate:"required"`
	AddOns       []string `json:"addOns" validate:"omitempty,max=10,dive,min=1"`
	Region       string   `json:"region"`
}

// createTransactionResponse references the created transaction.
type createTransactionResponse struct {
	TransactionID string `json:"transactionId"`
	URL           string `json:"url"`
}

// Handler exposes the checkout request builder over HTTP.
type Handler struct {
	svc      *Service
	validate *validator.Validate
	log      *slog.Logger
}

// NewHandler creates the HTTP handler for checkout transaction creation.
func NewHandler(svc *Service, log *slog.Logger) *Handler {
	if svc == nil {
		panic("checkout: service is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		svc:      svc,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log.With(logger.Component("checkout-http")),
	}
}

// Handle returns a router mountable under the API prefix.
func (h *Handler) Handle() http.Handler {
	r := chi.NewRouter()
	r.Post("/", h.createTransaction)
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Error(w, http.StatusMethodNotAllowed, "Method not allowed.")
	})
	return r
}

func (h *Handler) createTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := binder.JSON()(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Missing plan or billing cycle.")
		return
	}

	result, err := h.svc.CreateTransaction(r.Context(), Intent{
		Plan:         req.Plan,
		BillingCycle: req.BillingCycle,
		AddOns:       req.AddOns,
		Region:       req.Region,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusOK, createTransactionResponse{
		TransactionID: result.TransactionID,
		URL:           result.URL,
	})
}

// respondError maps service errors to status codes: client mistakes are 4xx
// with a short reason, configuration and upstream failures are 5xx with a
// generic message. Internal detail is logged, never leaked.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrIneligibleRegion), errors.Is(err, ErrInvalidSelection):
		httpx.Error(w, http.StatusBadRequest, humanMessage(err))
	case errors.Is(err, catalog.ErrIncomplete):
		h.log.ErrorContext(r.Context(), "price catalog misconfigured", logger.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "Service misconfigured.")
	default:
		h.log.ErrorContext(r.Context(), "checkout request failed", logger.Error(err))
		httpx.Error(w, http.StatusInternalServerError, humanMessage(err))
	}
}
