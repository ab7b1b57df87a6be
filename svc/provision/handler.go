package provision

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/memberpay/pkg/billing"
	"github.com/dmitrymomot/memberpay/pkg/httpx"
	"github.com/dmitrymomot/memberpay/pkg/logger"
)

// maxPayloadSize bounds webhook request bodies (1MB).
const maxPayloadSize = 1 << 20

// Handler exposes the completion event handler over HTTP.
type Handler struct {
	svc *Service
	log *slog.Logger
}

// NewHandler creates the webhook HTTP handler.
func NewHandler(svc *Service, log *slog.Logger) *Handler {
	if svc == nil {
		panic("provision: service is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		svc: svc,
		log: log.With(logger.Component("provision-http")),
	}
}

// Handle returns a router mountable under the webhook path.
func (h *Handler) Handle() http.Handler {
	r := chi.NewRouter()
	r.Post("/", h.handleNotification)
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Error(w, http.StatusMethodNotAllowed, "Method not allowed.")
	})
	return r
}

// notificationResponse acknowledges a classified delivery. Skipped outcomes
// are successes: the delivery mechanism must not retry them.
type notificationResponse struct {
	Received       bool   `json:"received"`
	Created        bool   `json:"created,omitempty"`
	SubscriptionID string `json:"addOnSubscriptionId,omitempty"`
	Skipped        string `json:"skipped,omitempty"`
	Ignored        string `json:"ignored,omitempty"`
}

func (h *Handler) handleNotification(w http.ResponseWriter, r *http.Request) {
	// The raw body is verified as delivered; parsing first would invalidate
	// the signature.
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadSize))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Unable to read request body.")
		return
	}

	signature := r.Header.Get(billing.SignatureHeader)
	if signature == "" {
		httpx.Error(w, http.StatusBadRequest, "Missing signature header.")
		return
	}

	outcome, err := h.svc.HandleNotification(r.Context(), payload, signature)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	resp := notificationResponse{Received: true}
	switch outcome.Classification {
	case ClassProvisioned:
		resp.Created = true
		resp.SubscriptionID = outcome.SubscriptionID
	case ClassSkipped:
		resp.Skipped = outcome.Reason
	case ClassIgnored:
		resp.Ignored = outcome.Reason
	}
	httpx.JSON(w, http.StatusOK, resp)
}

// respondError maps handler errors to retry semantics: authentication
// failures are 400 and final, everything else is 500 so the delivery
// mechanism retries. Responses stay generic; detail goes to the log.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrAuthenticationFailed) {
		httpx.Error(w, http.StatusBadRequest, "Invalid notification signature.")
		return
	}

	h.log.ErrorContext(r.Context(), "notification handling failed", logger.Error(err))
	httpx.Error(w, http.StatusInternalServerError, "Notification processing failed.")
}
