package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"

	"metadata-serverless/internal/observability"
)

const maxJSONBodyBytes = 1 << 20

type Handler struct {
	service    *Service
	authorizer *Authorizer
	logger     *observability.Logger
}

func NewHandler(service *Service, authorizer *Authorizer, logger *observability.Logger) *Handler {
	return &Handler{service: service, authorizer: authorizer, logger: logger}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
}

// authorizeRequest mirrors the event the access-control infrastructure
// forwards: the raw credential and the resource being invoked.
type authorizeRequest struct {
	AuthorizationToken string `json:"authorizationToken"`
	MethodArn          string `json:"methodArn"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	var body loginRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.logger.Error("login_bad_payload", map[string]any{"error": err.Error()})
		writeMessage(w, http.StatusInternalServerError, "authentication failure")
		return
	}

	signed, err := h.service.Login(r.Context(), body.Username, body.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			writeMessage(w, http.StatusUnauthorized, "Invalid username/password")
			return
		}

		sentry.CaptureException(err)
		h.logger.Error("login_failed", map[string]any{"error": err.Error()})
		writeMessage(w, http.StatusInternalServerError, "authentication failure")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Message: "Login successful", Token: signed})
}

func (h *Handler) Authorize(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	var body authorizeRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	decision, err := h.authorizer.Authorize(body.AuthorizationToken, body.MethodArn)
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	writeJSON(w, http.StatusOK, decision)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
