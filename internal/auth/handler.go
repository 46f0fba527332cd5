package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/empowerfit/backend/internal/telemetry/tracing"
	"github.com/empowerfit/backend/pkg"

	log "github.com/sirupsen/logrus"
)

// BearerToken reads the token from the Authorization header.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

type Handler struct {
	checker Checker
}

func NewHandler(checker Checker) *Handler {
	return &Handler{
		checker: checker,
	}
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.auth.logout")
	defer span.End()

	token := BearerToken(r)
	if token == "" {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	if err := h.checker.Revoke(ctx, token); err != nil {
		if errors.Is(err, ErrInvalidToken) {
			http.Error(w, "no can do", http.StatusUnauthorized)
			return
		}
		log.Errorf("logout, revoke token: %s", err)
		http.Error(w, "logout failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, "logged-out")
}
