package adapthttp

import (
	"errors"
	"net/http"

	"accounts/internal/app"
	"accounts/internal/domain"
)

// handleMe reports the caller's identity. "Not logged in" is a normal
// result, signalled by a null user, never an error status.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"user": nil})
		return
	}

	user, err := s.auth.CurrentUser(r.Context(), cookie.Value)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{"user": user.Public()})
	case errors.Is(err, app.ErrSessionNotFound),
		errors.Is(err, app.ErrSessionExpired),
		errors.Is(err, app.ErrUserNotFound):
		writeJSON(w, http.StatusOK, map[string]any{"user": nil})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
	}
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch && r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	user, ok := userFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Not authorized"})
		return
	}

	var req struct {
		Name                 *string `json:"name"`
		AvatarURL            *string `json:"avatar_url"`
		Password             *string `json:"password"`
		PasswordConfirmation *string `json:"password_confirmation"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	// Middleware guarantees the cookie is present here.
	token := ""
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		token = cookie.Value
	}

	updated, err := s.auth.UpdateProfile(r.Context(), user.ID, token, app.UpdateInput{
		Name:                 req.Name,
		AvatarURL:            req.AvatarURL,
		Password:             req.Password,
		PasswordConfirmation: req.PasswordConfirmation,
	})
	var verrs domain.ValidationErrors
	if errors.As(err, &verrs) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": verrs})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": updated.Public()})
}
