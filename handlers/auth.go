package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/asaskevich/govalidator"

	"github.com/CrowderSoup/taskflow-pro/database"
	"github.com/CrowderSoup/taskflow-pro/services"
)

// AuthHandler handles authentication-related endpoints
type AuthHandler struct {
	authService *services.AuthService
	users       *database.UserService
}

func NewAuthHandler(authService *services.AuthService, users *database.UserService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		users:       users,
	}
}

// Login handles the login request (sending a magic link)
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	email := strings.TrimSpace(req.Email)
	if !govalidator.IsEmail(email) {
		writeError(w, http.StatusBadRequest, "Invalid email address")
		return
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	baseURL := fmt.Sprintf("%s://%s", scheme, r.Host)

	magicLink, err := h.authService.GenerateMagicLink(email, baseURL)
	if err != nil {
		slog.Error("failed to generate magic link", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to generate login link")
		return
	}

	resp := map[string]string{
		"status":  "success",
		"message": "Magic link has been sent",
	}
	if magicLink != "" {
		resp["magicLink"] = magicLink
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleMagicLink exchanges a magic link token for a session token and
// redirects to the frontend with it.
func (h *AuthHandler) HandleMagicLink(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, http.StatusBadRequest, "Missing token")
		return
	}

	email, err := h.authService.VerifyMagicLinkToken(token)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid or expired token")
		return
	}

	user, err := h.users.EnsureUser(r.Context(), email)
	if err != nil {
		serverError(w, r, "failed to resolve user", err)
		return
	}

	jwtToken, err := h.authService.CreateJWT(services.Identity{UserID: user.ID, Email: user.Email})
	if err != nil {
		serverError(w, r, "failed to create session token", err)
		return
	}

	q := url.Values{}
	q.Set("token", jwtToken)
	q.Set("email", user.Email)
	http.Redirect(w, r, "/?"+q.Encode(), http.StatusFound)
}

// VerifyToken reports the identity behind the request's session token.
func (h *AuthHandler) VerifyToken(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Invalid token")
		return
	}
	writeJSON(w, http.StatusOK, id)
}

// Logout is a no-op for stateless tokens; clients drop their copy.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}
