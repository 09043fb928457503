package httpapi

import (
	"net/http"
	"os"
	"strings"
	"time"

	"pointage.org/internal/audit"
	"pointage.org/internal/auth"
)

const kioskHashEnvVariable = "POINTAGE_KIOSK_SECRET_HASH"

type tokenRequest struct {
	KioskID      string   `json:"kiosk_id"`
	Secret       string   `json:"secret"`
	Organization string   `json:"organization"`
	Roles        []string `json:"roles"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

const tokenTTL = time.Hour

// handleAuthToken enrolls a kiosk: the shared secret buys a short-lived JWT.
// Back-office clients use the same endpoint and ask for the admin role.
func (a *API) handleAuthToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req tokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	kioskID := strings.TrimSpace(req.KioskID)
	if kioskID == "" {
		writeError(w, r, http.StatusBadRequest, "kiosk_id is required")
		return
	}

	hash := strings.TrimSpace(os.Getenv(kioskHashEnvVariable))
	if hash == "" {
		writeError(w, r, http.StatusServiceUnavailable, "token issuance is not configured")
		return
	}
	if err := auth.VerifyKioskSecret(hash, req.Secret); err != nil {
		writeError(w, r, http.StatusUnauthorized, "invalid kiosk secret")
		return
	}

	roles := make([]string, 0, len(req.Roles))
	for _, role := range req.Roles {
		role = strings.TrimSpace(role)
		if role == "" {
			continue
		}
		roles = append(roles, role)
	}
	if len(roles) == 0 {
		roles = []string{"kiosk"}
	}

	token, err := auth.GenerateToken(kioskID, roles, req.Organization, tokenTTL)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "token generation failed")
		return
	}

	expiresAt := time.Now().UTC().Add(tokenTTL)
	_ = audit.LogEvent(r.Context(), "auth.token.issued", map[string]any{
		"kiosk_id":   kioskID,
		"roles":      roles,
		"expires_at": expiresAt.Format(time.RFC3339),
	})

	writeJSON(w, http.StatusOK, tokenResponse{
		Token:     token,
		ExpiresAt: expiresAt,
	})
}
