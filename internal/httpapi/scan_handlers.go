package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"pointage.org/internal/access"
	"pointage.org/internal/audit"
	"pointage.org/internal/auth"
	"pointage.org/internal/obs"
	"pointage.org/internal/stream"
)

type scanRequest struct {
	Badge  string `json:"badge"`
	Reader string `json:"reader"`
	Type   string `json:"type"`
}

type authorizeRequest struct {
	PersonID string `json:"person_id"`
	ReaderID string `json:"reader_id"`
}

func (a *API) handleScans(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req scanRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Badge) == "" {
		writeError(w, r, http.StatusBadRequest, "badge is required")
		return
	}
	if strings.TrimSpace(req.Reader) == "" {
		writeError(w, r, http.StatusBadRequest, "reader is required")
		return
	}

	orgScope := auth.OrgFromContext(r.Context())
	result, err := a.engine.Record(r.Context(), orgScope, req.Badge, req.Reader, req.Type)
	if err != nil {
		code := access.CodeOf(err)
		obs.CountScanRejection(code)
		_ = audit.LogEvent(r.Context(), "scan.rejected", map[string]any{
			"badge":  req.Badge,
			"reader": req.Reader,
			"code":   code,
		})
		writeDomainError(w, r, err)
		return
	}

	obs.CountScan(string(result.Event.Type))
	_ = audit.LogEvent(r.Context(), "scan.recorded", map[string]any{
		"badge":     req.Badge,
		"reader":    req.Reader,
		"person_id": result.PersonID,
		"event_id":  result.Event.ID,
		"type":      string(result.Event.Type),
		"status":    result.Status,
	})

	if a.feed != nil {
		a.feed.Publish(stream.ScanEvent{
			PersonName: result.PersonName,
			ReaderID:   req.Reader,
			Zones:      result.ZoneNames,
			Type:       string(result.Event.Type),
			Principal:  result.PrincipalZone,
			Timestamp:  result.Event.OccurredAt,
		})
	}

	writeJSON(w, http.StatusCreated, result)
}

func (a *API) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req authorizeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.PersonID) == "" || strings.TrimSpace(req.ReaderID) == "" {
		writeError(w, r, http.StatusBadRequest, "person_id and reader_id are required")
		return
	}

	orgScope := auth.OrgFromContext(r.Context())
	dec, err := a.engine.Authorize(r.Context(), orgScope, req.PersonID, req.ReaderID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dec)
}

// --- helpers ---

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

// writeDomainError translates the engine's stable error codes to HTTP status
// and keeps the code in the body so kiosks can branch without parsing prose.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var domErr *access.Error
	if !errors.As(err, &domErr) {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	var status int
	switch domErr.Code {
	case access.ErrBadgeNotFound.Code,
		access.ErrUserNotFound.Code,
		access.ErrReaderNotFound.Code:
		status = http.StatusNotFound
	case access.ErrBadgeExpired.Code,
		access.ErrZoneAccessDenied.Code,
		access.ErrSecondaryAccessDenied.Code,
		access.ErrAccessDenied.Code:
		status = http.StatusForbidden
	case access.ErrInvalidType.Code,
		access.ErrInvalidDateRange.Code,
		access.ErrInvalidDateFormat.Code:
		status = http.StatusBadRequest
	case access.ErrNoZonesConfigured.Code,
		access.ErrNoPrincipalService.Code:
		status = http.StatusConflict
	default:
		status = http.StatusInternalServerError
	}

	payload := map[string]any{
		"error": domErr.Message,
		"code":  domErr.Code,
	}
	if domErr.Code == access.ErrSecondaryAccessDenied.Code {
		payload["requires_principal"] = true
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, status, payload)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}
