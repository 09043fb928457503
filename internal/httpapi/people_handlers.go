package httpapi

import (
	"net/http"
	"strings"
)

// handlePersonResource routes /v1/people/{id}/{view} where view is one of
// presence, working or timesheet.
func (a *API) handlePersonResource(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/v1/people/")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 2 || parts[0] == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	personID, view := parts[0], parts[1]

	switch view {
	case "presence":
		a.getPresence(w, r, personID)
	case "working":
		a.getWorking(w, r, personID)
	case "timesheet":
		a.getTimesheet(w, r, personID)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) getPresence(w http.ResponseWriter, r *http.Request, personID string) {
	status, err := a.engine.CurrentStatus(r.Context(), personID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, status.Status)
}

func (a *API) getWorking(w http.ResponseWriter, r *http.Request, personID string) {
	status, err := a.engine.WorkingStatus(r.Context(), personID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (a *API) getTimesheet(w http.ResponseWriter, r *http.Request, personID string) {
	start := strings.TrimSpace(r.URL.Query().Get("start"))
	end := strings.TrimSpace(r.URL.Query().Get("end"))
	if start == "" || end == "" {
		writeError(w, r, http.StatusBadRequest, "start and end query parameters are required")
		return
	}

	sheet, err := a.engine.WorkedTime(r.Context(), personID, start, end)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sheet)
}
