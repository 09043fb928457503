package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"pointage.org/internal/access"
	"pointage.org/internal/auth"
	"pointage.org/internal/stream"
)

const (
	testBadge        = "1001"
	testOfficeReader = "r-office"
	testLabReader    = "r-lab"
	testPerson       = "p1"
	testKioskSecret  = "kiosk-pass"
)

type apiClient struct {
	baseURL string
	client  *http.Client
	t       *testing.T
	store   *access.InMemory
	now     *time.Time
}

func newTestAPI(t *testing.T) *apiClient {
	t.Helper()

	t.Setenv("POINTAGE_AUTH_SECRET", "test-secret")
	auth.ResetSecretForTests()

	hash, err := auth.HashKioskSecret(testKioskSecret)
	if err != nil {
		t.Fatalf("hash kiosk secret: %v", err)
	}
	t.Setenv("POINTAGE_KIOSK_SECRET_HASH", hash)

	store := access.NewInMemory()
	store.AddPerson(access.Person{ID: testPerson, OrganizationID: "org-1", FirstName: "Nadia", LastName: "Charlet"})
	store.AddCredential(access.Credential{ID: "cred-1", Number: testBadge, Kind: "rfid"}, testPerson)
	store.AddReader(access.Reader{ID: testOfficeReader, Name: "Office door"}, access.Zone{ID: "z-office", Name: "Office"})
	store.AddReader(access.Reader{ID: testLabReader, Name: "Lab door"}, access.Zone{ID: "z-lab", Name: "Lab"})
	store.AddAssignment(testPerson, access.Assignment{OrgUnitID: "unit-office", OrgUnitName: "Front office", OrgUnitPrincipal: true, PersonPrincipal: true})
	store.AddAssignment(testPerson, access.Assignment{OrgUnitID: "unit-lab", OrgUnitName: "Lab", OrgUnitPrincipal: false, PersonPrincipal: false})
	store.Grant("unit-office", "z-office")
	store.Grant("unit-lab", "z-lab")

	now := time.Date(2024, 3, 12, 9, 0, 0, 0, time.UTC)
	engine := access.NewEngine(store,
		access.WithClock(func() time.Time { return now }),
		access.WithLocation(time.UTC),
	)

	api := New(ReadyProbe{}, "test", engine, stream.New())
	api.rateBurst = 100
	api.ratePerSec = 100

	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)

	return &apiClient{
		baseURL: srv.URL,
		client:  srv.Client(),
		t:       t,
		store:   store,
		now:     &now,
	}
}

func (c *apiClient) advance(d time.Duration) {
	*c.now = c.now.Add(d)
}

func (c *apiClient) post(path string, body any, headers map[string]string) *http.Response {
	c.t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal body: %v", err)
		}
	}
	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("do request: %v", err)
	}
	return resp
}

func (c *apiClient) get(path string, params url.Values, headers map[string]string) *http.Response {
	c.t.Helper()
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		c.t.Fatalf("parse url: %v", err)
	}
	if params != nil {
		u.RawQuery = params.Encode()
	}
	req, err := http.NewRequest(http.MethodGet, u.String(), nil)
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("get request: %v", err)
	}
	return resp
}

func (c *apiClient) obtainToken(roles ...string) string {
	c.t.Helper()
	resp := c.post("/v1/auth/token", map[string]any{
		"kiosk_id": "kiosk-1",
		"secret":   testKioskSecret,
		"roles":    roles,
	}, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.t.Fatalf("unexpected token status: %d", resp.StatusCode)
	}
	var payload tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.t.Fatalf("decode token response: %v", err)
	}
	if payload.Token == "" {
		c.t.Fatalf("empty token issued")
	}
	return payload.Token
}

func decode[T any](t *testing.T, r *http.Response) T {
	t.Helper()
	defer r.Body.Close()
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestScanPresenceTimesheetFlow(t *testing.T) {
	api := newTestAPI(t)
	token := api.obtainToken("admin")
	authHeader := map[string]string{"Authorization": "Bearer " + token}

	// Morning badge at the office door: inferred entry.
	resp := api.post("/v1/scans", map[string]any{
		"badge":  testBadge,
		"reader": testOfficeReader,
	}, authHeader)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected scan status: %d", resp.StatusCode)
	}
	scan := decode[map[string]any](t, resp)
	event := scan["event"].(map[string]any)
	if event["type"] != "entry" {
		t.Fatalf("expected inferred entry, got %v", event["type"])
	}
	if scan["status"] != "present" {
		t.Fatalf("expected present after entry, got %v", scan["status"])
	}
	if scan["person_name"] != "Nadia Charlet" {
		t.Fatalf("unexpected person name: %v", scan["person_name"])
	}

	resp = api.get("/v1/people/"+testPerson+"/presence", nil, authHeader)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected presence status: %d", resp.StatusCode)
	}
	presence := decode[map[string]any](t, resp)
	if presence["present"] != true {
		t.Fatalf("expected present=true, got %v", presence["present"])
	}

	// 90 minutes later the session is still open and already credited.
	api.advance(90 * time.Minute)
	resp = api.get("/v1/people/"+testPerson+"/working", nil, authHeader)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected working status: %d", resp.StatusCode)
	}
	working := decode[map[string]any](t, resp)
	if working["today_worked_minutes"].(float64) != 90 {
		t.Fatalf("expected 90 worked minutes, got %v", working["today_worked_minutes"])
	}
	if working["current_session_start"] == nil {
		t.Fatalf("expected open session start")
	}

	// Second office badge: inferred exit, session closes at 90 minutes.
	resp = api.post("/v1/scans", map[string]any{
		"badge":  testBadge,
		"reader": testOfficeReader,
	}, authHeader)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected scan status: %d", resp.StatusCode)
	}
	scan = decode[map[string]any](t, resp)
	event = scan["event"].(map[string]any)
	if event["type"] != "exit" {
		t.Fatalf("expected inferred exit, got %v", event["type"])
	}

	resp = api.get("/v1/people/"+testPerson+"/timesheet", url.Values{
		"start": []string{"2024-03-12"},
		"end":   []string{"2024-03-12"},
	}, authHeader)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected timesheet status: %d", resp.StatusCode)
	}
	sheet := decode[map[string]any](t, resp)
	if sheet["total_minutes"].(float64) != 90 {
		t.Fatalf("expected 90 total minutes, got %v", sheet["total_minutes"])
	}
	days := sheet["days"].([]any)
	if len(days) != 1 {
		t.Fatalf("expected one day, got %d", len(days))
	}
}

func TestSecondaryAccessGate(t *testing.T) {
	api := newTestAPI(t)
	token := api.obtainToken("kiosk")
	authHeader := map[string]string{"Authorization": "Bearer " + token}

	// Lab badge while absent: refused, nothing recorded.
	resp := api.post("/v1/scans", map[string]any{
		"badge":  testBadge,
		"reader": testLabReader,
	}, authHeader)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
	body := decode[map[string]any](t, resp)
	if body["code"] != "SECONDARY_ACCESS_DENIED" {
		t.Fatalf("unexpected code: %v", body["code"])
	}
	if body["requires_principal"] != true {
		t.Fatalf("expected requires_principal flag")
	}
	if n := api.store.EventCount(); n != 0 {
		t.Fatalf("rejected scan wrote %d events", n)
	}

	// Clock in at the office, then the lab opens.
	resp = api.post("/v1/scans", map[string]any{
		"badge":  testBadge,
		"reader": testOfficeReader,
	}, authHeader)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected scan status: %d", resp.StatusCode)
	}
	resp.Body.Close()

	api.advance(5 * time.Minute)
	resp = api.post("/v1/scans", map[string]any{
		"badge":  testBadge,
		"reader": testLabReader,
	}, authHeader)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected lab access after entry, got %d", resp.StatusCode)
	}
	scan := decode[map[string]any](t, resp)
	event := scan["event"].(map[string]any)
	if event["type"] != "access" {
		t.Fatalf("expected access event, got %v", event["type"])
	}
	if scan["status"] != "present" {
		t.Fatalf("secondary access must not change status, got %v", scan["status"])
	}
}

func TestScanExplicitFrenchType(t *testing.T) {
	api := newTestAPI(t)
	token := api.obtainToken("kiosk")
	authHeader := map[string]string{"Authorization": "Bearer " + token}

	resp := api.post("/v1/scans", map[string]any{
		"badge":  testBadge,
		"reader": testOfficeReader,
		"type":   "Entrée",
	}, authHeader)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected scan status: %d", resp.StatusCode)
	}
	scan := decode[map[string]any](t, resp)
	event := scan["event"].(map[string]any)
	if event["type"] != "entry" {
		t.Fatalf("expected entry, got %v", event["type"])
	}
}

func TestScanUnknownBadge(t *testing.T) {
	api := newTestAPI(t)
	token := api.obtainToken("kiosk")
	authHeader := map[string]string{"Authorization": "Bearer " + token}

	resp := api.post("/v1/scans", map[string]any{
		"badge":  "9999",
		"reader": testOfficeReader,
	}, authHeader)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	body := decode[map[string]any](t, resp)
	if body["code"] != "BADGE_NOT_FOUND" {
		t.Fatalf("unexpected code: %v", body["code"])
	}
}

func TestTimesheetDateValidation(t *testing.T) {
	api := newTestAPI(t)
	token := api.obtainToken("admin")
	authHeader := map[string]string{"Authorization": "Bearer " + token}

	resp := api.get("/v1/people/"+testPerson+"/timesheet", url.Values{
		"start": []string{"2024-03-12"},
		"end":   []string{"2024-03-10"},
	}, authHeader)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	body := decode[map[string]any](t, resp)
	if body["code"] != "INVALID_DATE_RANGE" {
		t.Fatalf("unexpected code: %v", body["code"])
	}
}

func TestAPIEnforcesAuth(t *testing.T) {
	api := newTestAPI(t)

	resp := api.post("/v1/scans", map[string]any{
		"badge":  testBadge,
		"reader": testOfficeReader,
	}, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	var errBody map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&errBody); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if errBody["error"] == "" {
		t.Fatalf("expected error message")
	}
}

func TestPeopleEndpointsRequireAdmin(t *testing.T) {
	api := newTestAPI(t)
	token := api.obtainToken("kiosk")
	authHeader := map[string]string{"Authorization": "Bearer " + token}

	resp := api.get("/v1/people/"+testPerson+"/presence", nil, authHeader)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestTokenEndpointRejectsBadSecret(t *testing.T) {
	api := newTestAPI(t)

	resp := api.post("/v1/auth/token", map[string]any{
		"kiosk_id": "kiosk-1",
		"secret":   "wrong",
	}, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestHealthzIsPublic(t *testing.T) {
	api := newTestAPI(t)

	resp := api.get("/healthz", nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
