package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"
)

// smoke-scan drives a full badge round trip against a running API:
// token, entry scan, presence check, exit scan, timesheet. It exits
// non-zero on the first unexpected answer.
func main() {
	log.SetFlags(0)
	var (
		baseURL = flag.String("addr", envOr("POINTAGE_API_ADDR", "http://localhost:8080"), "API base URL")
		secret  = flag.String("secret", os.Getenv("POINTAGE_KIOSK_SECRET"), "kiosk shared secret")
		badge   = flag.String("badge", "1001", "badge number to scan")
		reader  = flag.String("reader", "r-office", "reader id for the scans")
	)
	flag.Parse()

	if *secret == "" {
		log.Fatal("missing kiosk secret: provide via -secret or POINTAGE_KIOSK_SECRET")
	}

	client := &http.Client{Timeout: 5 * time.Second}

	var tokenResp struct {
		Token string `json:"token"`
	}
	post(client, *baseURL+"/v1/auth/token", "", map[string]any{
		"kiosk_id": "smoke-kiosk",
		"secret":   *secret,
		"roles":    []string{"kiosk", "admin"},
	}, &tokenResp)
	if tokenResp.Token == "" {
		log.Fatal("empty token issued")
	}

	var scan struct {
		PersonID string `json:"person_id"`
		Status   string `json:"status"`
		Event    struct {
			Type string `json:"type"`
		} `json:"event"`
	}
	post(client, *baseURL+"/v1/scans", tokenResp.Token, map[string]any{
		"badge":  *badge,
		"reader": *reader,
	}, &scan)
	log.Printf("scan 1: type=%s status=%s person=%s", scan.Event.Type, scan.Status, scan.PersonID)

	var presence struct {
		Present bool   `json:"present"`
		Status  string `json:"status"`
	}
	get(client, *baseURL+"/v1/people/"+scan.PersonID+"/presence", tokenResp.Token, &presence)
	if scan.Event.Type == "entry" && !presence.Present {
		log.Fatalf("presence mismatch after entry: %+v", presence)
	}
	log.Printf("presence: %s", presence.Status)

	var second struct {
		Status string `json:"status"`
		Event  struct {
			Type string `json:"type"`
		} `json:"event"`
	}
	post(client, *baseURL+"/v1/scans", tokenResp.Token, map[string]any{
		"badge":  *badge,
		"reader": *reader,
	}, &second)
	log.Printf("scan 2: type=%s status=%s", second.Event.Type, second.Status)

	today := time.Now().Format("2006-01-02")
	var sheet struct {
		TotalMinutes float64 `json:"total_minutes"`
		TotalHours   float64 `json:"total_hours"`
	}
	get(client, *baseURL+"/v1/people/"+scan.PersonID+"/timesheet?start="+today+"&end="+today, tokenResp.Token, &sheet)
	log.Printf("timesheet %s: %.1f min (%.2f h)", today, sheet.TotalMinutes, sheet.TotalHours)

	fmt.Println("smoke test passed")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func post(client *http.Client, url, token string, body, out any) {
	payload, err := json.Marshal(body)
	if err != nil {
		log.Fatalf("marshal request: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		log.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	do(client, req, out)
}

func get(client *http.Client, url, token string, out any) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		log.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	do(client, req, out)
}

func do(client *http.Client, req *http.Request, out any) {
	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		var errBody map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		log.Fatalf("%s %s: status %d: %v", req.Method, req.URL.Path, resp.StatusCode, errBody)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			log.Fatalf("decode %s response: %v", req.URL.Path, err)
		}
	}
}
