package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                                  "/",
		"/metrics":                          "/metrics",
		"/v1/people/p-123":                  "/v1/people/:id",
		"/v1/people/p-123/presence":         "/v1/people/:id/presence",
		"/v1/people/p-123/working":          "/v1/people/:id/working",
		"/v1/people/p-123/timesheet":        "/v1/people/:id/timesheet",
		"/v1/people/p-123/timesheet?x=1":    "/v1/people/:id/timesheet",
		"/v1/people/p-123/unknown":          "/v1/people/p-123/unknown",
		"/v1/scans":                         "/v1/scans",
		"/v1/authorize":                     "/v1/authorize",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
