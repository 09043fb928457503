package auth

import (
	"context"
	"strings"
)

type ctxKey string

const (
	subjectKey ctxKey = "auth_subject"
	rolesKey   ctxKey = "auth_roles"
	orgKey     ctxKey = "auth_org"
)

// ContextWithSubject stores the authenticated identity in the context.
func ContextWithSubject(ctx context.Context, subject string, roles []string, org string) context.Context {
	ctx = context.WithValue(ctx, subjectKey, strings.TrimSpace(subject))
	if len(roles) > 0 {
		ctx = context.WithValue(ctx, rolesKey, dedupeRoles(roles))
	}
	if org = strings.TrimSpace(org); org != "" {
		ctx = context.WithValue(ctx, orgKey, org)
	}
	return ctx
}

// SubjectFromContext extracts the authenticated subject from context.
func SubjectFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(subjectKey).(string)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

// OrgFromContext returns the organization scope attached to the token, empty
// for unscoped (kiosk) callers.
func OrgFromContext(ctx context.Context) string {
	v, _ := ctx.Value(orgKey).(string)
	return v
}

// RolesFromContext returns the roles stored in context (deduplicated and lower-cased).
func RolesFromContext(ctx context.Context) []string {
	v, ok := ctx.Value(rolesKey).([]string)
	if !ok || len(v) == 0 {
		return nil
	}
	out := make([]string, len(v))
	copy(out, v)
	return out
}

// HasRole checks whether the context contains the specified role.
func HasRole(ctx context.Context, role string) bool {
	role = strings.TrimSpace(strings.ToLower(role))
	if role == "" {
		return false
	}
	for _, r := range RolesFromContext(ctx) {
		if r == role {
			return true
		}
	}
	return false
}
