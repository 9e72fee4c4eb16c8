package auth

import "strings"

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header value. Any other shape yields "".
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
