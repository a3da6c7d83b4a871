package sublinear

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// authorize decides whether a request may reach the resolvers. With auth
// disabled or no key configured everything passes; otherwise the
// Authorization header must hold the key, bare or as "Bearer <key>".
func (s *Server) authorize(r *http.Request) bool {
	if !s.cfg.RequireAuth || s.cfg.APIKey == "" {
		return true
	}
	return credentialMatches(r.Header.Get("Authorization"), s.cfg.APIKey)
}

func credentialMatches(header, key string) bool {
	cred := strings.TrimSpace(header)
	if cred == "" {
		return false
	}
	if strings.HasPrefix(cred, "Bearer ") {
		if constantTimeEqual(strings.TrimSpace(strings.TrimPrefix(cred, "Bearer ")), key) {
			return true
		}
	}
	return constantTimeEqual(cred, key)
}

func constantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) writeUnauthorized(w http.ResponseWriter, r *http.Request) {
	s.metrics.RecordAuthRejection()
	s.logger.Warn().
		Str("remote", r.RemoteAddr).
		Bool("credential", r.Header.Get("Authorization") != "").
		Msg("rejected unauthenticated request")
	writeGQLError(w, http.StatusOK, &Error{Kind: ErrAuthentication, Message: "Unauthorized"})
}
