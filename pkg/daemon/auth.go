package daemon

import (
	"net/http"
	"strings"

	"github.com/lestrrat-go/jwx/jwa"
	"github.com/lestrrat-go/jwx/jwt"
)

// authenticate requires an HS256 signed bearer token whose expiry, if
// present, has not passed.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "missing bearer token"})
			return
		}
		if _, err := jwt.ParseString(raw, jwt.WithVerify(jwa.HS256, s.jwtSecret), jwt.WithValidate(true)); err != nil {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid token: " + err.Error()})
			return
		}
		next.ServeHTTP(w, r)
	})
}
