package auth

import "net/http"

// Middleware guards a route with the Authorizer. The target resource is the
// method plus path of the incoming request.
func Middleware(authorizer *Authorizer, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resource := r.Method + " " + r.URL.Path
		if _, err := authorizer.Authorize(r.Header.Get("Authorization"), resource); err != nil {
			writeMessage(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		next.ServeHTTP(w, r)
	})
}
