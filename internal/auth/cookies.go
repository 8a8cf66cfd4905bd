package auth

import (
	"net/http"
	"time"
)

// AuthCookieName is the session cookie carrying the signed token.
const AuthCookieName = "authToken"

// SetAuthCookie sets the session cookie: HTTP-only, SameSite=Strict,
// whole-site path, Secure only in production.
func SetAuthCookie(w http.ResponseWriter, token string, isProduction bool, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearAuthCookie expires the session cookie immediately (empty value,
// Max-Age=0 on the wire), scoped identically to the cookie set at login.
func ClearAuthCookie(w http.ResponseWriter, isProduction bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: http.SameSiteStrictMode,
	})
}

// GetTokenFromCookie reads the session token from the request cookie.
func GetTokenFromCookie(r *http.Request) (string, error) {
	cookie, err := r.Cookie(AuthCookieName)
	if err != nil {
		return "", err
	}
	return cookie.Value, nil
}
