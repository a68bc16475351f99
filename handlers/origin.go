package handlers

import (
	"net/http"
	"net/url"
	"slices"
)

// OriginAllowed returns the check used on login, logout and the /ws upgrade.
//
// What does it protect against? A page on another site can post a hidden
// form to /login with the attacker's credentials. The browser follows the
// redirect and the victim now works inside the attacker's account (login
// CSRF). Browsers always send Origin on cross-site POSTs and WebSocket
// upgrades, so a request is accepted when:
//   - Origin (or, without it, the Referer's origin) is the console itself
//   - or it is one of the CORS origins
//   - or the request has neither header (curl, scripts; not a browser attack)
func OriginAllowed(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			ref := r.Header.Get("Referer")
			if ref == "" {
				return true
			}
			u, err := url.Parse(ref)
			if err != nil || u.Host == "" {
				return false
			}
			origin = u.Scheme + "://" + u.Host
		}
		return origin == "http://"+r.Host || origin == "https://"+r.Host ||
			slices.Contains(allowed, origin)
	}
}
