package recipes

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// CookieName holds the visitor id that keys the browser session and liked set.
const CookieName = "zest_session"

// SetCookie stores the visitor id in the browser for the given duration.
func SetCookie(w http.ResponseWriter, sessionID string, duration time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(duration),
		MaxAge:   int(duration / time.Second),
	})
}

// FromRequest returns the visitor id from the cookie. Missing or malformed
// ids are ErrNoSession.
func FromRequest(r *http.Request) (string, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", ErrNoSession
		}
		return "", err
	}
	id, err := uuid.Parse(cookie.Value)
	if err != nil {
		return "", ErrNoSession
	}
	return id.String(), nil
}

var ErrNoSession = errors.New("no session")

// sessionID reuses the visitor's id or mints one and refreshes the cookie.
func sessionID(w http.ResponseWriter, r *http.Request, ttl time.Duration) string {
	id, err := FromRequest(r)
	if err != nil {
		id = uuid.NewString()
	}
	SetCookie(w, id, ttl)
	return id
}
