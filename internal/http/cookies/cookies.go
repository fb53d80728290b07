// Package cookies устанавливает и очищает сессионные cookie.
//
// Access- и refresh-токен выдаются двумя отдельными HttpOnly cookie
// с абсолютным сроком действия, равным моменту выдачи пары плюс TTL.
package cookies

import (
	"net/http"
	"time"

	"github.com/magabrotheeeer/hosting-market/internal/http/middlewarectx"
	"github.com/magabrotheeeer/hosting-market/internal/models"
)

// SetSession выставляет обе сессионные cookie со сроком действия
// session.IssuedAt + ttl.
func SetSession(w http.ResponseWriter, session *models.Session, ttl time.Duration) {
	expires := session.IssuedAt.Add(ttl)
	http.SetCookie(w, sessionCookie(middlewarectx.AccessTokenCookie, session.AccessToken, expires))
	http.SetCookie(w, sessionCookie(middlewarectx.RefreshTokenCookie, session.RefreshToken, expires))
}

// ClearSession сбрасывает обе сессионные cookie.
func ClearSession(w http.ResponseWriter) {
	expired := time.Unix(0, 0)
	http.SetCookie(w, sessionCookie(middlewarectx.AccessTokenCookie, "", expired))
	http.SetCookie(w, sessionCookie(middlewarectx.RefreshTokenCookie, "", expired))
}

func sessionCookie(name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
