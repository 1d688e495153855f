// Package middleware содержит HTTP middleware SMM-панели.
package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

type contextKey string

const sessionKey contextKey = "session"

const (
	authCookieName = "auth_token"
	authCookieTTL  = 30 * 24 * time.Hour
)

// Session описывает данные аутентифицированного пользователя из cookie.
// Флаг администратора носит подсказочный характер: админ-обработчики
// дополнительно сверяют его с базой.
type Session struct {
	UserID  int64
	IsAdmin bool
}

// AuthMiddleware выполняет проверку аутентификации пользователя по
// подписанному cookie.
type AuthMiddleware struct {
	secretKey []byte
}

// NewAuthMiddleware создаёт новый экземпляр AuthMiddleware с указанным
// секретным ключом.
func NewAuthMiddleware(secret string) *AuthMiddleware {
	key := []byte(secret)
	if len(key) == 0 {
		randomKey := make([]byte, 32)
		if _, err := rand.Read(randomKey); err == nil {
			key = randomKey
		} else {
			key = []byte("default-secret-key")
		}
	}

	return &AuthMiddleware{
		secretKey: key,
	}
}

// Middleware проверяет cookie авторизации и добавляет сессию пользователя
// в контекст запроса.
func (a *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(authCookieName)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		session, ok := a.parseCookie(cookie.Value)
		if !ok {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), sessionKey, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SetAuthCookie устанавливает cookie авторизации для указанного пользователя.
func (a *AuthMiddleware) SetAuthCookie(w http.ResponseWriter, userID int64, isAdmin bool) {
	payload := encodePayload(userID, isAdmin)
	value := payload + "." + a.sign(payload)

	cookie := &http.Cookie{
		Name:     authCookieName,
		Value:    value,
		Path:     "/",
		Expires:  time.Now().Add(authCookieTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	http.SetCookie(w, cookie)
}

// ClearAuthCookie сбрасывает cookie авторизации при выходе из системы.
func (a *AuthMiddleware) ClearAuthCookie(w http.ResponseWriter) {
	cookie := &http.Cookie{
		Name:     authCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	http.SetCookie(w, cookie)
}

func encodePayload(userID int64, isAdmin bool) string {
	admin := "0"
	if isAdmin {
		admin = "1"
	}
	return fmt.Sprintf("%d:%s", userID, admin)
}

func (a *AuthMiddleware) sign(payload string) string {
	mac := hmac.New(sha256.New, a.secretKey)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func (a *AuthMiddleware) parseCookie(cookieValue string) (Session, bool) {
	parts := strings.Split(cookieValue, ".")
	if len(parts) != 2 {
		return Session{}, false
	}

	payload := parts[0]
	signature := parts[1]

	if !hmac.Equal([]byte(signature), []byte(a.sign(payload))) {
		return Session{}, false
	}

	fields := strings.Split(payload, ":")
	if len(fields) != 2 {
		return Session{}, false
	}

	id, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return Session{}, false
	}

	return Session{
		UserID:  id,
		IsAdmin: fields[1] == "1",
	}, true
}

// GetSessionFromContext извлекает сессию пользователя из контекста запроса.
func GetSessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey).(Session)
	return s, ok
}

// GetUserIDFromContext извлекает идентификатор пользователя из контекста
// запроса.
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	s, ok := GetSessionFromContext(ctx)
	return s.UserID, ok
}
