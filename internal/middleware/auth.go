package middleware

import (
	"net/http"
	"strings"
	"time"

	"invoicedesk/internal/auth"
	"invoicedesk/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"

	userIDKey    = "userID"
	userEmailKey = "userEmail"
)

// CurrentUserInfo is the authenticated caller of a request.
type CurrentUserInfo struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

func cookieSecurity() (http.SameSite, bool) {
	// Production (cross-origin): SameSiteNoneMode + Secure=true
	// Development (same-site):   SameSiteLaxMode  + Secure=false
	if gin.Mode() == gin.ReleaseMode {
		return http.SameSiteNoneMode, true
	}
	return http.SameSiteLaxMode, false
}

// SetTokenCookies sets access_token and refresh_token as HttpOnly cookies
func SetTokenCookies(c *gin.Context, accessToken, refreshToken string, accessTTL, refreshTTL time.Duration) {
	sameSite, secure := cookieSecurity()
	c.SetSameSite(sameSite)
	c.SetCookie(AccessTokenCookie, accessToken, int(accessTTL.Seconds()), "/", "", secure, true)
	c.SetCookie(RefreshTokenCookie, refreshToken, int(refreshTTL.Seconds()), "/", "", secure, true)
}

// ClearTokenCookies removes access_token and refresh_token cookies
func ClearTokenCookies(c *gin.Context) {
	sameSite, secure := cookieSecurity()
	c.SetSameSite(sameSite)
	c.SetCookie(AccessTokenCookie, "", -1, "/", "", secure, true)
	c.SetCookie(RefreshTokenCookie, "", -1, "/", "", secure, true)
}

// TokenFromRequest reads the access token from the cookie, then from an
// "Authorization: Bearer" header.
func TokenFromRequest(c *gin.Context) string {
	if token, err := c.Cookie(AccessTokenCookie); err == nil && token != "" {
		return token
	}
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// RequireUser rejects requests without a valid access token and stores the
// caller in the context for CurrentUser.
func RequireUser(tokens *auth.Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := TokenFromRequest(c)
		if tokenString == "" {
			response.Abort(c, http.StatusUnauthorized, "Authorization is missing")
			return
		}

		claims, err := tokens.Verify(tokenString)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Set(userEmailKey, claims.Email)
		c.Next()
	}
}

// CurrentUser returns the caller set by RequireUser.
func CurrentUser(c *gin.Context) (CurrentUserInfo, bool) {
	id, ok := c.Get(userIDKey)
	if !ok {
		return CurrentUserInfo{}, false
	}
	uid, ok := id.(uuid.UUID)
	if !ok || uid == uuid.Nil {
		return CurrentUserInfo{}, false
	}
	return CurrentUserInfo{ID: uid, Email: c.GetString(userEmailKey)}, true
}

// UserID is the caller's id, or uuid.Nil when the request is anonymous.
func UserID(c *gin.Context) uuid.UUID {
	user, _ := CurrentUser(c)
	return user.ID
}
