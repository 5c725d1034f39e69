package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v4"

	"lurnix/course-app/internal/domain"
)

// Cookie names for the two session mechanisms.
const (
	CookieAuth     = "auth"
	CookieProvider = "provider_session"
)

// Session is the canonical identity resolved for a request, whichever
// mechanism produced it.
type Session struct {
	UserID string      `json:"userId"`
	Email  string      `json:"email"`
	Role   domain.Role `json:"role"`
	Name   string      `json:"name"`
	Image  string      `json:"image"`
}

// sessionClaims defines the structure of the signed cookie token payload.
type sessionClaims struct {
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
	Name  string      `json:"name"`
	Image string      `json:"image"`
	jwt.RegisteredClaims
}

// TokenCodec mints and verifies the signed "auth" cookie token.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenCodec creates a codec for the session cookie token.
func NewTokenCodec(secret string, ttl time.Duration) *TokenCodec {
	if secret == "" {
		panic("session token secret cannot be empty") // Critical configuration
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &TokenCodec{secret: []byte(secret), ttl: ttl}
}

// TTL returns the token lifetime, which doubles as the cookie max-age.
func (c *TokenCodec) TTL() time.Duration {
	return c.ttl
}

// Mint creates a signed token embedding the user's identity fields.
func (c *TokenCodec) Mint(user *domain.User) (string, error) {
	now := time.Now()
	claims := &sessionClaims{
		Email: user.Email,
		Role:  user.Role,
		Name:  user.Name,
		Image: user.AvatarURL,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "course-app",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Verify decodes a cookie token into a Session. A malformed, expired or
// tampered token returns nil: the caller cannot tell it apart from "no
// cookie" and falls through to the delegated provider.
func (c *TokenCodec) Verify(tokenString string) *Session {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return c.secret, nil
	})
	if err != nil || !token.Valid || claims.Subject == "" {
		return nil
	}

	return &Session{
		UserID: claims.Subject,
		Email:  claims.Email,
		Role:   claims.Role,
		Name:   claims.Name,
		Image:  claims.Image,
	}
}
