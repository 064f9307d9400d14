package utils

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"hseqaudit/cmd/internal/config"
	"hseqaudit/cmd/internal/domain/entity"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	SessionCookieName = "hseq_session"
	sessionIssuer     = "hseqaudit"
)

type TokenData struct {
	// UserID is only present on locally issued sessions.
	UserID int64
	Sub    string
	Email  string
	Exp    int64
}

// TokenVerifier validates session tokens server side. Locally issued sessions
// are HS256 signed with the shared secret; identity provider tokens are
// checked against the configured JWKS.
type TokenVerifier struct {
	secret []byte
	jwks   keyfunc.Keyfunc
	ttl    time.Duration
}

func NewTokenVerifier(secret string, jwksURL string, ttl time.Duration) (*TokenVerifier, error) {
	v := &TokenVerifier{secret: []byte(secret), ttl: ttl}

	if jwksURL != "" {
		jwks, err := keyfunc.NewDefault([]string{jwksURL})
		if err != nil {
			return nil, fmt.Errorf("failed to create JWKS from resource at %s: %w", jwksURL, err)
		}
		v.jwks = jwks
		config.GetLogger().Infof("JWKS initialized. Keys loaded from %s", jwksURL)
	}

	if len(v.secret) == 0 {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, err
		}
		v.secret = buf
		config.GetLogger().Warn("JWT_SECRET not set, local sessions use an ephemeral key and will not survive restarts")
	}
	return v, nil
}

// Issue signs a local session for the given user.
func (v *TokenVerifier) Issue(user *entity.User) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(v.ttl)
	claims := jwt.MapClaims{
		"iss":   sessionIssuer,
		"sub":   user.Subject,
		"uid":   strconv.FormatInt(user.ID, 10),
		"email": user.Email,
		"role":  string(user.Role),
		"iat":   now.Unix(),
		"exp":   exp.Unix(),
		"jti":   uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// ValidateToken parses AND validates the signature locally.
// It returns the data if the token is authentic and unexpired.
func (v *TokenVerifier) ValidateToken(tokenString string) (*TokenData, error) {
	clean := sanitizeToken(tokenString)
	if clean == "" {
		return nil, errors.New("empty token")
	}

	token, err := jwt.Parse(clean, v.keyfunc,
		jwt.WithValidMethods([]string{"HS256", "RS256", "RS384", "RS512", "ES256", "ES384"}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if !token.Valid {
		return nil, errors.New("token is not valid")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims format")
	}

	data := &TokenData{
		Sub:   getValue(claims, "sub"),
		Email: getValue(claims, "email"),
		Exp:   getInt64(claims, "exp"),
	}
	if uid := getValue(claims, "uid"); uid != "" {
		data.UserID, err = strconv.ParseInt(uid, 10, 64)
		if err != nil {
			return nil, errors.New("invalid uid claim")
		}
	}
	return data, nil
}

// ParseTokenDataCtx reads the bearer token, falling back to the session cookie
// used by the server rendered pages.
func (v *TokenVerifier) ParseTokenDataCtx(ctx echo.Context) (*TokenData, error) {
	token := ctx.Request().Header.Get(echo.HeaderAuthorization)
	if strings.TrimSpace(token) == "" {
		cookie, err := ctx.Cookie(SessionCookieName)
		if err != nil {
			return nil, errors.New("no session provided")
		}
		token = cookie.Value
	}
	return v.ValidateToken(token)
}

func (v *TokenVerifier) keyfunc(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); ok {
		if iss, _ := token.Claims.GetIssuer(); iss != sessionIssuer {
			return nil, errors.New("unexpected issuer for HMAC session")
		}
		return v.secret, nil
	}

	if v.jwks == nil {
		return nil, errors.New("JWKS not initialized")
	}
	return v.jwks.Keyfunc(token)
}

func sanitizeToken(token string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
}

func getValue(claims jwt.MapClaims, key string) string {
	if val, ok := claims[key].(string); ok {
		return val
	}
	return ""
}

func getInt64(claims jwt.MapClaims, key string) int64 {
	val, ok := claims[key]
	if !ok {
		return 0
	}
	if f, ok := val.(float64); ok {
		return int64(f)
	}
	if i, ok := val.(int64); ok {
		return i
	}
	return 0
}
