package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/Jaimin17/Zenith-School-Backend/core"
	"github.com/Jaimin17/Zenith-School-Backend/core/user"
)

const (
	accessTokenType  = "access"
	refreshTokenType = "refresh"

	contextTokenKey     = "userToken"
	contextPrincipalKey = "principal"
)

// Claims represents the authorization claims transmitted via a JWT.
// Subject holds the username.
type Claims struct {
	jwt.StandardClaims
	UserID    string    `json:"user_id"`
	Role      user.Role `json:"role"`
	TokenType string    `json:"type"`
}

type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	Role         user.Role `json:"role,omitempty"`
}

type tokenIssuer struct {
	key          []byte
	issuer       string
	accessDelta  time.Duration
	refreshDelta time.Duration
}

func newTokenIssuer(conf *core.Config) tokenIssuer {
	ti := tokenIssuer{
		key:          []byte(conf.SecretKey),
		issuer:       conf.AppName,
		accessDelta:  conf.Server.JWTAccessExpirationDelta,
		refreshDelta: conf.Server.JWTRefreshExpirationDelta,
	}
	if ti.accessDelta <= 0 {
		ti.accessDelta = 30 * time.Minute
	}
	if ti.refreshDelta <= 0 {
		ti.refreshDelta = 7 * 24 * time.Hour
	}
	return ti
}

func (ti tokenIssuer) jwtConfig() middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    ti.key,
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	}
}

func (ti tokenIssuer) claims(acc user.Account, tokenType string, delta time.Duration) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.New().String(),
			Issuer:    ti.issuer,
			Subject:   acc.Username,
			ExpiresAt: now.Add(delta).Unix(),
			IssuedAt:  now.Unix(),
		},
		UserID:    acc.ID,
		Role:      acc.Role,
		TokenType: tokenType,
	}
}

func (ti tokenIssuer) sign(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString(ti.key)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// pair issues a fresh (access, refresh) token pair for acc.
func (ti tokenIssuer) pair(acc user.Account) (TokenPair, error) {
	access, err := ti.sign(ti.claims(acc, accessTokenType, ti.accessDelta))
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := ti.sign(ti.claims(acc, refreshTokenType, ti.refreshDelta))
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: "bearer", Role: acc.Role}, nil
}

// parse verifies raw and returns its claims.
func (ti tokenIssuer) parse(raw string) (*Claims, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != middleware.AlgorithmHS256 {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return ti.key, nil
	})
	if err != nil || !token.Valid {
		return nil, errInvalidToken
	}
	return claims, nil
}

// GenerateTokens issues the token pair of acc, signed with the key of conf.
func GenerateTokens(conf *core.Config, acc user.Account) (TokenPair, error) {
	return newTokenIssuer(conf).pair(acc)
}

func (c Claims) principal() (user.Principal, error) {
	return user.NewPrincipal(c.Role, c.UserID, c.Subject)
}

func getContextToken(ctx echo.Context) (*jwt.Token, *Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return token, claims, nil
		}
	}
	return nil, nil, errUnauthorized
}

func getContextPrincipal(ctx echo.Context) (user.Principal, error) {
	if p, ok := ctx.Get(contextPrincipalKey).(user.Principal); ok {
		return p, nil
	}
	return nil, errUnauthorized
}
