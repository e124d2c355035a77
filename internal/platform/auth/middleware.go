package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type contextKey string

// Claims are the JWT claims issued by the login endpoint.
type Claims struct {
	jwt.RegisteredClaims
	Role       string `json:"role"`
	HospitalID string `json:"hospital_id,omitempty"`
}

// Principal converts verified claims into a Principal.
func (c *Claims) Principal() (Principal, error) {
	uid, err := uuid.Parse(c.Subject)
	if err != nil {
		return Principal{}, fmt.Errorf("invalid subject: %w", err)
	}
	role, err := ParseRole(c.Role)
	if err != nil {
		return Principal{}, err
	}
	p := Principal{UserID: uid, Role: role}
	if c.HospitalID != "" {
		hid, err := uuid.Parse(c.HospitalID)
		if err != nil {
			return Principal{}, fmt.Errorf("invalid hospital_id: %w", err)
		}
		p.HospitalID = &hid
	}
	return p, nil
}

type JWTConfig struct {
	Issuer     string
	Audience   string
	SigningKey []byte
	// TTL bounds issued tokens; zero means one hour.
	TTL time.Duration
}

func (cfg JWTConfig) ttl() time.Duration {
	if cfg.TTL <= 0 {
		return time.Hour
	}
	return cfg.TTL
}

// ParseToken verifies an HS256 token and returns its principal.
func ParseToken(cfg JWTConfig, tokenStr string) (Principal, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return cfg.SigningKey, nil
	}, opts...)
	if err != nil {
		return Principal{}, err
	}
	if !token.Valid {
		return Principal{}, fmt.Errorf("token is not valid")
	}
	return claims.Principal()
}

// IssueToken signs a token for p.
func IssueToken(cfg JWTConfig, p Principal) (string, time.Time, error) {
	now := time.Now()
	expires := now.Add(cfg.ttl())
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   p.UserID.String(),
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Role: string(p.Role),
	}
	if cfg.Audience != "" {
		claims.Audience = jwt.ClaimStrings{cfg.Audience}
	}
	if p.HospitalID != nil {
		claims.HospitalID = p.HospitalID.String()
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(cfg.SigningKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

// upgradeToken returns the access_token query parameter of a websocket
// upgrade. Browsers cannot set headers on the handshake.
func upgradeToken(c echo.Context) string {
	if !c.IsWebSocket() {
		return ""
	}
	return strings.TrimSpace(c.QueryParam("access_token"))
}

func bearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		if tok := upgradeToken(c); tok != "" {
			return tok, nil
		}
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
	}
	return strings.TrimSpace(parts[1]), nil
}

func setPrincipal(c echo.Context, p Principal) {
	c.Set("principal", p)
	c.SetRequest(c.Request().WithContext(WithPrincipal(c.Request().Context(), p)))
}

func JWTMiddleware(cfg JWTConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if AuthSkipper(c) {
				return next(c)
			}
			tokenStr, err := bearerToken(c)
			if err != nil {
				return err
			}
			p, err := ParseToken(cfg, tokenStr)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			setPrincipal(c, p)
			return next(c)
		}
	}
}

// DevAuthMiddleware lets unauthenticated requests through as an admin.
// Requests that do carry a token are still verified.
func DevAuthMiddleware(cfg JWTConfig) echo.MiddlewareFunc {
	verify := JWTMiddleware(cfg)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		verified := verify(next)
		return func(c echo.Context) error {
			if c.Request().Header.Get("Authorization") != "" || upgradeToken(c) != "" {
				return verified(c)
			}
			setPrincipal(c, Principal{UserID: uuid.Nil, Role: RoleAdmin})
			return next(c)
		}
	}
}

// CurrentPrincipal returns the caller of an authenticated request or a 401.
func CurrentPrincipal(c echo.Context) (Principal, error) {
	if p, ok := PrincipalFromContext(c.Request().Context()); ok {
		return p, nil
	}
	return Principal{}, echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
}
