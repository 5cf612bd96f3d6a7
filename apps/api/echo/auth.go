package echoapi

import (
	"context"
	"strconv"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/vidyalaya/core"
	"github.com/trezcool/vidyalaya/core/user"
)

const (
	contextTokenKey     = "userToken"
	contextPrincipalKey = "principal"

	revokedTokenPrefix = "revoked:token:"
	revokedUserPrefix  = "revoked:user:"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	Role         string `json:"role"`
	Identifier   string `json:"identifier"`
	Name         string `json:"name,omitempty"`
	Email        string `json:"email,omitempty"`
}

func (c Claims) Principal() user.Principal {
	return user.Principal{ID: c.Subject, Role: c.Role, Identifier: c.Identifier, Name: c.Name, Email: c.Email}
}

// NewClaims returns the claims of a new token for `p`.
// Refreshed tokens keep the original issue time, which bounds the refresh window.
func NewClaims(conf *core.Config, p user.Principal, origIat ...int64) *Claims {
	now := core.NowFunc()
	nownix := now.Unix()

	oriat := nownix
	if len(origIat) > 0 {
		oriat = origIat[0]
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.New().String(),
			Issuer:    conf.AppName,
			Subject:   p.ID,
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		Role:         p.Role,
		Identifier:   p.Identifier,
		Name:         p.Name,
		Email:        p.Email,
	}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)
	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

type authenticator struct {
	conf      *core.Config
	cache     core.Cache
	users     user.Service
	jwtConfig middleware.JWTConfig
}

func newAuthenticator(conf *core.Config, cache core.Cache, users user.Service) *authenticator {
	return &authenticator{
		conf:  conf,
		cache: cache,
		users: users,
		jwtConfig: middleware.JWTConfig{
			SigningKey:    []byte(conf.SecretKey),
			SigningMethod: middleware.AlgorithmHS256,
			ContextKey:    contextTokenKey,
			Claims:        new(Claims),
		},
	}
}

// middleware validates the bearer token, then rejects revoked sessions.
func (a *authenticator) middleware() echo.MiddlewareFunc {
	jwtMiddleware := middleware.JWTWithConfig(a.jwtConfig)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return jwtMiddleware(func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			revoked, err := a.isRevoked(ctx.Request().Context(), claims)
			if err != nil {
				return errors.Wrap(err, "checking token revocation")
			}
			if revoked {
				return errSessionRevoked
			}
			ctx.Set(contextPrincipalKey, claims.Principal())
			return next(ctx)
		})
	}
}

func (a *authenticator) isRevoked(ctx context.Context, claims Claims) (bool, error) {
	revoked, err := a.cache.Exists(ctx, revokedTokenPrefix+claims.Id)
	if err != nil || revoked {
		return revoked, err
	}

	val, err := a.cache.Get(ctx, revokedUserPrefix+claims.Subject)
	if err != nil {
		if err == core.ErrCacheMiss {
			return false, nil
		}
		return false, err
	}
	revokedAt, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return false, errors.Wrap(err, "parsing revocation time")
	}
	return claims.OrigIssuedAt <= revokedAt, nil
}

// revokeToken revokes a single token until it expires.
func (a *authenticator) revokeToken(ctx context.Context, claims Claims) error {
	ttl := time.Until(time.Unix(claims.ExpiresAt, 0))
	if ttl <= 0 {
		return nil
	}
	return a.cache.Set(ctx, revokedTokenPrefix+claims.Id, "1", ttl)
}

// revokeUser revokes every token issued to user `id` so far.
// No token outlives the refresh window, which is therefore the ttl.
func (a *authenticator) revokeUser(ctx context.Context, id string) error {
	now := strconv.FormatInt(core.NowFunc().Unix(), 10)
	return a.cache.Set(ctx, revokedUserPrefix+id, now, a.conf.Server.JWTRefreshExpirationDelta)
}

func (a *authenticator) login(ctx context.Context, role, identifier, pwd string) (string, user.Principal, error) {
	p, err := a.users.Authenticate(ctx, role, identifier, pwd)
	if err != nil {
		return "", user.Principal{}, err
	}
	token, err := GenerateToken(a.conf, NewClaims(a.conf, p))
	return token, p, err
}

func (a *authenticator) refresh(ctx context.Context, claims Claims) (string, error) {
	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(a.conf.Server.JWTRefreshExpirationDelta)
	if core.NowFunc().After(expTime) {
		return "", errRefreshExpired
	}

	// check if user still exists & is still active
	p, err := a.users.GetPrincipal(ctx, claims.Role, claims.Subject)
	if err != nil {
		return "", err
	}

	if err := a.revokeToken(ctx, claims); err != nil {
		return "", errors.Wrap(err, "revoking old token")
	}
	return GenerateToken(a.conf, NewClaims(a.conf, p, claims.OrigIssuedAt))
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// getContextPrincipal returns the authenticated user; the zero Principal on public routes.
func getContextPrincipal(ctx echo.Context) user.Principal {
	if p, ok := ctx.Get(contextPrincipalKey).(user.Principal); ok {
		return p
	}
	return user.Principal{}
}
