package echoapi

import (
	"context"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/edulytics/backend/core"
	"github.com/edulytics/backend/services/lms"
)

// claimsContextKey is where the JWT middleware stores the parsed token.
const claimsContextKey = "userToken"

// newJWTConfig is the JWT auth middleware config.
func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    claimsContextKey,
		Claims:        new(Claims),
	}
}

// Claims represents the authorization claims transmitted via a JWT. Subject
// and Username both carry the LMS username; roles are not embedded in the
// token but resolved from the LMS on each course-gated request.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	Username     string `json:"username,omitempty"`
}

func NewClaims(conf *core.Config, username string, origIat ...int64) *Claims {
	now := time.Now()
	nownix := now.Unix()

	var oriat int64
	if len(origIat) > 0 {
		oriat = origIat[0]
	} else {
		oriat = nownix
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   username,
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		Username:     username,
	}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(claimsContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// contextAllowedCourses resolves the requesting user's course permissions
// from the LMS: role grants filtered to the trusted roles, course ids in
// their block-v1 form.
func contextAllowedCourses(ctx echo.Context, resolver lms.RoleResolver, conf *core.Config) ([]string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return nil, err
	}

	reqCtx := ctx.Request().Context()
	if reqCtx == nil {
		reqCtx = context.Background()
	}
	roles, err := resolver.UserCourseRoles(reqCtx, claims.Username)
	if err != nil {
		return nil, errors.Wrapf(err, "resolving roles for %s", claims.Username)
	}
	return lms.AllowedCourses(roles, conf.AllowedRoles), nil
}
