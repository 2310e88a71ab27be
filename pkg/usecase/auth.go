package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/m-mizutani/goerr/v2"
	"github.com/riskcompass/riskcompass/pkg/domain/model/auth"
	"github.com/riskcompass/riskcompass/pkg/domain/types"
	"github.com/riskcompass/riskcompass/pkg/utils/logging"
)

// AuthUseCaseInterface turns a bearer token into an authenticated principal
type AuthUseCaseInterface interface {
	Authenticate(ctx context.Context, bearer string) (*auth.Principal, error)
	IsNoAuthn() bool
}

// AuthUseCase verifies HS256 JWTs issued by the external identity service
type AuthUseCase struct {
	key    []byte
	issuer string
	skew   time.Duration
	cache  *authCache
}

// AuthOption is a functional option for AuthUseCase
type AuthOption func(*AuthUseCase)

// WithIssuer requires the iss claim to match
func WithIssuer(issuer string) AuthOption {
	return func(uc *AuthUseCase) {
		uc.issuer = issuer
	}
}

// WithAcceptableSkew tolerates clock skew when checking exp and nbf
func WithAcceptableSkew(d time.Duration) AuthOption {
	return func(uc *AuthUseCase) {
		uc.skew = d
	}
}

func NewAuthUseCase(secret string, options ...AuthOption) (*AuthUseCase, error) {
	if secret == "" {
		return nil, goerr.New("JWT secret is required")
	}

	uc := &AuthUseCase{
		key:   []byte(secret),
		cache: newAuthCache(),
	}
	for _, opt := range options {
		opt(uc)
	}
	return uc, nil
}

// IsNoAuthn returns false for regular AuthUseCase
func (uc *AuthUseCase) IsNoAuthn() bool {
	return false
}

// Authenticate verifies the token and returns the principal it asserts. The
// subject is taken from sub, or from the legacy id claim.
func (uc *AuthUseCase) Authenticate(ctx context.Context, bearer string) (*auth.Principal, error) {
	bearer = strings.TrimSpace(bearer)
	if bearer == "" {
		return nil, goerr.Wrap(ErrUnauthenticated, "empty bearer token")
	}

	if p, ok := uc.cache.get(bearer); ok {
		return p, nil
	}

	opts := []jwt.ParseOption{
		jwt.WithKey(jwa.HS256, uc.key),
		jwt.WithValidate(true),
		jwt.WithAcceptableSkew(uc.skew),
	}
	if uc.issuer != "" {
		opts = append(opts, jwt.WithIssuer(uc.issuer))
	}

	token, err := jwt.Parse([]byte(bearer), opts...)
	if err != nil {
		logging.From(ctx).Debug("bearer token rejected", "error", err)
		return nil, goerr.Wrap(ErrUnauthenticated, "invalid bearer token", goerr.V("reason", err.Error()))
	}

	sub := token.Subject()
	if sub == "" {
		if id, ok := token.Get("id"); ok {
			sub = fmt.Sprint(id)
		}
	}
	if sub == "" {
		return nil, goerr.Wrap(ErrUnauthenticated, "token has no subject")
	}

	principal := auth.NewPrincipal(types.UserID(sub), stringClaim(token, "email"), stringClaim(token, "name"))
	uc.cache.set(bearer, principal, token.Expiration())
	return principal, nil
}

func stringClaim(token jwt.Token, name string) string {
	v, ok := token.Get(name)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
