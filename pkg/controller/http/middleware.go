package http

import (
	"net/http"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/riskcompass/riskcompass/pkg/domain/model/auth"
	"github.com/riskcompass/riskcompass/pkg/usecase"
	"github.com/riskcompass/riskcompass/pkg/utils/errutil"
)

type AuthUseCase = usecase.AuthUseCaseInterface

// authMiddleware verifies the bearer token and binds the principal to the
// request context
func authMiddleware(authUC AuthUseCase) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if authUC == nil {
				errutil.HandleHTTP(r.Context(), w,
					goerr.Wrap(usecase.ErrUnauthenticated, "authentication is not configured"),
					http.StatusUnauthorized)
				return
			}

			var token string
			if !authUC.IsNoAuthn() {
				var ok bool
				token, ok = bearerToken(r)
				if !ok {
					errutil.HandleHTTP(r.Context(), w,
						goerr.Wrap(usecase.ErrUnauthenticated, "missing bearer token"),
						http.StatusUnauthorized)
					return
				}
			}

			principal, err := authUC.Authenticate(r.Context(), token)
			if err != nil {
				errutil.HandleHTTP(r.Context(), w, err, http.StatusUnauthorized)
				return
			}

			ctx := auth.ContextWithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
