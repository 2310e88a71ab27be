package async

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/riskcompass/riskcompass/pkg/utils/errutil"
	"github.com/riskcompass/riskcompass/pkg/utils/logging"
)

// Dispatch runs handler in a new goroutine with a background context that
// keeps the logger of ctx. Errors and panics are logged and reported.
func Dispatch(ctx context.Context, handler func(ctx context.Context) error) <-chan struct{} {
	bgCtx := logging.With(context.Background(), logging.From(ctx))
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				_ = errutil.Handle(bgCtx, goerr.New("panic in async handler", goerr.V("panic", fmt.Sprint(r))), "async handler panicked")
			}
		}()

		if err := handler(bgCtx); err != nil {
			_ = errutil.Handle(bgCtx, err, "async handler failed")
		}
	}()

	return done
}
