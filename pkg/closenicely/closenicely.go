package closenicely

import (
	"context"
	"io"

	"github.com/klothoplatform/spa-stack/pkg/logging"
	"go.uber.org/zap"
)

// OrDebug closes `closer`, logging the error at debug level instead of returning it. Use it for closes whose
// failure can't change the outcome, such as read-only files.
func OrDebug(closer io.Closer) {
	FuncOrDebug(context.Background(), closer.Close)
}

// FuncOrDebug is [OrDebug] for an arbitrary close function, logging to the context's logger.
func FuncOrDebug(ctx context.Context, closer func() error) {
	if err := closer(); err != nil {
		logging.GetLogger(ctx).Debug("Failed to close resource", zap.Error(err))
	}
}
