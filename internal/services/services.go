// Package services holds the use cases behind the HTTP API. Services own
// validation and orchestration; persistence goes through the store ports.
package services

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	applog "spendwise/internal/log"
)

// Clock returns the current time. Services take one so tests can pin "now".
type Clock func() time.Time

func utcNow() time.Time { return time.Now().UTC() }

// newID returns a time-ordered UUID so ids sort roughly by creation.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func componentLogger(logger *applog.Logger, component string) *applog.Logger {
	if logger == nil {
		return applog.New(applog.Config{Handler: slog.Default().Handler(), Component: component})
	}
	return logger.WithComponent(component)
}
