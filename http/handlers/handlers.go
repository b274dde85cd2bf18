package handlers

import (
	"context"
	"time"
)

// contextWithTimeout bounds background work spawned off the request path.
func contextWithTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 15*time.Second)
}
