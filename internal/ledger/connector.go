package ledger

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/plover-db/plover/internal/retry"
)

const (
	DefaultConnectionAttempts    = 100
	DefaultConnectionAttemptStep = 2 * time.Second
)

type ConnectOptions struct {
	MaxAttempts int
	RetryStep   time.Duration
}

func NewDefaultConnectOptions() *ConnectOptions {
	return &ConnectOptions{
		MaxAttempts: DefaultConnectionAttempts,
		RetryStep:   DefaultConnectionAttemptStep,
	}
}

// WaitForStore pings the database until it answers or the attempt
// budget runs out. The CLI calls it before building a migrator so a
// store that is still starting up does not fail the whole run.
func WaitForStore(ctx context.Context, db *sql.DB, options *ConnectOptions) error {
	if options == nil {
		options = NewDefaultConnectOptions()
	}

	return retry.Incremental(ctx, options.RetryStep, options.MaxAttempts, func(attempt int) error {
		if err := db.PingContext(ctx); err != nil {
			return retry.Transient(errors.Wrap(err, "ledger store ping failed"), attempt)
		}

		return nil
	})
}
