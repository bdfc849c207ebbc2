package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/Jaimin17/Zenith-School-Backend/core"
)

const PurgeBlacklistTask = "purge_blacklist"

// BlacklistPurger deletes the revoked tokens past their retention.
type BlacklistPurger interface {
	PurgeBlacklist(ctx context.Context) (int64, error)
}

// PurgeBlacklist returns the job deleting expired blacklist rows.
func PurgeBlacklist(purger BlacklistPurger, logger core.Logger) JobFunc {
	return func(ctx context.Context) error {
		n, err := purger.PurgeBlacklist(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			logger.Info(fmt.Sprintf("purged %d blacklisted token pairs", n))
		}
		return nil
	}
}

// RegisterDefaults registers the jobs every API instance runs.
func RegisterDefaults(r *Registry, conf *core.Config, purger BlacklistPurger, logger core.Logger) error {
	return r.Register(PurgeBlacklistTask, conf.Tasks.BlacklistPurgeSpec, 5*time.Minute, PurgeBlacklist(purger, logger))
}
