// app/bootstrap.go
package app

import (
	"context"
	"log/slog"
)

type AdminPromoter interface {
	PromoteAdmins(ctx context.Context, emails []string) (int64, error)
	CountAdmins(ctx context.Context) (int64, error)
}

// BootstrapAdmins flags the accounts listed in ADMIN_EMAILS as admins.
// Accounts registered later are still recognised by email at request time.
func BootstrapAdmins(ctx context.Context, cfg Config, repo AdminPromoter, logger *slog.Logger) {
	if len(cfg.AdminEmails) == 0 {
		n, err := repo.CountAdmins(ctx)
		if err == nil && n == 0 {
			logger.Warn("no admin configured, set ADMIN_EMAILS")
		}
		return
	}
	n, err := repo.PromoteAdmins(ctx, cfg.AdminEmails)
	if err != nil {
		logger.Error("bootstrap admins failed", "err", err)
		return
	}
	logger.Info("bootstrap admins", "configured", len(cfg.AdminEmails), "promoted", n)
}
