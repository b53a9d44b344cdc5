package migration

import (
	accountdomain "github.com/henryhq/entitlements/internal/account/domain"
	"github.com/henryhq/entitlements/internal/config"
	"github.com/henryhq/entitlements/internal/seed"
	usagedomain "github.com/henryhq/entitlements/internal/usage/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "sqlite" {
			// golang-migrate's postgres driver does not apply here; the
			// sqlite path (dev and tests) derives the schema from the models.
			if err := conn.AutoMigrate(&accountdomain.Account{}, &usagedomain.UsageCounter{}); err != nil {
				return err
			}
		} else {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		}

		if cfg.SeedDemoAccounts && !cfg.IsProduction() {
			return seed.EnsureDemoAccounts(conn)
		}
		return nil
	}),
)
