package beta

import "go.uber.org/fx"

var Module = fx.Module("beta.migrator",
	fx.Provide(NewMigrator),
)
