package usage

import (
	"github.com/henryhq/entitlements/internal/usage/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("usage.store",
	fx.Provide(repository.Provide),
)
