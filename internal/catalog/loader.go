package catalog

import (
	"os"
	"strings"

	"github.com/henryhq/entitlements/internal/config"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Load builds the catalog from the configured YAML file, falling back to
// the compiled-in table when no file is configured or present. The result
// is immutable for the life of the process.
func Load(cfg config.Config, log *zap.Logger) (*Catalog, error) {
	path := strings.TrimSpace(cfg.CatalogPath)
	if path == "" {
		log.Info("catalog: using compiled-in tier table")
		return New(DefaultDefinitions())
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			log.Warn("catalog: configured file not found, using compiled-in tier table",
				zap.String("path", path))
			return New(DefaultDefinitions())
		}
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var definitions []TierDefinition
	if err := v.UnmarshalKey("tiers", &definitions); err != nil {
		return nil, err
	}

	log.Info("catalog: loaded tier table",
		zap.String("path", path),
		zap.Int("tiers", len(definitions)))

	return New(definitions)
}
