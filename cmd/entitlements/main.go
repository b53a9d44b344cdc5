package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/henryhq/entitlements/internal/clock"
	"github.com/henryhq/entitlements/internal/config"
	"github.com/henryhq/entitlements/internal/migration"
	"github.com/henryhq/entitlements/internal/observability"
	"github.com/henryhq/entitlements/internal/server"
	"github.com/henryhq/entitlements/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(registerSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}

func registerSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
