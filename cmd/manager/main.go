package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/mantodeus/mantodeus-manager/internal/clock"
	"github.com/mantodeus/mantodeus-manager/internal/config"
	"github.com/mantodeus/mantodeus-manager/internal/migration"
	"github.com/mantodeus/mantodeus-manager/internal/observability"
	"github.com/mantodeus/mantodeus-manager/internal/server"
	"github.com/mantodeus/mantodeus-manager/pkg/db"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(newSnowflakeNode),
		db.Module,
		clock.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}

func newSnowflakeNode() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
