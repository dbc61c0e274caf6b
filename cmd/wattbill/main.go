package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/wattbill/internal/clock"
	"github.com/smallbiznis/wattbill/internal/config"
	"github.com/smallbiznis/wattbill/internal/logger"
	"github.com/smallbiznis/wattbill/internal/migration"
	"github.com/smallbiznis/wattbill/internal/scheduler"
	"github.com/smallbiznis/wattbill/internal/server"
	"github.com/smallbiznis/wattbill/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		// HTTP surface plus the domain modules it pulls in
		server.Module,

		scheduler.Module,
		migration.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
