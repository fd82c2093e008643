package main

import (
	"context"
	"time"

	"github.com/cppla/blog/config"
	"github.com/cppla/blog/models"
	"github.com/cppla/blog/repository"
	"github.com/cppla/blog/routes"
	"github.com/cppla/blog/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer func() { _ = utils.Logger.Sync() }()

	db := config.InitDatabase(models.All()...)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := repository.NewRoleRepository(db).EnsureRoles(ctx, models.RoleUser, models.RoleAdmin); err != nil {
		cancel()
		utils.Sugar.Fatalf("seed roles failed: %v", err)
	}
	cancel()

	if rc := utils.GetRedis(); rc != nil {
		utils.Sugar.Infof("redis enabled at %s", rc.Options().Addr)
	}

	r := routes.SetupRouter(db)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
