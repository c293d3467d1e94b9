package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/engforum/engforum/config"
	"github.com/engforum/engforum/models"
	"github.com/engforum/engforum/routes"
	"github.com/engforum/engforum/services"
	"github.com/engforum/engforum/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer func() { _ = utils.Logger.Sync() }()

	db := config.InitDatabase(models.All()...)

	if len(cfg.AdminUsernames) > 0 {
		users := services.NewUserService(db, utils.NewPasswordHasher(cfg.PasswordScheme))
		n, err := users.EnsureAdmins(context.Background(), cfg.AdminUsernames)
		if err != nil {
			utils.Logger.Fatal("promote configured administrators", zap.Error(err))
		}
		utils.Logger.Info("configured administrators promoted", zap.Int("found", n), zap.Int("configured", len(cfg.AdminUsernames)))
	}
	if cfg.PasswordScheme == "sha256" {
		utils.Logger.Warn("password scheme sha256 is unsalted; set PASSWORD_SCHEME=bcrypt for new deployments")
	}

	r := routes.SetupRouter(db)

	utils.Logger.Info("starting server", zap.String("port", cfg.AppPort), zap.String("db_driver", cfg.DBDriver))
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Logger.Fatal("server stopped with error", zap.Error(err))
	}
}
