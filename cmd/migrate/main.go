package main

import (
	"os"

	"github.com/oggyb/smsoffice-gateway/internal/config"
	"github.com/oggyb/smsoffice-gateway/internal/db/gormdb"
	"github.com/oggyb/smsoffice-gateway/internal/logger"
	dispatchRepo "github.com/oggyb/smsoffice-gateway/internal/repository/gorm/dispatch"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

func main() {
	// Load application configuration (DB etc.) from env/.env.
	cfg := config.New()

	log, err := logger.New(cfg.IsDevelopment(), cfg.Log.Level)
	if err != nil {
		log = zerolog.New(os.Stderr)
		log.Warn().Err(err).Msg("invalid LOG_LEVEL, using defaults")
	}
	log = logger.Component(log, "migrate")

	// Open a Postgres connection through our GORM adapter.
	gormAdapter, err := gormdb.New(cfg.PostgresDSN(), gormdb.NewLogger(log))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	log.Info().Str("db", cfg.DB.Name).Msg("connected to database")

	rawDB := gormAdapter.Conn().(*gorm.DB)

	if err := rawDB.AutoMigrate(&dispatchRepo.DispatchModel{}); err != nil {
		log.Fatal().Err(err).Msg("AutoMigrate failed")
	}

	log.Info().Str("table", dispatchRepo.DispatchModel{}.TableName()).Msg("dispatch table is up to date")
}
