package main

import (
	"github.com/driftgate-labs/sortie_api/services"

	"github.com/alphabatem/common/context"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("No .env file loaded")
	}

	ctx, err := context.NewCtx(
		&services.JWTService{},
		&services.RedisService{},
		&services.PostgresService{},
		&services.RateLimitService{},
		&services.NotifierService{},
		&services.ArchiveService{},
		&services.MonitoringService{},
		&services.AuthService{},
		&services.WalletService{},
		&services.ResourceService{},
		&services.RosterService{},
		&services.ProfileService{},
		&services.PassService{},
		&services.UserService{},
		&services.VariantService{},
		&services.MissionService{},

		&services.HttpService{},
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build service context")
		return
	}

	err = ctx.Run()
	if err != nil {
		log.Fatal().Err(err)
		return
	}
}
