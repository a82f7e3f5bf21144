package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lguibr/keypass/bollywood"
	"github.com/lguibr/keypass/game"
	"github.com/lguibr/keypass/server"
	"github.com/lguibr/keypass/utils"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 5 * time.Second

func main() {
	envFile := flag.String("env", ".env", "dotenv file with KEYPASS_* overrides")
	defaultRoom := flag.String("room", "lobby", "room created at startup, empty for none")
	flag.Parse()

	cfg, err := utils.LoadConfig(*envFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if err := utils.ConfigureLogging(cfg, os.Stderr); err != nil {
		log.Fatal().Err(err).Msg("failed to configure logging")
	}

	engine := bollywood.NewEngine()
	managerPID := engine.Spawn(bollywood.NewProps(game.NewRoomManagerProducer(engine, cfg)))
	if managerPID == nil {
		log.Fatal().Msg("failed to spawn room manager")
	}

	srv := server.New(engine, managerPID, cfg)
	if *defaultRoom != "" {
		rooms := game.NewRooms(engine, managerPID, cfg.AskTimeout)
		if _, err := rooms.Create(*defaultRoom); err != nil {
			log.Fatal().Err(err).Str("room", *defaultRoom).Msg("failed to create default room")
		}
	}

	httpServer := srv.HTTPServer()
	go func() {
		log.Info().Str("addr", cfg.Addr).Int("gridSize", cfg.GridSize).
			Dur("keyInterval", cfg.KeyInterval).Dur("gameTimeout", cfg.GameTimeout).Msg("starting keypass server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server exited")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	engine.Shutdown(shutdownTimeout)
	log.Info().Msg("bye")
}
