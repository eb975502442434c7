// Command parlord runs the table service: REST table management, the
// websocket gateway and automated-seat play for every registered rule
// module.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/baizegames/parlor/engine"
	"github.com/baizegames/parlor/games/ginrummy"
	"github.com/baizegames/parlor/games/scripted"
	"github.com/baizegames/parlor/internal/auth"
	"github.com/baizegames/parlor/internal/config"
	"github.com/baizegames/parlor/internal/history"
	"github.com/baizegames/parlor/internal/server"
	"github.com/baizegames/parlor/internal/store"
	"github.com/baizegames/parlor/policy"
)

const sessionTTL = 24 * time.Hour

func main() {
	cfg := config.Load()

	reg := engine.NewRegistry()
	mustRegister(reg, ginrummy.New())
	war, err := scripted.War()
	if err != nil {
		log.WithError(err).Fatal("embedded war script broken")
	}
	mustRegister(reg, war)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var historian *history.Historian
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.WithError(err).Warn("redis unreachable; history drops entries until it recovers")
		}
		cancel()
		historian = history.NewHistorian(rdb)
	}

	var results *store.Store
	if cfg.DatabaseURL != "" {
		results, err = store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.WithError(err).Fatal("result store open failed")
		}
		defer results.Close()
		if err := results.Migrate(ctx); err != nil {
			log.WithError(err).Fatal("result store migrate failed")
		}
	}

	var chooser policy.Chooser
	firstCandidate := cfg.FirstCandidate
	if cfg.OpenAIKey != "" {
		chooser = policy.NewOpenAIChooser(cfg.OpenAIBase, cfg.OpenAIKey, cfg.OpenAIModel)
	} else if !firstCandidate {
		log.Info("no chooser configured; automated seats take the first candidate")
		firstCandidate = true
	}

	deps := server.Deps{
		Salt:           orRandom(cfg.ViewSalt, "VIEW_SALT"),
		Store:          results,
		Chooser:        chooser,
		FirstCandidate: firstCandidate,
		AITimeout:      cfg.AITimeout,
	}
	if historian != nil {
		deps.History = historian
	}

	sessions := auth.NewService(orRandom(cfg.JWTSecret, "JWT_SECRET"), sessionTTL)
	hub := server.NewHub(reg, deps)
	gateway := server.NewGateway(hub, sessions, historian)

	srv := &http.Server{Addr: cfg.Addr, Handler: gateway.Routes()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.WithFields(log.Fields{"addr": cfg.Addr, "games": reg.Keys()}).Info("parlord listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("server stopped")
	}
	log.Info("parlord stopped")
}

func mustRegister(reg *engine.Registry, mod engine.Ruleset) {
	if err := reg.Register(mod); err != nil {
		log.WithError(err).Fatal("module registration failed")
	}
}

// orRandom returns v, or a fresh random hex string when v is empty. The
// warning names the env key so operators know sessions and card tokens
// will not survive a restart.
func orRandom(v, key string) string {
	if v != "" {
		return v
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		log.WithError(err).Fatal("entropy unavailable")
	}
	log.WithField("key", key).Warn("generated a random value; set it to survive restarts")
	return hex.EncodeToString(buf)
}
