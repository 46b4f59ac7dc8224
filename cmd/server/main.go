package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/scrimlabs/inhouse-backend/internal/config"
	"github.com/scrimlabs/inhouse-backend/internal/httpapi"
	"github.com/scrimlabs/inhouse-backend/internal/hub"
	"github.com/scrimlabs/inhouse-backend/internal/session"
	"github.com/scrimlabs/inhouse-backend/internal/store"
)

func main() {
	cfg := config.Load()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var archiver session.Archiver = session.NopArchiver{}
	if cfg.DatabaseURL != "" {
		st, err := store.Open(cfg.DatabaseURL, log)
		if err != nil {
			log.Fatal("open store", zap.Error(err))
		}
		defer st.Close()
		archiver = st
	} else {
		log.Warn("DATABASE_URL not set, audit trail disabled")
	}

	h := hub.NewHub(ctx, archiver, log)
	handler := httpapi.SetupRoutes(h, cfg.OriginPatterns, log)

	srv := &http.Server{Addr: cfg.Addr, Handler: handler}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		h.Inbox() <- hub.ShutdownHub{}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
