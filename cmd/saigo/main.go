package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kendfrey/saigo/internal/adapters/camera"
	"github.com/kendfrey/saigo/internal/adapters/model"
	"github.com/kendfrey/saigo/internal/bootstrap"
	"github.com/kendfrey/saigo/internal/broadcast"
	configdelivery "github.com/kendfrey/saigo/internal/delivery/config"
	wsdelivery "github.com/kendfrey/saigo/internal/delivery/ws"
	domaincfg "github.com/kendfrey/saigo/internal/domain/config"
	"github.com/kendfrey/saigo/internal/logger"
	"github.com/kendfrey/saigo/internal/repository/profile"
	gameuc "github.com/kendfrey/saigo/internal/usecase/game"
	"github.com/kendfrey/saigo/internal/usecase/scheduler"
)

const version = "0.1.0"

func main() {
	root := &cobra.Command{
		Use:   "saigo",
		Short: "Augmented Go board server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
		SilenceUsage: true,
	}
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg, err := bootstrap.Setup(".env")
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load configuration:", err)
		return err
	}

	log := logger.New(cfg.LogFile)
	defer log.Sync()

	visionModel, err := model.Load(cfg.ModelDir)
	if err != nil {
		log.Errorw("model load failed", "dir", cfg.ModelDir, "error", err)
		return err
	}
	log.Infow("model loaded", "input", visionModel.InputName, "output", visionModel.OutputName)

	configCell := domaincfg.NewCell(domaincfg.Default())
	fabric := broadcast.NewFabric()
	supplier := camera.NewSupplier(log)
	current, _ := configCell.Get()
	engine := gameuc.NewEngine(log, current.Board.Shape())
	loop := scheduler.New(log, configCell, fabric, supplier, visionModel, engine, cfg.FrameRate)

	profiles := profile.NewRepository(cfg.ProfileDir, log)
	configHandler := configdelivery.NewHandler(log, configCell, fabric, profiles)
	wsHandler := wsdelivery.NewHandler(log, fabric)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	router(r, configHandler, wsHandler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleShutdown(cancel, log)

	go func() {
		if err := loop.Run(ctx); err != nil {
			log.Errorw("frame loop exited", "error", err)
		}
	}()

	server := &http.Server{Addr: cfg.ServerAddr, Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Infof("server is running on http://%s/", cfg.ServerAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Errorw("server failed", "error", err)
		return err
	}
	return nil
}

func router(r *chi.Mux, configHandler *configdelivery.Handler, wsHandler *wsdelivery.Handler) {
	r.Get("/ws/camera", wsHandler.HandleCamera)
	r.Get("/ws/board-camera", wsHandler.HandleBoardCamera)
	r.Get("/ws/board", wsHandler.HandleBoard)
	r.Get("/ws/raw-board", wsHandler.HandleRawBoard)
	r.Get("/ws/game", wsHandler.HandleGame)
	r.Get("/ws/display", wsHandler.HandleDisplay)
	r.Get("/ws/control", wsHandler.HandleControl)

	r.Get("/api/config/board", configHandler.GetBoard)
	r.Put("/api/config/board", configHandler.PutBoard)
	r.Get("/api/config/camera", configHandler.GetCamera)
	r.Put("/api/config/camera", configHandler.PutCamera)
	r.Get("/api/config/display", configHandler.GetDisplay)
	r.Put("/api/config/display", configHandler.PutDisplay)
	r.Get("/api/cameras", configHandler.GetCameras)
	r.Get("/api/config/profiles", configHandler.GetProfiles)
	r.Post("/api/config/save", configHandler.SaveProfile)
	r.Post("/api/config/load", configHandler.LoadProfile)
	r.Post("/api/config/delete", configHandler.DeleteProfile)
	r.Post("/api/config/camera/reference", configHandler.PostReference)
}

func handleShutdown(cancel context.CancelFunc, log *zap.SugaredLogger) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Info("received shutdown signal")
	cancel()
}
