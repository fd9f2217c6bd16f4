// Command antiox-server loads or trains the anti-oxidation model and serves
// predictions over HTTP.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/YuminosukeSato/antiox/internal/config"
	"github.com/YuminosukeSato/antiox/internal/dataset"
	"github.com/YuminosukeSato/antiox/internal/modelstore"
	"github.com/YuminosukeSato/antiox/internal/repository"
	"github.com/YuminosukeSato/antiox/internal/schema"
	"github.com/YuminosukeSato/antiox/internal/server"
	"github.com/YuminosukeSato/antiox/internal/training"
	"github.com/YuminosukeSato/antiox/sklearn/ensemble"
	"github.com/YuminosukeSato/antiox/pkg/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.SetupLogger(config.DefaultLogLevel)
		log.GetLogger().Error("Invalid configuration", err)
		os.Exit(1)
	}
	log.SetupLogger(cfg.LogLevel)
	logger := log.GetLoggerWithName("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	audit, err := repository.Open(ctx, cfg.PredictionLog)
	if err != nil {
		logger.Warn("Prediction log unavailable, keeping records in memory", "error", err.Error())
		audit = repository.NewMemoryLog()
	}
	defer audit.Close()

	sch := schema.Default.WithLabel(cfg.LabelColumn)
	handle := modelstore.NewHandle()
	loadModel(ctx, cfg, sch, handle, logger)

	srv := server.New(server.Options{
		Handle:      handle,
		Schema:      sch,
		Audit:       audit,
		CORSOrigins: cfg.CORSOrigins,
	})

	go func() {
		logger.Info("Starting server", "addr", cfg.Addr())
		if err := srv.Listen(cfg.Addr()); err != nil {
			logger.Error("Server error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")
	if err := srv.Shutdown(cfg.ShutdownTimeout); err != nil {
		logger.Error("Server forced to shutdown", err)
	}
	logger.Info("Server exited gracefully")
}

// loadModel fills handle from the artifact, training first when none exists.
// On failure the handle stays empty and the server reports not ready.
func loadModel(ctx context.Context, cfg *config.Config, sch schema.Schema, handle *modelstore.Handle, logger log.Logger) {
	logger.Info("Loading model...", log.ModelPathKey, cfg.ModelPath, log.PhaseKey, log.PhaseStartup)

	store := modelstore.NewStore(cfg.ModelPath, sch)
	model, trained, err := store.LoadOrTrain(ctx, func(ctx context.Context) (*ensemble.Model, error) {
		ds, err := dataset.Load(cfg.DatasetPath, cfg.LabelColumn, sch)
		if err != nil {
			return nil, err
		}
		return training.TrainProduction(ctx, ds, cfg.HyperParams)
	})
	if err != nil {
		logger.Error("Model could not be loaded or trained", err,
			log.DatasetKey, cfg.DatasetPath)
		return
	}
	if err := handle.Set(model); err != nil {
		logger.Error("Model could not be installed", err)
		return
	}
	logger.Info("Model ready!", "trained", trained, log.TreesKey, model.NumTrees())
}
