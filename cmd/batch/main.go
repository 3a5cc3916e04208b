package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sebastienferry/mongo-batch/internal/pkg/api"
	"github.com/sebastienferry/mongo-batch/internal/pkg/batch"
	"github.com/sebastienferry/mongo-batch/internal/pkg/config"
	"github.com/sebastienferry/mongo-batch/internal/pkg/log"
	"github.com/sebastienferry/mongo-batch/internal/pkg/mdb"
	"github.com/sebastienferry/mongo-batch/internal/pkg/stats"
	logrus "github.com/sirupsen/logrus"
)

func main() {

	// Load the configuration
	err := config.Current.LoadConfig()
	if err != nil {
		log.Fatal("Error loading configuration: ", err)
	}
	log.Debug("Configuration loaded")
	config.Current.LogConfig()

	// Logger initiatilization
	level := log.FromString(config.Current.Logging.Level)
	log.SetLogLevel(level)
	log.SetLogFormatter(&logrus.TextFormatter{
		FullTimestamp: false,
		DisableColors: false,
	})
	log.Debug("Starting mongo-batch")
	log.Debug(fmt.Sprintf("log level: %d (%s)", level, config.Current.Logging.Level))

	// Setup mongodb connectivity
	target := mdb.NewMongo(config.Current.Target)
	backend := mdb.NewMongoBackend(target, config.Current.Database)

	// Build the engine and probe the backend
	engine := batch.NewEngine(backend, batch.DefaultsFromConfig(config.Current))
	if err := engine.Initialize(context.Background()); err != nil {
		log.Fatal("Error initializing the engine: ", err)
	}

	// Start the API server
	go api.StartApi(engine, backend, config.Current.Listen)

	// Periodic stats logging
	engineStats := stats.NewEngineStats(engine, 30*time.Second)
	engineStats.StartEngineStats()

	// Prepare to handle SIGINT
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	// Drain in-flight operations before exiting
	log.Info("Shutting down")
	engineStats.StopEngineStats()
	if err := engine.Shutdown(context.Background()); err != nil {
		log.Warn("Shutdown finished with: ", err)
	}
}
