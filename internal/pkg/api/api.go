package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	health "github.com/hellofresh/health-go/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sebastienferry/mongo-batch/internal/pkg/batch"
	"github.com/sebastienferry/mongo-batch/internal/pkg/interfaces"
	"github.com/sebastienferry/mongo-batch/internal/pkg/metrics"
)

func StartApi(engine *batch.Engine, backend interfaces.Backend, listen string) {

	router := gin.Default()
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))
	router.GET("/status", gin.WrapH(CreateHealthCheckHandler(backend)))

	// Engine api
	engineApi := NewEngineApi(engine)
	router.GET("/health", engineApi.HealthCheck)
	router.POST("/command/metrics/reset", engineApi.ResetMetrics)

	router.Run(listen)
}

func CreateHealthCheckHandler(backend interfaces.Backend) http.Handler {

	h, _ := health.New(health.WithComponent(health.Component{
		Name:    "mongo-batch",
		Version: "v1.0",
	}), health.WithChecks(
		health.Config{
			Name:    "mongodb-target",
			Timeout: time.Second * 5,
			Check: func(ctx context.Context) error {
				return backend.Probe(ctx)
			},
		},
	))
	return h.Handler()
}
