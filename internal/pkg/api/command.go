package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sebastienferry/mongo-batch/internal/pkg/batch"
	"github.com/sebastienferry/mongo-batch/internal/pkg/log"
)

type EngineApi struct {
	engine *batch.Engine
}

func NewEngineApi(engine *batch.Engine) *EngineApi {
	return &EngineApi{
		engine: engine,
	}
}

// HealthCheck reports the engine health. Failure is encoded in the payload,
// never as a transport error.
func (a *EngineApi) HealthCheck(c *gin.Context) {

	health := a.engine.HealthCheck(c.Request.Context())

	status := 200
	if !health.Healthy {
		status = 503
	}
	c.JSON(status, health)
}

func (a *EngineApi) ResetMetrics(c *gin.Context) {

	a.engine.ResetMetrics()
	log.Info("metrics reset")
	c.Status(200)
}
