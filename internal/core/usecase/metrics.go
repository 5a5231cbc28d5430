package usecase

import (
	"time"

	"github.com/pongchanan/Healthcare-AI/internal/core/domain"
)

// PipelineMetrics receives pipeline-level observations. The concrete
// implementation lives in observability/metrics.
type PipelineMetrics interface {
	ObserveIntent(intent domain.Intent)
	ObserveTool(tool domain.ToolName, outcome string)
	ObserveStage(stage string, elapsed time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) ObserveIntent(domain.Intent)         {}
func (noopMetrics) ObserveTool(domain.ToolName, string) {}
func (noopMetrics) ObserveStage(string, time.Duration)  {}
