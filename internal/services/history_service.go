package services

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/xvierd/gitlanes/internal/domain"
	"github.com/xvierd/gitlanes/internal/graph"
	"github.com/xvierd/gitlanes/internal/ports"
)

// DefaultMaxCount is how many commits the history graph loads.
const DefaultMaxCount = 200

// HistoryService turns loaded history into a graph view.
type HistoryService struct {
	engine   *graph.Engine
	maxCount int
	logger   zerolog.Logger
}

// NewHistoryService creates a history service. A non-positive maxCount
// means DefaultMaxCount.
func NewHistoryService(engine *graph.Engine, maxCount int, logger zerolog.Logger) *HistoryService {
	if maxCount <= 0 {
		maxCount = DefaultMaxCount
	}
	return &HistoryService{engine: engine, maxCount: maxCount, logger: logger}
}

// MaxCount returns the number of commits loaded per refresh.
func (h *HistoryService) MaxCount() int {
	return h.maxCount
}

// Engine returns the layout engine.
func (h *HistoryService) Engine() *graph.Engine {
	return h.engine
}

// View lays out records, or explains why there is no graph when loading
// them failed.
func (h *HistoryService) View(records []domain.CommitRecord, err error) domain.GraphView {
	if err != nil {
		h.logger.Warn().Err(err).Msg("history unavailable")
		return domain.GraphUnavailable{Reason: err.Error()}
	}
	layout := h.engine.Layout(records)
	return domain.NewGraphReady(layout, records)
}

// Load reads the history through client and lays it out.
func (h *HistoryService) Load(ctx context.Context, client ports.GitClient) domain.GraphView {
	records, err := client.Log(ctx, h.maxCount)
	return h.View(records, err)
}
