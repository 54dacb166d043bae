package webapi

import (
	"context"
	stderrors "errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/process"

	"food-analyzer-go/internal/domain/analysis"
	"food-analyzer-go/internal/domain/eventbus"
	"food-analyzer-go/internal/domain/journal"
	"food-analyzer-go/internal/platform/errors"
	"food-analyzer-go/internal/platform/observability"
	httptransport "food-analyzer-go/internal/transport/http"
	"food-analyzer-go/internal/utils"
)

// Service serves the read-only /api routes: journal history and status.
type Service struct {
	logger    *utils.Logger
	analysis  *analysis.Service
	journal   journal.Store
	recorder  *journal.Recorder
	bus       *eventbus.AsyncEventBus
	startedAt time.Time
	proc      *process.Process
}

type Options struct {
	Logger   *utils.Logger
	Analysis *analysis.Service
	Journal  journal.Store
	Recorder *journal.Recorder
	Bus      *eventbus.AsyncEventBus
}

func NewService(opts Options) (*Service, error) {
	if opts.Analysis == nil {
		return nil, errors.New(errors.KindConfig, "webapi.new", "analysis service is required")
	}
	if opts.Journal == nil {
		return nil, errors.New(errors.KindConfig, "webapi.new", "journal store is required")
	}
	if opts.Logger == nil {
		opts.Logger = utils.DefaultLogger
	}

	service := &Service{
		logger:    opts.Logger,
		analysis:  opts.Analysis,
		journal:   opts.Journal,
		recorder:  opts.Recorder,
		bus:       opts.Bus,
		startedAt: time.Now(),
	}
	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		service.proc = proc
	} else {
		opts.Logger.WarnTag("HTTP", "process metrics unavailable: %v", err)
	}
	return service, nil
}

// Register mounts the journal and status routes on the /api group.
func (s *Service) Register(_ context.Context, router *gin.RouterGroup) error {
	router.GET("/analyses", s.handleList)
	router.GET("/analyses/:id", s.handleGet)
	router.GET("/status", s.handleStatus)

	s.logger.InfoTag("HTTP", "api routes registered")
	return nil
}

// handleList returns recent analyses, newest first.
// @Summary List recent analyses
// @Tags Journal
// @Produce json
// @Param limit query int false "Maximum entries (default 20, max 100)"
// @Success 200 {object} ListResponse
// @Failure 400 {object} httptransport.ErrorBody
// @Router /api/analyses [get]
func (s *Service) handleList(c *gin.Context) {
	limit := journal.DefaultListLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			httptransport.RespondDetail(c, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = journal.ClampLimit(parsed)
	}

	entries, err := s.journal.List(c.Request.Context(), limit)
	if err != nil {
		s.logger.ErrorTag("Journal", "list failed: %v", err)
		httptransport.RespondDetail(c, http.StatusInternalServerError, "failed to list analyses")
		return
	}
	c.JSON(http.StatusOK, ListResponse{Analyses: entries, Count: len(entries)})
}

// handleGet returns one analysis.
// @Summary Get one analysis
// @Tags Journal
// @Produce json
// @Param id path string true "Analysis id"
// @Success 200 {object} journal.Entry
// @Failure 404 {object} httptransport.ErrorBody
// @Router /api/analyses/{id} [get]
func (s *Service) handleGet(c *gin.Context) {
	entry, err := s.journal.Get(c.Request.Context(), c.Param("id"))
	if stderrors.Is(err, journal.ErrNotFound) {
		httptransport.RespondDetail(c, http.StatusNotFound, "analysis not found")
		return
	}
	if err != nil {
		s.logger.ErrorTag("Journal", "get failed: %v", err)
		httptransport.RespondDetail(c, http.StatusInternalServerError, "failed to load analysis")
		return
	}
	c.JSON(http.StatusOK, entry)
}

// handleStatus reports the running service.
// @Summary Service status
// @Tags Status
// @Produce json
// @Success 200 {object} StatusResponse
// @Router /api/status [get]
func (s *Service) handleStatus(c *gin.Context) {
	model := s.analysis.Model()
	pipeline := s.analysis.Pipeline()

	resp := StatusResponse{
		Status:        "healthy",
		Provider:      model.Provider(),
		Model:         model.ModelName(),
		Normalizer:    pipeline.Describe(),
		StartedAt:     s.startedAt.UTC(),
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		Image:         pipeline.Metrics(),
		Process:       s.processStats(c.Request.Context()),
		Metrics:       observability.Snapshot(),
	}
	if s.bus != nil {
		stats := s.bus.Stats()
		resp.Events = &stats
	}
	if s.recorder != nil {
		stats := s.recorder.Stats()
		resp.Recorder = &stats
	}
	if stats, err := s.journal.Stats(c.Request.Context()); err == nil {
		resp.Journal = &stats
	} else {
		s.logger.WarnTag("Journal", "stats failed: %v", err)
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Service) processStats(ctx context.Context) *ProcessStats {
	if s.proc == nil {
		return nil
	}
	stats := &ProcessStats{PID: s.proc.Pid}
	if mem, err := s.proc.MemoryInfoWithContext(ctx); err == nil {
		stats.RSSBytes = mem.RSS
	}
	if cpu, err := s.proc.CPUPercentWithContext(ctx); err == nil {
		stats.CPUPercent = cpu
	}
	if n, err := s.proc.NumThreadsWithContext(ctx); err == nil {
		stats.Threads = n
	}
	return stats
}
