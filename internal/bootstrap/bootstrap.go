package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	_ "food-analyzer-go/docs"
	"food-analyzer-go/internal/core/providers/vision"
	"food-analyzer-go/internal/domain/analysis"
	"food-analyzer-go/internal/domain/eventbus"
	domainimage "food-analyzer-go/internal/domain/image"
	"food-analyzer-go/internal/domain/journal"
	"food-analyzer-go/internal/domain/nutrition"
	platformconfig "food-analyzer-go/internal/platform/config"
	platformerrors "food-analyzer-go/internal/platform/errors"
	platformlogging "food-analyzer-go/internal/platform/logging"
	platformobservability "food-analyzer-go/internal/platform/observability"
	httptransport "food-analyzer-go/internal/transport/http"
	httpanalyze "food-analyzer-go/internal/transport/http/analyze"
	httpwebapi "food-analyzer-go/internal/transport/http/webapi"
	"food-analyzer-go/internal/utils"
)

const (
	observabilityShutdownTimeout = 5 * time.Second
	busDrainTimeout              = 5 * time.Second
)

type stepFn func(context.Context, *appState) error

type initStep struct {
	ID        string
	Title     string
	DependsOn []string
	Kind      platformerrors.Kind
	Execute   stepFn
}

type appState struct {
	loader                *platformconfig.Loader
	config                *platformconfig.Config
	configPath            string
	configNotes           []string
	logProvider           *platformlogging.Logger
	logger                *utils.Logger
	slogger               *slog.Logger
	observabilityShutdown platformobservability.ShutdownFunc
	bus                   *eventbus.AsyncEventBus
	journal               journal.Store
	recorder              *journal.Recorder
	model                 vision.Model
}

// Run loads configuration, initialises every component and serves HTTP until
// ctx ends or SIGINT/SIGTERM arrives. A missing model credential fails here,
// before anything listens.
func Run(ctx context.Context) error {
	return run(ctx, &appState{loader: platformconfig.NewLoader()})
}

func run(ctx context.Context, state *appState) error {
	steps := InitGraph()
	if err := executeInitSteps(ctx, steps, state); err != nil {
		state.release()
		return err
	}
	defer state.release()

	logger := state.logger
	logBootstrapGraph(logger, steps)

	rootCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	signalCtx, stop := signal.NotifyContext(rootCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(rootCtx)

	if _, err := startHTTPServer(state, group, groupCtx); err != nil {
		cancel()
		return err
	}

	return waitForShutdown(signalCtx, groupCtx, cancel, logger, group, state.config.Server.ShutdownTimeout)
}

func logBootstrapGraph(logger *utils.Logger, steps []initStep) {
	if logger == nil {
		return
	}
	logger.InfoTag("Bootstrap", "init graph")
	for _, step := range steps {
		if len(step.DependsOn) == 0 {
			logger.InfoTag("Bootstrap", "  %s (%s)", step.ID, step.Title)
			continue
		}
		logger.InfoTag("Bootstrap", "  %s (%s) <- %s", step.ID, step.Title, strings.Join(step.DependsOn, ", "))
	}
}

func executeInitSteps(ctx context.Context, steps []initStep, state *appState) error {
	if state == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"execute init steps",
			"nil bootstrap state",
		)
	}

	completed := make(map[string]struct{}, len(steps))
	for _, step := range steps {
		for _, dep := range step.DependsOn {
			if _, ok := completed[dep]; !ok {
				return platformerrors.New(
					platformerrors.KindBootstrap,
					step.ID,
					fmt.Sprintf("dependency %s not satisfied", dep),
				)
			}
		}
		if step.Execute == nil {
			return platformerrors.New(
				platformerrors.KindBootstrap,
				step.ID,
				"missing execute function",
			)
		}
		if err := step.Execute(ctx, state); err != nil {
			var typed *platformerrors.Error
			if errors.As(err, &typed) {
				return err
			}

			kind := step.Kind
			if kind == "" {
				kind = platformerrors.KindBootstrap
			}
			return platformerrors.Wrap(kind, step.ID, "bootstrap step failed", err)
		}
		completed[step.ID] = struct{}{}
	}
	return nil
}

func InitGraph() []initStep {
	return []initStep{
		{
			ID:      "config:load-runtime",
			Title:   "Load configuration from file and environment",
			Kind:    platformerrors.KindConfig,
			Execute: loadConfigStep,
		},
		{
			ID:        "logging:init-provider",
			Title:     "Initialise logging provider",
			DependsOn: []string{"config:load-runtime"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initLoggingStep,
		},
		{
			ID:        "observability:setup-hooks",
			Title:     "Setup observability hooks",
			DependsOn: []string{"logging:init-provider"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   setupObservabilityStep,
		},
		{
			ID:        "events:init-bus",
			Title:     "Start analysis event bus",
			DependsOn: []string{"logging:init-provider"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initEventBusStep,
		},
		{
			ID:        "journal:init-store",
			Title:     "Open analysis journal",
			DependsOn: []string{"events:init-bus"},
			Kind:      platformerrors.KindStorage,
			Execute:   initJournalStep,
		},
		{
			ID:        "model:init-client",
			Title:     "Initialise vision model client",
			DependsOn: []string{"observability:setup-hooks"},
			Kind:      platformerrors.KindConfig,
			Execute:   initModelStep,
		},
	}
}

func loadConfigStep(_ context.Context, state *appState) error {
	loader := state.loader
	if loader == nil {
		loader = platformconfig.NewLoader()
	}
	res, err := loader.Load()
	if err != nil {
		return err
	}
	state.config = res.Config
	state.configPath = res.Path
	state.configNotes = res.Notes
	return nil
}

func initLoggingStep(_ context.Context, state *appState) error {
	if state.config == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"logging:init-provider",
			"config not loaded",
		)
	}

	logProvider, err := platformlogging.New(platformlogging.Config{
		Level:    state.config.Log.Level,
		Dir:      state.config.Log.Dir,
		Filename: state.config.Log.File,
	})
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "logging:init-provider", "failed to initialize logging provider", err)
	}

	state.logProvider = logProvider
	state.logger = logProvider.Base()
	state.slogger = logProvider.Slog()

	source := state.configPath
	if source == "" {
		source = "defaults+env"
	}
	state.logger.InfoTag("Bootstrap", "logging ready [%s] config=%s", state.config.Log.Level, source)
	for _, note := range state.configNotes {
		state.logger.InfoTag("Bootstrap", "config: %s", note)
	}
	return nil
}

func setupObservabilityStep(ctx context.Context, state *appState) error {
	if state.logger == nil || state.config == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"observability:setup-hooks",
			"config/logger not initialised",
		)
	}

	cfg := platformobservability.Config{
		Enabled: strings.EqualFold(state.config.Log.Level, "debug"),
	}
	shutdown, err := platformobservability.Setup(ctx, cfg, state.slogger)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "observability:setup-hooks", "failed to setup observability hooks", err)
	}
	state.observabilityShutdown = shutdown
	return nil
}

func initEventBusStep(_ context.Context, state *appState) error {
	events := state.config.Events
	state.bus = eventbus.NewAsyncEventBus(events.AsyncWorkers, events.QueueSize, state.logger)
	state.bus.Start()
	state.logger.InfoTag("Events", "event bus started: workers=%d queue=%d", events.AsyncWorkers, events.QueueSize)
	return nil
}

func initJournalStep(_ context.Context, state *appState) error {
	cfg := state.config.Journal
	store, err := journal.New(cfg, journal.Dependencies{})
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindStorage, "journal:init-store", "failed to open analysis journal", err)
	}
	state.journal = store

	state.recorder = journal.NewRecorder(store, state.logger)
	if err := state.recorder.Attach(state.bus); err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "journal:init-store", "failed to subscribe journal recorder", err)
	}
	state.logger.InfoTag("Journal", "journal ready: driver=%s", cfg.Driver)
	return nil
}

func initModelStep(_ context.Context, state *appState) error {
	m := state.config.Model
	model, err := vision.New(vision.Config{
		Type:        m.Type,
		ModelName:   m.ModelName,
		BaseURL:     m.BaseURL,
		APIKey:      m.APIKey,
		Timeout:     m.Timeout,
		Temperature: m.Temperature,
		MaxTokens:   m.MaxTokens,
	}, state.logger)
	if err != nil {
		return err
	}
	state.model = model
	return nil
}

// buildRouter wires the analysis service and the HTTP routes.
func buildRouter(ctx context.Context, state *appState) (*httptransport.Router, error) {
	cfg := state.config
	logger := state.logger

	pipeline, err := domainimage.NewPipeline(domainimage.Options{
		Config: &cfg.Image,
		Logger: logger,
	})
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindBootstrap, "http:init-image-pipeline", "failed to create image pipeline", err)
	}

	analysisService, err := analysis.NewService(analysis.Options{
		Pipeline:    pipeline,
		Model:       state.model,
		Interpreter: nutrition.NewInterpreter(cfg.Analysis.ReplyFormat, logger),
		Events:      state.bus,
		Logger:      logger,
	})
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindBootstrap, "analysis:new-service", "failed to create analysis service", err)
	}

	router, err := httptransport.Build(httptransport.Options{Config: cfg, Logger: logger})
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindTransport, "http:build-router", "failed to build router", err)
	}

	analyzeService, err := httpanalyze.NewService(httpanalyze.Options{
		Analysis:           analysisService,
		Logger:             logger,
		InvalidImageStatus: cfg.Analysis.InvalidImageStatus,
		MaxUploadBytes:     cfg.Image.MaxUploadBytes,
	})
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindTransport, "analyze:new-service", "failed to create analyze service", err)
	}

	webapiService, err := httpwebapi.NewService(httpwebapi.Options{
		Logger:   logger,
		Analysis: analysisService,
		Journal:  state.journal,
		Recorder: state.recorder,
		Bus:      state.bus,
	})
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindTransport, "webapi:new-service", "failed to create webapi service", err)
	}

	if err := analyzeService.Register(ctx, router.Engine); err != nil {
		return nil, err
	}
	if err := webapiService.Register(ctx, router.API); err != nil {
		return nil, err
	}
	if cfg.Web.EnableDocs {
		httptransport.RegisterDocs(router.Engine, logger)
	}
	return router, nil
}

func startHTTPServer(state *appState, g *errgroup.Group, groupCtx context.Context) (*http.Server, error) {
	cfg := state.config
	logger := state.logger

	router, err := buildRouter(groupCtx, state)
	if err != nil {
		return nil, err
	}

	addr := net.JoinHostPort(cfg.Server.IP, strconv.Itoa(cfg.Server.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindTransport, "http:listen", "failed to bind "+addr, err)
	}

	httpServer := &http.Server{
		Handler:           router.Engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
	}

	g.Go(func() error {
		logger.InfoTag("HTTP", "listening on http://%s", listener.Addr())
		if cfg.Web.EnableDocs {
			logger.InfoTag("HTTP", "api docs at http://%s/docs", listener.Addr())
		}

		go func() {
			<-groupCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()

			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.ErrorTag("HTTP", "http shutdown failed: %v", err)
			} else {
				logger.InfoTag("HTTP", "http server stopped")
			}
		}()

		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorTag("HTTP", "http server failed: %v", err)
			return err
		}
		return nil
	})

	return httpServer, nil
}

// waitForShutdown blocks until a signal arrives or a server goroutine fails,
// then cancels the group and waits for it within the shutdown budget.
func waitForShutdown(
	signalCtx context.Context,
	groupCtx context.Context,
	cancel context.CancelFunc,
	logger *utils.Logger,
	g *errgroup.Group,
	timeout time.Duration,
) error {
	select {
	case <-signalCtx.Done():
		logger.InfoTag("Bootstrap", "shutdown requested: %v", context.Cause(signalCtx))
	case <-groupCtx.Done():
		logger.WarnTag("Bootstrap", "server stopped unexpectedly: %v", context.Cause(groupCtx))
	}

	cancel()

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			logger.ErrorTag("Bootstrap", "shutdown finished with error: %v", err)
			return err
		}
		logger.InfoTag("Bootstrap", "all services stopped")
	case <-time.After(utils.MinDuration(timeout, 15*time.Second) + time.Second):
		logger.ErrorTag("Bootstrap", "shutdown timed out")
		return errors.New("shutdown timed out")
	}
	return nil
}

// release tears down whatever the init steps created, in reverse order.
func (s *appState) release() {
	if s.bus != nil {
		drainCtx, cancel := context.WithTimeout(context.Background(), busDrainTimeout)
		if err := s.bus.WaitIdle(drainCtx); err != nil {
			s.logger.WarnTag("Events", "event bus did not drain: %v", err)
		}
		cancel()
		s.bus.Stop()
		s.bus = nil
	}
	if s.journal != nil {
		if err := s.journal.Close(); err != nil {
			s.logger.WarnTag("Journal", "journal close failed: %v", err)
		}
		s.journal = nil
	}
	if s.model != nil {
		if err := s.model.Cleanup(); err != nil {
			s.logger.WarnTag("Model", "model cleanup failed: %v", err)
		}
		s.model = nil
	}
	if s.observabilityShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), observabilityShutdownTimeout)
		if err := s.observabilityShutdown(ctx); err != nil {
			s.logger.WarnTag("Bootstrap", "observability shutdown failed: %v", err)
		}
		cancel()
		s.observabilityShutdown = nil
	}
	if s.logProvider != nil {
		_ = s.logProvider.Close()
		s.logProvider = nil
	}
}
