package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	platformconfig "food-analyzer-go/internal/platform/config"
	platformerrors "food-analyzer-go/internal/platform/errors"
	"food-analyzer-go/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testLoader(t *testing.T, env map[string]string) *platformconfig.Loader {
	t.Helper()
	base := map[string]string{
		"FOOD_ANALYZER_LOG_DIR":        t.TempDir(),
		"FOOD_ANALYZER_JOURNAL_DRIVER": "memory",
	}
	for k, v := range env {
		base[k] = v
	}
	return platformconfig.NewLoader().
		WithDotEnv(false).
		WithEnv(func(key string) (string, bool) {
			v, ok := base[key]
			return v, ok
		})
}

func writeConfig(t *testing.T, loader *platformconfig.Loader) *platformconfig.Loader {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 8000\n"), 0o644))
	return loader.WithPath(path)
}

func TestInitGraphOrder(t *testing.T) {
	want := []string{
		"config:load-runtime",
		"logging:init-provider",
		"observability:setup-hooks",
		"events:init-bus",
		"journal:init-store",
		"model:init-client",
	}
	steps := InitGraph()
	require.Len(t, steps, len(want))
	for i, step := range steps {
		assert.Equal(t, want[i], step.ID)
		assert.NotNil(t, step.Execute, step.ID)
	}
}

func TestExecuteInitSteps_MissingCredential(t *testing.T) {
	state := &appState{loader: writeConfig(t, testLoader(t, nil))}

	err := executeInitSteps(context.Background(), InitGraph(), state)
	require.Error(t, err)
	assert.True(t, platformerrors.IsKind(err, platformerrors.KindConfig))
	assert.Contains(t, err.Error(), "GOOGLE_API_KEY")
	assert.Nil(t, state.logger, "nothing past config should have run")
	assert.Nil(t, state.model)
	state.release()
}

func TestExecuteInitSteps_UnsatisfiedDependency(t *testing.T) {
	steps := []initStep{
		{
			ID:        "journal:init-store",
			DependsOn: []string{"events:init-bus"},
			Execute:   func(context.Context, *appState) error { return nil },
		},
	}
	err := executeInitSteps(context.Background(), steps, &appState{})
	require.Error(t, err)
	assert.True(t, platformerrors.IsKind(err, platformerrors.KindBootstrap))
	assert.Contains(t, err.Error(), "events:init-bus")
}

func TestExecuteInitSteps_WrapsUntypedErrors(t *testing.T) {
	steps := []initStep{
		{
			ID:      "journal:init-store",
			Kind:    platformerrors.KindStorage,
			Execute: func(context.Context, *appState) error { return os.ErrPermission },
		},
	}
	err := executeInitSteps(context.Background(), steps, &appState{})
	require.Error(t, err)
	assert.True(t, platformerrors.IsKind(err, platformerrors.KindStorage))
	assert.ErrorIs(t, err, os.ErrPermission)
}

func TestExecuteInitSteps_BuildsServingRouter(t *testing.T) {
	state := &appState{loader: writeConfig(t, testLoader(t, map[string]string{"GOOGLE_API_KEY": "test-key"}))}
	require.NoError(t, executeInitSteps(context.Background(), InitGraph(), state))
	t.Cleanup(state.release)

	require.NotNil(t, state.logger)
	require.NotNil(t, state.bus)
	require.NotNil(t, state.journal)
	require.NotNil(t, state.recorder)
	require.NotNil(t, state.model)
	require.NotNil(t, state.observabilityShutdown)
	assert.Equal(t, "gemini", state.model.Provider())

	router, err := buildRouter(context.Background(), state)
	require.NoError(t, err)

	for _, path := range []string{"/health", "/api/status", "/api/analyses", "/openapi.json"} {
		rec := httptest.NewRecorder()
		router.Engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestLogBootstrapGraphOutput(t *testing.T) {
	tmp := t.TempDir()
	logCfg := &utils.LogCfg{
		LogLevel: "info",
		LogDir:   tmp,
		LogFile:  "graph.log",
	}
	logger, err := utils.NewLogger(logCfg)
	require.NoError(t, err)
	logBootstrapGraph(logger, InitGraph())
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(filepath.Join(tmp, logCfg.LogFile))
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "init graph")
	for _, step := range InitGraph() {
		assert.Contains(t, content, step.ID)
	}
}
