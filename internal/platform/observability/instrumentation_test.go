package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordMetric_Aggregates(t *testing.T) {
	_, err := Setup(context.Background(), Config{Enabled: true}, nil)
	require.NoError(t, err)

	RecordMetric(context.Background(), "analysis.requests", 1, map[string]string{"status": "200"})
	RecordMetric(context.Background(), "analysis.requests", 1, map[string]string{"status": "200"})
	RecordMetric(context.Background(), "image.bytes", 300, nil)
	RecordMetric(context.Background(), "image.bytes", 100, nil)

	snap := Snapshot()
	assert.Equal(t, int64(2), snap["analysis.requests{status=200}"].Count)
	img := snap["image.bytes"]
	assert.Equal(t, int64(2), img.Count)
	assert.Equal(t, 400.0, img.Sum)
	assert.Equal(t, 100.0, img.Last)
	assert.Equal(t, 300.0, img.Max)
}

func TestRecordMetric_Disabled(t *testing.T) {
	_, err := Setup(context.Background(), Config{Enabled: false}, nil)
	require.NoError(t, err)

	RecordMetric(context.Background(), "ignored", 1, nil)
	assert.Empty(t, Snapshot())
	assert.False(t, Enabled())
}

func TestStartSpan_RecordsOutcome(t *testing.T) {
	_, err := Setup(context.Background(), Config{Enabled: true}, nil)
	require.NoError(t, err)

	_, end := StartSpan(context.Background(), "model", "describe")
	end(errors.New("boom"))
	_, end = StartSpan(context.Background(), "model", "describe")
	end(nil)

	snap := Snapshot()
	assert.Equal(t, int64(1), snap["model.describe.ms{outcome=error}"].Count)
	assert.Equal(t, int64(1), snap["model.describe.ms{outcome=ok}"].Count)
}

func TestMetricKey_SortsLabels(t *testing.T) {
	assert.Equal(t, "m{a=1,b=2}", metricKey("m", map[string]string{"b": "2", "a": "1"}))
	assert.Equal(t, "m", metricKey("m", nil))
}
