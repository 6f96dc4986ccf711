package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/localbrain/pkg/utils/logging"
)

func TestNewConsole(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := logging.New("info", "console", buf)
	gt.V(t, logger).NotNil()

	logger.Info("test message")
	gt.S(t, buf.String()).Contains("test message")
}

func TestNewJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := logging.New("info", "json", buf)

	logger.Info("structured message", "memory_id", 42)

	var record map[string]any
	gt.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	gt.Equal(t, record["msg"], "structured message")
	gt.Equal[any](t, record["memory_id"], float64(42))
}

func TestLevelFiltering(t *testing.T) {
	testCases := []struct {
		level       string
		expectDebug bool
		expectInfo  bool
	}{
		{"debug", true, true},
		{"info", false, true},
		{"warn", false, false},
		{"WARNING", false, false}, // case-insensitive
		{"invalid", false, true},  // defaults to info
	}

	for _, tc := range testCases {
		t.Run(tc.level, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := logging.New(tc.level, "console", buf)

			logger.Debug("debug message")
			logger.Info("info message")

			output := buf.String()
			if tc.expectDebug {
				gt.S(t, output).Contains("debug message")
			} else {
				gt.S(t, output).NotContains("debug message")
			}
			if tc.expectInfo {
				gt.S(t, output).Contains("info message")
			} else {
				gt.S(t, output).NotContains("info message")
			}
		})
	}
}

func TestWithAndFrom(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := logging.New("debug", "console", buf)

	ctx := logging.With(context.Background(), logger)
	retrieved := logging.From(ctx)
	gt.Equal(t, retrieved, logger)

	retrieved.Info("context message")
	gt.S(t, buf.String()).Contains("context message")
}

func TestFromWithoutLogger(t *testing.T) {
	logger := logging.From(context.Background())
	gt.V(t, logger).NotNil()
}

func TestSetDefault(t *testing.T) {
	original := logging.Default()
	defer logging.SetDefault(original)

	buf := &bytes.Buffer{}
	logging.SetDefault(logging.New("debug", "console", buf))

	logging.From(context.Background()).Info("default message")
	gt.S(t, buf.String()).Contains("default message")
}
