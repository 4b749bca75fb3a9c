package main

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildLogger_Default(t *testing.T) {
	t.Parallel()

	logger := buildLogger("")

	assert.True(t, logger.Handler().Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, logger.Handler().Enabled(context.Background(), slog.LevelDebug))
}

func TestBuildLogger_Debug(t *testing.T) {
	t.Parallel()

	logger := buildLogger("debug")

	assert.True(t, logger.Handler().Enabled(context.Background(), slog.LevelDebug))
}

func TestBuildLogger_Warn(t *testing.T) {
	t.Parallel()

	logger := buildLogger("warn")

	assert.True(t, logger.Handler().Enabled(context.Background(), slog.LevelWarn))
	assert.False(t, logger.Handler().Enabled(context.Background(), slog.LevelInfo))
}

func TestBuildLogger_Error(t *testing.T) {
	t.Parallel()

	logger := buildLogger("error")

	assert.True(t, logger.Handler().Enabled(context.Background(), slog.LevelError))
	assert.False(t, logger.Handler().Enabled(context.Background(), slog.LevelWarn))
}

func TestBuildLogger_UnrecognizedDefaultsToInfo(t *testing.T) {
	t.Parallel()

	logger := buildLogger("verbose-please")

	assert.True(t, logger.Handler().Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, logger.Handler().Enabled(context.Background(), slog.LevelDebug))
}

func TestNewRootCmd_RequiresAtLeastOneDescriptor(t *testing.T) {
	t.Parallel()

	cmd := newRootCmd()

	err := cmd.Args(cmd, []string{})
	assert.Error(t, err)

	err = cmd.Args(cmd, []string{"folder:/tmp/a"})
	assert.NoError(t, err)
}
