package app

import (
	"context"
	"testing"

	"alcyxob/intern-platform/internal/config"
	"alcyxob/intern-platform/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenStore_Memory(t *testing.T) {
	store, err := OpenStore(config.DatabaseConfig{Driver: "memory"})
	require.NoError(t, err)
	assert.Nil(t, store.DB)
	assert.NotNil(t, store.Repos.Plans)
	assert.NoError(t, store.EnsureIndexes(context.Background()))
	assert.NoError(t, store.Close())
}

func TestOpenStore_UnknownDriver(t *testing.T) {
	_, err := OpenStore(config.DatabaseConfig{Driver: "cassandra"})
	assert.ErrorContains(t, err, "unknown database driver")
}

func TestNewServices_MockProvider(t *testing.T) {
	store, err := OpenStore(config.DatabaseConfig{Driver: "memory"})
	require.NoError(t, err)
	cfg := &config.Config{
		LLM:       config.LLMConfig{Provider: "mock"},
		StudyPlan: config.DefaultStudyPlanConfig(),
	}
	svc, err := NewServices(context.Background(), cfg, store, logger.Nop())
	require.NoError(t, err)
	assert.NotNil(t, svc.Plans)
	assert.NotNil(t, svc.Assistant)

	cfg.LLM.Provider = "hal9000"
	_, err = NewServices(context.Background(), cfg, store, logger.Nop())
	assert.Error(t, err)
}

func TestNewMediaResolver_NoBucket(t *testing.T) {
	media, err := NewMediaResolver(context.Background(), config.S3Config{}, logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, "https://youtu.be/x", media.Resolve(context.Background(), "https://youtu.be/x"))
	assert.Empty(t, media.Resolve(context.Background(), "lessons/x.mp4"))
}
