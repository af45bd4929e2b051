package app

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homescout/server/config"
	"homescout/server/internal/models"
	"homescout/server/internal/search"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Database.DSN = fmt.Sprintf("file:app-%s?mode=memory&cache=shared", uuid.NewString())
	cfg.Log.Level = "debug"
	cfg.Log.Format = "text"
	return cfg
}

func TestNewLogger(t *testing.T) {
	cfg := testConfig()
	logger := NewLogger(cfg)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)

	cfg.Log.Level = "chatty"
	cfg.Log.Format = "json"
	logger = NewLogger(cfg)
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)
}

func TestPipelineWithoutKeysUsesGeneratedListings(t *testing.T) {
	cfg := testConfig()
	p, err := NewPipeline(cfg, NewLogger(cfg))
	require.NoError(t, err)
	defer p.Close()

	props, origin, err := p.Search.SearchWithOrigin(context.Background(), models.SearchQuery{Location: "Austin, TX", Limit: 4})
	require.NoError(t, err)
	assert.Equal(t, search.OriginMock, origin)
	assert.Len(t, props, 4)

	top, err := p.SearchLog.TopLocations(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "Austin, TX", top[0].Location)
}
