package logging

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devcoregroup/lox/backend/internal/config"
)

func TestNew(t *testing.T) {
	log, err := New(config.LogConfig{Level: "debug", Format: "json"})
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, log.Level)
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)

	_, err = New(config.LogConfig{Level: "chatty", Format: "text"})
	assert.Error(t, err)
}

func TestContextRoundTrip(t *testing.T) {
	assert.Equal(t, logrus.StandardLogger(), FromContext(context.Background()))

	logger, _ := test.NewNullLogger()
	entry := logger.WithField("request", "r1")
	ctx := WithLogger(context.Background(), entry)
	assert.Equal(t, entry, FromContext(ctx))
}
