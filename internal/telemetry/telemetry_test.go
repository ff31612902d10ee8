package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_Disabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{ServiceName: "wedgo"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
