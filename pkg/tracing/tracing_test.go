package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetup_EmptyEndpointIsNoop(t *testing.T) {
	shutdown, err := Setup(context.Background(), "", "leavesync", "fetch")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
