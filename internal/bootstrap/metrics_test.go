package bootstrap

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/multiauth/config"
)

func TestBuildMetrics(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		client, err := BuildMetrics(t.Context(), config.ObservabilityConfig{StatsdAddress: "127.0.0.1:8125"}, discardLogger())
		require.NoError(t, err)
		assert.Nil(t, client)
	})

	t.Run("enabled", func(t *testing.T) {
		pc, err := net.ListenPacket("udp", "127.0.0.1:0")
		require.NoError(t, err)
		t.Cleanup(func() { _ = pc.Close() })

		client, err := BuildMetrics(t.Context(), config.ObservabilityConfig{
			MetricsEnabled: true,
			StatsdAddress:  pc.LocalAddr().String(),
			MetricsPrefix:  "multiauth",
		}, discardLogger())
		require.NoError(t, err)
		require.NotNil(t, client)
		assert.True(t, client.Enabled())
		require.NoError(t, client.Close())
	})
}
