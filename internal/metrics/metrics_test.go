package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestGaugesAreSettable(t *testing.T) {
	HubConnectedClients.Set(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(HubConnectedClients))

	HubActiveRooms.Set(2)
	assert.Equal(t, 2.0, testutil.ToFloat64(HubActiveRooms))

	HubConnectedClients.Set(0)
	HubActiveRooms.Set(0)
}

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(ProtocolFaultsTotal)
	ProtocolFaultsTotal.Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(ProtocolFaultsTotal))
}

func TestLabelledCounters(t *testing.T) {
	before := testutil.ToFloat64(MessagesRoutedTotal.WithLabelValues("HEARTBEAT"))
	MessagesRoutedTotal.WithLabelValues("HEARTBEAT").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(MessagesRoutedTotal.WithLabelValues("HEARTBEAT")))

	before = testutil.ToFloat64(DisconnectsTotal.WithLabelValues("idle_timeout"))
	DisconnectsTotal.WithLabelValues("idle_timeout").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(DisconnectsTotal.WithLabelValues("idle_timeout")))
}
