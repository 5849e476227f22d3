package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Updates(t *testing.T) {
	m := New()

	m.SetStep(42)
	m.SetStepCount(750)
	m.SetState(1)
	m.SubscriberAttached()
	m.SubscriberAttached()
	m.SubscriberDetached()
	m.FrameSent("static")
	m.FrameSent("step")
	m.FrameSent("step")
	m.DeliveryFailed()

	assert.Equal(t, 42.0, testutil.ToFloat64(m.currentStep))
	assert.Equal(t, 750.0, testutil.ToFloat64(m.stepCount))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.state))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.subscribers))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.attaches))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.framesSent.WithLabelValues("step")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.deliveryFails))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.SetStep(1)
	m.SubscriberAttached()
	m.FrameSent("step")
	m.DeliveryFailed()
	assert.Nil(t, m.Registry())
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.SetStep(7)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "matchcast_current_step 7")
}
