package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.BookingsCreated.WithLabelValues("car").Inc()
	m.BookingsRejected.WithLabelValues("SlotConflict").Add(2)
	m.BookingsCancelled.Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.BookingsCreated.WithLabelValues("car")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.BookingsRejected.WithLabelValues("SlotConflict")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BookingsCancelled))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNewPanicsOnDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
