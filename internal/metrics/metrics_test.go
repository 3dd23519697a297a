package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveBackend(t *testing.T) {
	okBefore := testutil.ToFloat64(BackendRequestsTotal.WithLabelValues("select", "ok"))
	errBefore := testutil.ToFloat64(BackendRequestsTotal.WithLabelValues("select", "error"))

	ObserveBackend("select", time.Now(), nil)
	ObserveBackend("select", time.Now(), errors.New("boom"))
	ObserveBackend("select", time.Now(), errors.New("boom"))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(BackendRequestsTotal.WithLabelValues("select", "ok")))
	assert.Equal(t, errBefore+2, testutil.ToFloat64(BackendRequestsTotal.WithLabelValues("select", "error")))
}

func TestRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	assert.NotPanics(t, func() { Register(reg) })
	assert.Panics(t, func() { Register(reg) })
}
