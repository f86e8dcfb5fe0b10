package health_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nebulastore/store/pkg/health"
)

type fakePinger struct {
	err error
}

func (p fakePinger) Ping(_ context.Context) error { return p.err }

type fakeDiskUsage struct {
	available uint64
	err       error
}

func (d fakeDiskUsage) AvailableBytes() (uint64, error) { return d.available, d.err }

func TestChannelLivenessCheckReflectsPingerError(t *testing.T) {
	healthy := health.ChannelLivenessCheck{Channel: 0, Pinger: fakePinger{}}
	result := healthy.Check(context.Background())
	assert.True(t, result.Healthy)
	assert.Equal(t, health.CheckTypeChannelLiveness, healthy.Type())

	unhealthy := health.ChannelLivenessCheck{Channel: 1, Pinger: fakePinger{err: errors.New("stuck")}}
	result = unhealthy.Check(context.Background())
	assert.False(t, result.Healthy)
	assert.Equal(t, "stuck", result.Message)
}

func TestDiskSpaceCheckFailsBelowThreshold(t *testing.T) {
	check := health.DiskSpaceCheck{Usage: fakeDiskUsage{available: 100}, MinAvailableBytes: 1000}
	result := check.Check(context.Background())
	assert.False(t, result.Healthy)
	assert.Equal(t, health.CheckTypeDiskSpace, check.Type())

	check = health.DiskSpaceCheck{Usage: fakeDiskUsage{available: 2000}, MinAvailableBytes: 1000}
	result = check.Check(context.Background())
	assert.True(t, result.Healthy)
}

func TestDiskSpaceCheckSurfacesUsageError(t *testing.T) {
	check := health.DiskSpaceCheck{Usage: fakeDiskUsage{err: errors.New("statfs failed")}}
	result := check.Check(context.Background())
	assert.False(t, result.Healthy)
	assert.Equal(t, "statfs failed", result.Message)
}

func TestStatusBecomesUnhealthyAfterRetryThreshold(t *testing.T) {
	cfg := health.Config{Retries: 3}
	status := health.NewStatus()
	assert.True(t, status.Healthy)

	for i := 0; i < 2; i++ {
		status.Update(health.Result{Healthy: false, CheckedAt: time.Now()}, cfg)
		assert.True(t, status.Healthy, "must stay healthy before reaching the retry threshold")
	}

	status.Update(health.Result{Healthy: false, CheckedAt: time.Now()}, cfg)
	assert.False(t, status.Healthy)

	status.Update(health.Result{Healthy: true, CheckedAt: time.Now()}, cfg)
	assert.True(t, status.Healthy)
	assert.Equal(t, 0, status.ConsecutiveFailures)
}

func TestStatusInStartPeriod(t *testing.T) {
	status := health.NewStatus()
	cfg := health.Config{StartPeriod: time.Hour}
	assert.True(t, status.InStartPeriod(cfg))

	assert.False(t, status.InStartPeriod(health.Config{StartPeriod: 0}))
}
