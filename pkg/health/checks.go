package health

import (
	"context"
	"time"
)

// Pinger is satisfied by a storage channel: Ping sends a no-op command
// through the channel's worker queue and blocks until it is acknowledged or
// ctx is done. ChannelLivenessCheck depends only on this interface, not on
// pkg/channel, so pkg/health never imports pkg/channel.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ChannelLivenessCheck verifies that a storage channel's worker loop is
// still processing its command queue by round-tripping a no-op command.
type ChannelLivenessCheck struct {
	Channel int
	Pinger  Pinger
}

func (c *ChannelLivenessCheck) Type() CheckType { return CheckTypeChannelLiveness }

func (c *ChannelLivenessCheck) Check(ctx context.Context) Result {
	start := time.Now()
	err := c.Pinger.Ping(ctx)
	result := Result{
		CheckedAt: start,
		Duration:  time.Since(start),
		Healthy:   err == nil,
	}
	if err != nil {
		result.Message = err.Error()
	} else {
		result.Message = "ok"
	}
	return result
}

// DiskUsage is satisfied by the blob connector rooted at the storage
// directory: AvailableBytes reports headroom on the filesystem backing it.
type DiskUsage interface {
	AvailableBytes() (uint64, error)
}

// DiskSpaceCheck fails once the storage directory's filesystem headroom
// drops below MinAvailableBytes.
type DiskSpaceCheck struct {
	Usage             DiskUsage
	MinAvailableBytes uint64
}

func (c *DiskSpaceCheck) Type() CheckType { return CheckTypeDiskSpace }

func (c *DiskSpaceCheck) Check(ctx context.Context) Result {
	start := time.Now()
	available, err := c.Usage.AvailableBytes()
	result := Result{
		CheckedAt: start,
		Duration:  time.Since(start),
	}
	if err != nil {
		result.Healthy = false
		result.Message = err.Error()
		return result
	}
	result.Healthy = available >= c.MinAvailableBytes
	if result.Healthy {
		result.Message = "ok"
	} else {
		result.Message = "available disk space below threshold"
	}
	return result
}
