package channelmgr

import (
	"context"
	"fmt"

	"github.com/nebulastore/store/pkg/blobstore"
)

// ExportAll copies every channel's data files and transaction log into
// destDir through dest, one "channel_<i>" subdirectory each, for
// pkg/storagemgr's backup path.
func (m *Manager) ExportAll(ctx context.Context, dest blobstore.Connector, destDir string) error {
	for _, ch := range m.channels {
		channelDestDir := fmt.Sprintf("%s/%s%d", destDir, m.cfg.ChannelDirPrefix, ch.Index())
		if err := ch.ExportData(ctx, dest, channelDestDir); err != nil {
			return fmt.Errorf("channelmgr.ExportAll: channel %d: %w", ch.Index(), err)
		}
	}
	return nil
}
