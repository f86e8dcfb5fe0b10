package datafile

import (
	"context"
	"fmt"
)

// ExportTo copies every data file and the transaction log this channel
// owns into destDir through dest, preserving filenames. Used by
// pkg/storagemgr's backup path (SPEC_FULL.md §4.9a); it reads the
// currently-committed chain, so a concurrent store may append bytes this
// export does not capture — acceptable for a best-effort backup, the same
// way a filesystem snapshot can miss an in-flight write.
func (m *Manager) ExportTo(ctx context.Context, dest Connector, destDir string) error {
	if err := dest.CreateDir(ctx, destDir); err != nil {
		return err
	}

	m.mu.Lock()
	numbers := make([]int64, len(m.files))
	for i, f := range m.files {
		numbers[i] = f.number
	}
	m.mu.Unlock()

	for _, number := range numbers {
		srcPath := dataFilePath(m.cfg.ChannelDir, m.channel, number)
		if err := copyFile(ctx, m.conn, dest, srcPath, fmt.Sprintf("%s/data_%d_%d.dat", destDir, m.channel, number)); err != nil {
			return err
		}
	}

	logPath := txLogPath(m.cfg.ChannelDir, m.channel)
	if exists, err := m.conn.FileExists(ctx, logPath); err != nil {
		return err
	} else if exists {
		if err := copyFile(ctx, m.conn, dest, logPath, fmt.Sprintf("%s/transactions_%d.log", destDir, m.channel)); err != nil {
			return err
		}
	}

	return nil
}

func copyFile(ctx context.Context, src, dest Connector, srcPath, destPath string) error {
	size, err := src.FileSize(ctx, srcPath)
	if err != nil {
		return err
	}
	data, err := src.ReadRange(ctx, srcPath, 0, size)
	if err != nil {
		return err
	}
	if err := dest.CreateFile(ctx, destPath); err != nil {
		return err
	}
	_, err = dest.Append(ctx, destPath, data)
	return err
}
