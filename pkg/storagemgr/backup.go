package storagemgr

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/nebulastore/store/pkg/events"
	"github.com/nebulastore/store/pkg/types"
)

// CreateBackup assembles a self-describing archive of every channel's data
// files, transaction logs, and the type dictionary file into
// "<dir>/backup_<yyyyMMdd_HHmmss>.bak", per SPEC_FULL.md §4.9a. dir
// overrides the configured BackupDir when non-empty.
//
// Grounded on the teacher's containerd image export path for the
// tar-as-archive-format choice, generalized to a zstd-compressed tar since
// the teacher has no compression step of its own; restoring a backup is out
// of scope (see DESIGN.md's Open Questions) so there is no matching
// ExtractBackup here.
func (m *Manager) CreateBackup(ctx context.Context, dir string) (string, error) {
	if !m.started {
		return "", types.NewError(types.ErrKindNotRunning, "storagemgr.CreateBackup", errNotOpen)
	}
	if dir == "" {
		dir = m.cfg.BackupDir
	}
	if dir == "" {
		return "", types.NewError(types.ErrKindInvalidConfig, "storagemgr.CreateBackup", errBackupDirUnset)
	}

	stagingDir := fmt.Sprintf("backup_staging_%d", time.Now().UnixNano())
	if err := m.channels.ExportAll(ctx, m.conn, stagingDir); err != nil {
		return "", types.NewError(types.ErrKindIORead, "storagemgr.CreateBackup", err)
	}
	if err := m.dict.Save(ctx, m.conn, stagingDir+"/type_dictionary.json"); err != nil {
		return "", types.NewError(types.ErrKindIORead, "storagemgr.CreateBackup", err)
	}

	var buf bytes.Buffer
	zw, err := zstd.NewWriter(&buf)
	if err != nil {
		return "", types.NewError(types.ErrKindIOWrite, "storagemgr.CreateBackup", err)
	}
	tw := tar.NewWriter(zw)

	if err := m.archiveDir(ctx, tw, stagingDir, ""); err != nil {
		return "", types.NewError(types.ErrKindIORead, "storagemgr.CreateBackup", err)
	}
	if err := tw.Close(); err != nil {
		return "", types.NewError(types.ErrKindIOWrite, "storagemgr.CreateBackup", err)
	}
	if err := zw.Close(); err != nil {
		return "", types.NewError(types.ErrKindIOWrite, "storagemgr.CreateBackup", err)
	}

	m.removeDirRecursive(ctx, stagingDir)

	if err := m.conn.CreateDir(ctx, dir); err != nil {
		return "", types.NewError(types.ErrKindIOWrite, "storagemgr.CreateBackup", err)
	}
	name := fmt.Sprintf("backup_%s.bak", time.Now().Format("20060102_150405"))
	path := dir + "/" + name
	if err := m.conn.CreateFile(ctx, path); err != nil {
		return "", types.NewError(types.ErrKindIOWrite, "storagemgr.CreateBackup", err)
	}
	if _, err := m.conn.Append(ctx, path, buf.Bytes()); err != nil {
		return "", types.NewError(types.ErrKindIOWrite, "storagemgr.CreateBackup", err)
	}

	m.publish(events.EventBackupCreated, "backup created", map[string]string{"path": path})
	return path, nil
}

// archiveDir walks conn's staging tree depth-first, writing every regular
// file as one tar entry named by its path relative to the staging root.
func (m *Manager) archiveDir(ctx context.Context, tw *tar.Writer, root, relDir string) error {
	dirPath := root
	if relDir != "" {
		dirPath = root + "/" + relDir
	}

	children, err := m.conn.ListChildren(ctx, dirPath)
	if err != nil {
		return err
	}

	for _, child := range children {
		name := lastSegment(child.Path)
		rel := name
		if relDir != "" {
			rel = relDir + "/" + name
		}

		if child.IsDir {
			if err := m.archiveDir(ctx, tw, root, rel); err != nil {
				return err
			}
			continue
		}

		data, err := m.conn.ReadRange(ctx, child.Path, 0, child.Size)
		if err != nil {
			return err
		}
		if err := tw.WriteHeader(&tar.Header{
			Name: rel,
			Size: int64(len(data)),
			Mode: 0o644,
		}); err != nil {
			return err
		}
		if _, err := tw.Write(data); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) removeDirRecursive(ctx context.Context, dir string) {
	children, err := m.conn.ListChildren(ctx, dir)
	if err != nil {
		return
	}
	for _, child := range children {
		if child.IsDir {
			m.removeDirRecursive(ctx, child.Path)
			continue
		}
		_ = m.conn.Delete(ctx, child.Path)
	}
}

func lastSegment(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}
