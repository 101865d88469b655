package lifecycle

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/lite-lake/wildcert/internal/constants"
	"github.com/lite-lake/wildcert/internal/domain/valueobject"
	"github.com/lite-lake/wildcert/internal/infrastructure/filesystem"
	"github.com/lite-lake/wildcert/internal/infrastructure/logger"
)

// BackupManager snapshots a domain's live material under
// <dest>/backups/<timestamp>/ before it is replaced. Snapshots are never pruned.
type BackupManager struct {
	destPath string
	liveDir  string
	now      func() time.Time
}

func NewBackupManager(destPath, liveDir string, now func() time.Time) *BackupManager {
	if now == nil {
		now = time.Now
	}
	return &BackupManager{destPath: destPath, liveDir: liveDir, now: now}
}

// Dir returns the snapshot directory for a given instant.
func (b *BackupManager) Dir(at time.Time) string {
	return filepath.Join(b.destPath, constants.BackupDirName, at.Format(constants.BackupStampLayout))
}

// Backup copies whichever live artifacts exist. Absent artifacts are not a
// failure; a directory or copy I/O error is, and is logged rather than
// returned.
func (b *BackupManager) Backup(ctx context.Context, name string) bool {
	log := logger.FromContext(ctx)
	dir := b.Dir(b.now())

	if err := os.MkdirAll(dir, constants.DirPermission); err != nil {
		log.Error("creating backup directory failed", "dir", dir, "error", err)
		return false
	}

	ok := true
	for _, a := range valueobject.Artifacts {
		src := a.LivePath(b.liveDir, name)
		if _, err := os.Stat(src); err != nil {
			if filesystem.IsNotExist(err) {
				log.Debug("nothing to back up", "file", src)
				continue
			}
			log.Error("backup source unreadable", "file", src, "error", err)
			ok = false
			continue
		}

		dst := filepath.Join(dir, a.OutputName(name))
		if err := filesystem.CopyFile(src, dst, artifactPerm(a)); err != nil {
			log.Error("backup copy failed", "src", src, "dst", dst, "error", err)
			ok = false
			continue
		}
		log.Debug("backup created", "file", dst)
	}
	return ok
}

func artifactPerm(a valueobject.Artifact) os.FileMode {
	if a.Private {
		return constants.FilePermissionOwnerRW
	}
	return constants.FilePermissionPublic
}
