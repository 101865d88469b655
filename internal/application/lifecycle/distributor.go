package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lite-lake/wildcert/internal/constants"
	"github.com/lite-lake/wildcert/internal/domain"
	"github.com/lite-lake/wildcert/internal/domain/valueobject"
	"github.com/lite-lake/wildcert/internal/infrastructure/filesystem"
	"github.com/lite-lake/wildcert/internal/infrastructure/logger"
)

// Distributor copies live certificate material to a flat output directory
// and optionally pushes the copies to a remote host.
type Distributor struct {
	liveDir  string
	uploader Uploader
}

// NewDistributor accepts a nil uploader.
func NewDistributor(liveDir string, uploader Uploader) *Distributor {
	return &Distributor{liveDir: liveDir, uploader: uploader}
}

func (d *Distributor) Distribute(ctx context.Context, domains []string, outputDir string) (*valueobject.Report, error) {
	ctx = logger.WithOperation(ctx, "copy")
	log := logger.FromContext(ctx)
	report := valueobject.NewReport("copy")

	if err := os.MkdirAll(outputDir, constants.DirPermission); err != nil {
		return report, fmt.Errorf("%w: create %s: %w", domain.ErrCopyFailed, outputDir, err)
	}

	for _, name := range domains {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		dctx := logger.WithDomain(ctx, name)

		files, result := d.copyDomain(dctx, name, outputDir)
		report.Add(result)

		if d.uploader == nil || len(files) == 0 {
			continue
		}
		report.Add(d.upload(dctx, name, files))
	}

	log.Info("copy finished", "output_dir", outputDir, "failed", report.Failed())
	return report, nil
}

// copyDomain returns the files it wrote alongside the result. A missing
// live artifact counts as a failure but does not stop the remaining copies.
func (d *Distributor) copyDomain(ctx context.Context, name, outputDir string) ([]string, *valueobject.DomainResult) {
	log := logger.FromContext(ctx)
	result := &valueobject.DomainResult{Domain: name, Action: valueobject.ActionCopy}

	var written []string
	var errs []error
	for _, a := range valueobject.Artifacts {
		src := a.LivePath(d.liveDir, name)
		dst := filepath.Join(outputDir, a.OutputName(name))
		if err := filesystem.CopyFile(src, dst, artifactPerm(a)); err != nil {
			log.Error("copy failed", "src", src, "dst", dst, "error", err)
			errs = append(errs, err)
			continue
		}
		log.Debug("copied", "src", src, "dst", dst)
		written = append(written, dst)
	}

	if len(errs) > 0 {
		result.Message = fmt.Sprintf("%d of %d files copied", len(written), len(valueobject.Artifacts))
		result.Err = domain.WrapEntity("domain", name, fmt.Errorf("%w: %w", domain.ErrCopyFailed, errors.Join(errs...)))
		return written, result
	}
	result.Message = fmt.Sprintf("copied to %s", outputDir)
	log.Info("certificate files copied", "output_dir", outputDir)
	return written, result
}

func (d *Distributor) upload(ctx context.Context, name string, files []string) *valueobject.DomainResult {
	result := &valueobject.DomainResult{Domain: name, Action: valueobject.ActionUpload}
	err := logger.TimedOperation(ctx, "upload", func() error {
		return d.uploader.Upload(ctx, files)
	})
	if err != nil {
		result.Message = "upload failed"
		result.Err = domain.WrapEntity("domain", name, err)
		return result
	}
	result.Message = fmt.Sprintf("uploaded to %s", d.uploader.Target())
	return result
}
