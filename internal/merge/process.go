package merge

import (
	"context"
	"errors"
	"fmt"
	"incback/internal/archive"
	"incback/internal/logger"
	"incback/internal/model"
	"os"

	"go.uber.org/zap"
)

// process fills the target of one volume from the older backups, newest
// first, so the most recent copy of every entry wins.
type process struct {
	target *Target
	older  []model.PriorBackupPath
	stats  model.Stats
}

func (p *process) run(ctx context.Context) error {
	for _, prior := range p.older {
		if err := ctx.Err(); err != nil {
			return err
		}

		path := archive.PathFor(prior.FullPath, p.target.Volume)
		r, err := archive.Open(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			logger.Log.Error("skipping unreadable archive",
				zap.String("path", path),
				zap.Error(err))
			p.stats.Failed++
			continue
		}

		err = p.copyFrom(r)
		_ = r.Close()
		if err != nil {
			return fmt.Errorf("failed to merge %s: %w", path, err)
		}
	}

	return nil
}

func (p *process) copyFrom(r *archive.Reader) error {
	for _, f := range r.Files() {
		if p.target.Has(f.Name) {
			p.stats.Skipped++
			continue
		}

		n, err := p.target.Copy(f)
		if err != nil {
			return err
		}

		p.stats.Archived++
		p.stats.Bytes += n
	}

	return nil
}
