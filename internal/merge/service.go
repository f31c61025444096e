package merge

import (
	"context"
	"errors"
	"fmt"
	"incback/internal/model"
	"incback/internal/prior"
	"path/filepath"
)

// Run merges the backups named by paths. A single path that is not itself a
// backup directory is scanned for backups instead. It returns the result and
// the directory merged into.
func Run(ctx context.Context, paths []string, opts Options) (model.Result, string, error) {
	if len(paths) == 0 {
		return model.Result{}, "", errors.New("no backups given")
	}

	var priors []model.PriorBackupPath
	var err error
	if len(paths) == 1 && !prior.IsBackupName(filepath.Base(filepath.Clean(paths[0]))) {
		priors, err = prior.Discover(paths[0])
	} else {
		priors, err = prior.ResolveAll(paths)
	}
	if err != nil {
		return model.Result{}, "", fmt.Errorf("failed to resolve prior backups: %w", err)
	}

	c := NewController(priors, opts)
	return c.Start(ctx), c.TargetDir(), nil
}
