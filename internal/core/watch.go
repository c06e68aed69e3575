package core

import (
	"context"
	"errors"
	"time"

	"github.com/joseph-ayodele/order-tracker/internal/ingest"
)

// Watch runs an initial batch and then processes documents as they
// appear in the document directory, one batch per quiet period. It
// returns nil when ctx is cancelled and the first store failure otherwise.
func (b *Batch) Watch(ctx context.Context, debounce time.Duration) error {
	if _, err := b.Run(ctx); err != nil {
		return err
	}

	paths, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Root:      b.cfg.DocumentDir,
		Recursive: b.cfg.Recursive,
		Debounce:  debounce,
	}, b.logger)
	if err != nil {
		return err
	}
	b.logger.Info("watching for new documents", "dir", b.cfg.DocumentDir, "debounce", debounce.String())

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			b.logger.Warn("watcher error", "error", err)
		case batch, ok := <-paths:
			if !ok {
				return nil
			}
			files := make([]ingest.DocumentFile, 0, len(batch))
			for _, p := range batch {
				f, err := ingest.DescribeFile(p)
				if err != nil {
					b.logger.Warn("document not readable", "path", p, "error", err)
					continue
				}
				files = append(files, f)
			}
			if len(files) == 0 {
				continue
			}
			if _, err := b.RunFiles(ctx, files); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}
		}
	}
}
