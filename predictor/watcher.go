package predictor

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// reloadDelay lets a writer finish before the artifact is re-read.
const reloadDelay = 200 * time.Millisecond

// Watch reloads the artifact into p whenever the file at path is created or
// rewritten, until ctx is done. The parent directory is watched so an artifact
// that does not exist yet is picked up once the trainer writes it.
func Watch(ctx context.Context, p *Predictor, modelType, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	target := filepath.Clean(path)
	go func() {
		defer watcher.Close()
		var pending <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					pending = time.After(reloadDelay)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				p.logger.Warn("model watcher error", zap.Error(err))
			case <-pending:
				pending = nil
				p.reload(modelType, path)
			}
		}
	}()
	return nil
}

func (p *Predictor) reload(modelType, path string) {
	model, err := LoadArtifact(modelType, path)
	if err != nil {
		p.logger.Warn("model reload failed, keeping current model", zap.String("path", path), zap.Error(err))
		return
	}
	if err := p.Swap(model); err != nil {
		p.logger.Warn("model rejected", zap.String("path", path), zap.Error(err))
		return
	}
	p.logger.Info("model reloaded", zap.String("path", path))
}
