package audit

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// DirNotifier implements Notifier by writing reports into a local
// directory that the back-office picks up.
type DirNotifier struct {
	dir    string
	logger Logger
}

// NewDirNotifier creates a notifier that delivers reports to dir,
// creating it if needed.
func NewDirNotifier(dir string, logger Logger) (*DirNotifier, error) {
	if dir == "" {
		return nil, fmt.Errorf("export directory not set")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export directory: %w", err)
	}
	return &DirNotifier{dir: dir, logger: logger}, nil
}

// SendDocument writes the report to the export directory.
func (n *DirNotifier) SendDocument(ctx context.Context, filename string, data io.Reader, caption string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path := filepath.Join(n.dir, filepath.Base(filename))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, data); err != nil {
		return fmt.Errorf("write report file: %w", err)
	}

	if n.logger != nil {
		n.logger.Info("Audit report written", "path", path, "caption", caption)
	}
	return nil
}
