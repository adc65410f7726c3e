package writer

import (
	"os"
	"path/filepath"

	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/studiomdl/internal/logger"
)

// WriteFiles writes the model to path and each sequence group next to it.
func WriteFiles(path string, out *Output) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return pkgerrors.Wrap(err, "create output directory")
		}
	}
	if err := os.WriteFile(path, out.Model, 0o644); err != nil {
		return pkgerrors.Wrapf(err, "write %s", path)
	}
	logger.Info("wrote model", zap.String("path", path), zap.Int("bytes", len(out.Model)))

	for i, data := range out.Groups {
		name := GroupName(path, i+1)
		if err := os.WriteFile(name, data, 0o644); err != nil {
			return pkgerrors.Wrapf(err, "write %s", name)
		}
		logger.Info("wrote sequence group", zap.String("path", name), zap.Int("bytes", len(data)))
	}
	return nil
}
