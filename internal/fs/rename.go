package fs

import (
	"context"
	"os"
)

// renameWithRetry wraps os.Rename with retry logic.

func renameWithRetry(ctx context.Context, oldPath, newPath string) error {
	return retry(ctx, "rename", func() error {
		return os.Rename(oldPath, newPath)
	})
}
