package reader

import (
	"context"
	"fmt"
	"strings"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"fixtures/internal/source"
)

// FS reads sources relative to the root of fsys. A "file://" prefix is
// accepted and stripped. Missing files surface as fs.ErrNotExist.
func FS(fsys billy.Filesystem) source.ReadFunc {
	return func(ctx context.Context, path string) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		name := strings.TrimPrefix(path, "file://")
		data, err := util.ReadFile(fsys, name)
		if err != nil {
			return "", fmt.Errorf("read file %s: %w", name, err)
		}
		return string(data), nil
	}
}
