package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Local is an illustrative source handler for a plain directory or file on
// disk. It supports Update (spec §4.4): a local source can be incrementally
// re-synced without destroying files an override-pull scriptlet produced,
// because re-sync only ever adds or refreshes files copied from Location —
// it never deletes anything it didn't itself create on a prior run.
type Local struct{}

var _ Handler = Local{}
var _ Updatable = Local{}

// LocalTypeKey is the explicit source-type this handler registers under.
const LocalTypeKey = "local"

func (Local) Pull(ctx context.Context, dest string, ref Refinement) error {
	return copyTree(ref.Location, dest)
}

func (Local) Update(ctx context.Context, dest string, ref Refinement) error {
	return copyTree(ref.Location, dest)
}

func copyTree(src, dest string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("local source %q: %w", src, err)
	}
	if !info.IsDir() {
		if err := os.MkdirAll(dest, 0o755); err != nil {
			return err
		}
		return copyFile(src, filepath.Join(dest, filepath.Base(src)))
	}

	return filepath.Walk(src, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)
		if fi.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
