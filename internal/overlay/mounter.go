package overlay

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/canonical/craft-parts-go/internal/dirs"
)

// Mounter is the scoped resource an executor acquires before running a
// part's overlay-script and releases on every exit path, success or
// failure (spec §3 "Ownership", §4.6).
type Mounter interface {
	// Acquire merges the base image view with every already-processed
	// part's layer (in chain order) plus partName's own persisted layer,
	// into a single writable root, and returns a release function that
	// persists partName's resulting layer and tears the merged view back
	// down. release must be safe to call exactly once and must never
	// itself fail silently — callers defer it unconditionally.
	Acquire(ctx context.Context, partName string, priorParts []string) (root string, release func() error, err error)
}

// DirMounter is an illustrative Mounter: rather than a real kernel
// overlayfs mount (which would require root/mount namespace capabilities
// the engine cannot assume it has), it emulates layering with plain
// directory copy-up/copy-down, matching how internal/source/local.go
// already moves trees around for the local source handler. Each part's
// resulting merged view becomes its own persisted "layer" directory under
// dirs.OverlayPartLayerDir(part), which later Acquire calls replay in
// order to reconstruct the consolidated view.
type DirMounter struct {
	Dirs    *dirs.ProjectDirs
	BaseDir string

	mu sync.Mutex
}

var _ Mounter = (*DirMounter)(nil)

// NewDirMounter builds a DirMounter rooted at d, optionally seeded from an
// extracted base image tree at baseDir (empty means an empty base).
func NewDirMounter(d *dirs.ProjectDirs, baseDir string) *DirMounter {
	return &DirMounter{Dirs: d, BaseDir: baseDir}
}

func (m *DirMounter) Acquire(ctx context.Context, partName string, priorParts []string) (string, func() error, error) {
	m.mu.Lock()
	root := m.Dirs.OverlayLayerDir()

	if err := os.RemoveAll(root); err != nil {
		m.mu.Unlock()
		return "", nil, fmt.Errorf("overlay mount for %s: clearing view: %w", partName, err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		m.mu.Unlock()
		return "", nil, fmt.Errorf("overlay mount for %s: %w", partName, err)
	}

	if m.BaseDir != "" {
		if err := copyTreeOverwrite(m.BaseDir, root); err != nil {
			m.mu.Unlock()
			return "", nil, fmt.Errorf("overlay mount for %s: base layer: %w", partName, err)
		}
	}
	for _, p := range priorParts {
		layer := m.Dirs.OverlayPartLayerDir(p)
		if _, err := os.Stat(layer); os.IsNotExist(err) {
			continue
		}
		if err := copyTreeOverwrite(layer, root); err != nil {
			m.mu.Unlock()
			return "", nil, fmt.Errorf("overlay mount for %s: layer %s: %w", partName, p, err)
		}
	}
	// This part's own persisted layer (from a prior run) replays last so a
	// re-entrant mount of the same part reflects its previous output.
	own := m.Dirs.OverlayPartLayerDir(partName)
	if _, err := os.Stat(own); err == nil {
		if err := copyTreeOverwrite(own, root); err != nil {
			m.mu.Unlock()
			return "", nil, fmt.Errorf("overlay mount for %s: own layer: %w", partName, err)
		}
	}

	released := false
	release := func() error {
		if released {
			return nil
		}
		released = true
		defer m.mu.Unlock()

		if err := os.RemoveAll(own); err != nil {
			return fmt.Errorf("overlay unmount for %s: %w", partName, err)
		}
		if err := os.MkdirAll(own, 0o755); err != nil {
			return fmt.Errorf("overlay unmount for %s: %w", partName, err)
		}
		if err := copyTreeOverwrite(root, own); err != nil {
			return fmt.Errorf("overlay unmount for %s: persisting layer: %w", partName, err)
		}
		// root is deliberately left in place: it is the consolidated
		// top-of-stack view (spec §4.6: "Overlay files visible to later
		// steps are the consolidated top-of-stack view up to the part most
		// recently processed"), read by non-overlay steps' CRAFT_OVERLAY.
		// The next Acquire call clears and rebuilds it before merging the
		// next part's layer.
		return nil
	}

	return root, release, nil
}

func copyTreeOverwrite(src, dst string) error {
	return filepath.Walk(src, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		target := filepath.Join(dst, rel)
		if fi.IsDir() {
			return os.MkdirAll(target, fi.Mode().Perm())
		}
		return copyFileOverwrite(path, target, fi.Mode().Perm())
	})
}

func copyFileOverwrite(src, dst string, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

// ReadContext carries the bits of overlay state an executor needs when
// deciding whether CRAFT_OVERLAY should be exported for a part (spec
// §4.6).
type ReadContext struct {
	OwnDeclares bool
	DependsOn   bool
}

// Visible reports whether CRAFT_OVERLAY should be exported, per spec
// §4.6: "a part sees CRAFT_OVERLAY only if it declares overlay parameters
// or depends (transitively) on a part that does".
func (r ReadContext) Visible() bool { return r.OwnDeclares || r.DependsOn }
