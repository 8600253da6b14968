package packagebackend

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Noop is an in-memory Backend implementation with no real system
// interaction: every "install" just records a synthetic version in a
// ledger. It exists so STAGE/PRIME flows touching stage-packages and
// overlay-packages can be exercised in tests without a real apt/snap
// system (spec §1 explicitly keeps real OS package backends out of scope).
type Noop struct {
	mu      sync.Mutex
	ledger  map[string]string
	version func(name string) string
}

// NewNoop creates a Noop backend. version, if non-nil, computes the
// synthetic version reported for a package name; it defaults to always
// reporting "0.0.0-noop".
func NewNoop(version func(name string) string) *Noop {
	if version == nil {
		version = func(string) string { return "0.0.0-noop" }
	}
	return &Noop{ledger: map[string]string{}, version: version}
}

var _ Backend = (*Noop)(nil)

func (n *Noop) install(names []string) []InstalledPackage {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]InstalledPackage, 0, len(names))
	for _, name := range names {
		v := n.version(name)
		n.ledger[name] = v
		out = append(out, InstalledPackage{Name: name, Version: v})
	}
	return out
}

func (n *Noop) InstallBuildPackages(ctx context.Context, names []string) ([]InstalledPackage, error) {
	return n.install(names), nil
}

func (n *Noop) DownloadStagePackages(ctx context.Context, names []string, cacheDir string) ([]InstalledPackage, error) {
	return n.install(names), nil
}

func (n *Noop) UnpackStagePackages(ctx context.Context, names []string, cacheDir, destDir string) error {
	return nil
}

func (n *Noop) DownloadOverlayPackages(ctx context.Context, names []string, cacheDir string) ([]InstalledPackage, error) {
	return n.install(names), nil
}

func (n *Noop) InstallInRoot(ctx context.Context, names []string, root string) ([]InstalledPackage, error) {
	return n.install(names), nil
}

// Installed returns a sorted snapshot of every package name the ledger has
// recorded, for test assertions.
func (n *Noop) Installed() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.ledger))
	for name := range n.ledger {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Version reports the ledger's recorded version for name, or an error if
// it was never installed.
func (n *Noop) Version(name string) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	v, ok := n.ledger[name]
	if !ok {
		return "", fmt.Errorf("package %q was never installed", name)
	}
	return v, nil
}
