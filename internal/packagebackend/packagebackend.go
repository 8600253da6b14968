// Package packagebackend defines the contract for installing, downloading
// and unpacking system packages and snaps (spec §4.5), plus chisel slice
// handling.
package packagebackend

import (
	"context"
	"strings"
)

// InstalledPackage is a resolved, installed package version reported back
// for state recording (spec §4.5: "The backend reports installed versions
// after install for state recording").
type InstalledPackage struct {
	Name    string
	Version string
}

// Backend is the contract the engine requires of any system package/snap
// backend (apt, dnf, yum, snap, chisel).
type Backend interface {
	// InstallBuildPackages installs packages on the host for use during
	// BUILD.
	InstallBuildPackages(ctx context.Context, names []string) ([]InstalledPackage, error)
	// DownloadStagePackages downloads (without installing) packages into a
	// per-part cache directory, for later unpacking into the part's install
	// directory.
	DownloadStagePackages(ctx context.Context, names []string, cacheDir string) ([]InstalledPackage, error)
	// UnpackStagePackages unpacks previously downloaded stage packages from
	// cacheDir into destDir (a part's install directory).
	UnpackStagePackages(ctx context.Context, names []string, cacheDir, destDir string) error
	// DownloadOverlayPackages downloads packages for use inside an overlay
	// layer's mounted view.
	DownloadOverlayPackages(ctx context.Context, names []string, cacheDir string) ([]InstalledPackage, error)
	// InstallInRoot installs packages with the given root directory as the
	// target filesystem view (used for overlay-packages, spec §4.6:
	// "Package installation runs in the context of the overlay root").
	InstallInRoot(ctx context.Context, names []string, root string) ([]InstalledPackage, error)
}

// SnapInstaller is implemented by backends that can talk to a local snap
// daemon over its Unix socket (spec §4.5).
type SnapInstaller interface {
	InstallSnaps(ctx context.Context, names []string, socketPath string) error
}

// IsChiselSlice reports whether a package name is a chisel slice reference
// (spec §4.5: "chisel slices (names containing `_`)").
func IsChiselSlice(name string) bool {
	return strings.Contains(name, "_")
}

// RequiresChisel reports whether any name in names is a chisel slice. The
// engine does not call it and does not install a "chisel" build-snap.
func RequiresChisel(names []string) bool {
	for _, n := range names {
		if IsChiselSlice(n) {
			return true
		}
	}
	return false
}

// ChiselPackageName returns the underlying package a slice belongs to,
// i.e. the portion before the first "_".
func ChiselPackageName(slice string) string {
	if idx := strings.Index(slice, "_"); idx >= 0 {
		return slice[:idx]
	}
	return slice
}
