// Package plugin defines the contract the engine requires of any build
// plugin (spec §4.3) and a registry of plugins keyed by string.
package plugin

import (
	"context"

	hashiversion "github.com/hashicorp/go-version"
)

// StepInfo carries the read-only paths and environment a plugin needs to
// compute its commands (spec §3: "ProjectInfo / StepInfo").
type StepInfo struct {
	PartName         string
	PartSrc          string
	PartBuild        string
	PartInstall      string
	ArchBuildOn      string
	ArchBuildFor     string
	ParallelBuild    int
}

// Plugin is the pure-query contract a build plugin exposes. A plugin never
// touches the filesystem directly; it only emits shell commands, which the
// executor composes with the step execution environment (spec §6).
type Plugin interface {
	// GetBuildSnaps returns the set of snaps the build environment needs.
	GetBuildSnaps(info StepInfo) []string
	// GetBuildPackages returns the set of system packages the build
	// environment needs.
	GetBuildPackages(info StepInfo) []string
	// GetBuildEnvironment returns extra environment variables to expose to
	// build commands.
	GetBuildEnvironment(info StepInfo) map[string]string
	// GetPullCommands returns optional shell commands to run during PULL,
	// before the source handler populates the source tree.
	GetPullCommands(info StepInfo) []string
	// GetBuildCommands returns the shell commands to run during BUILD.
	GetBuildCommands(info StepInfo) []string
	// GetOutOfSourceBuild reports whether this plugin builds in a separate
	// directory from the source tree.
	GetOutOfSourceBuild() bool
}

// ValidatingPlugin is optionally implemented by plugins that need to check
// for a required toolchain before BUILD executes (spec §4.3: "Environment
// validation (presence of required toolchain) may be performed before
// executing that part's build").
type ValidatingPlugin interface {
	Plugin
	// ValidateEnvironment checks the host toolchain and returns a
	// descriptive error if it doesn't meet the plugin's requirements.
	ValidateEnvironment(ctx context.Context) error
}

// RequireVersionAtLeast is a small helper built on hashicorp/go-version for
// plugins comparing a detected toolchain version against a declared
// minimum, used by ValidateEnvironment implementations.
func RequireVersionAtLeast(detected, minimum string) error {
	d, err := hashiversion.NewVersion(detected)
	if err != nil {
		return err
	}
	m, err := hashiversion.NewVersion(minimum)
	if err != nil {
		return err
	}
	if d.LessThan(m) {
		return &versionTooLowError{detected: detected, minimum: minimum}
	}
	return nil
}

type versionTooLowError struct {
	detected, minimum string
}

func (e *versionTooLowError) Error() string {
	return "toolchain version " + e.detected + " is below required minimum " + e.minimum
}
