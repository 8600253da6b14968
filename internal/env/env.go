// Package env builds the step execution environment exported to every
// scriptlet and plugin command (spec §6).
package env

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/canonical/craft-parts-go/internal/dirs"
)

// Arch carries the host/target architecture description exported as
// CRAFT_ARCH_* (spec §6).
type Arch struct {
	TripletBuildOn  string
	TripletBuildFor string
	DebianBuildOn   string
	DebianBuildFor  string
}

// PartitionView is one partition's stage/prime directories, used to emit
// the CRAFT_[<NS>_]<PARTITION>_STAGE/_PRIME variables (spec §4.1, §6).
type PartitionView struct {
	Name  string
	Stage string
	Prime string
}

// Params is everything needed to materialize one part's step environment.
type Params struct {
	ProjectDir         string
	Arch               Arch
	ParallelBuildCount int
	PartName           string
	PartDirs           *dirs.PartDirs
	// OverlayDir is the CRAFT_OVERLAY value; leave empty when the part has
	// no overlay visibility (spec §4.6).
	OverlayDir string
	Stage      string
	Prime      string
	Partitions []PartitionView
	// ControlSocket is the path to the craftctl Unix-domain socket for
	// this action (spec §6 "Control protocol").
	ControlSocket string
}

// Build returns the full environment as a sorted KEY=VALUE slice, suitable
// for exec.Cmd.Env, following the sorted-deterministic-env-slice pattern
// used throughout this codebase for generated environments.
func Build(p Params) []string {
	vars := map[string]string{
		"CRAFT_ARCH_TRIPLET_BUILD_ON":  p.Arch.TripletBuildOn,
		"CRAFT_ARCH_TRIPLET_BUILD_FOR": p.Arch.TripletBuildFor,
		"CRAFT_ARCH_BUILD_ON":          p.Arch.DebianBuildOn,
		"CRAFT_ARCH_BUILD_FOR":         p.Arch.DebianBuildFor,
		"CRAFT_PARALLEL_BUILD_COUNT":   fmt.Sprint(p.ParallelBuildCount),
		"CRAFT_PROJECT_DIR":            p.ProjectDir,
		"CRAFT_PART_NAME":              p.PartName,
		"CRAFT_STAGE":                  p.Stage,
		"CRAFT_PRIME":                  p.Prime,
	}
	if p.PartDirs != nil {
		vars["CRAFT_PART_SRC"] = p.PartDirs.Src()
		vars["CRAFT_PART_SRC_WORK"] = p.PartDirs.SrcWork()
		vars["CRAFT_PART_BUILD"] = p.PartDirs.Build()
		vars["CRAFT_PART_BUILD_WORK"] = p.PartDirs.BuildWork()
		vars["CRAFT_PART_INSTALL"] = p.PartDirs.Install()
	}
	if p.OverlayDir != "" {
		vars["CRAFT_OVERLAY"] = p.OverlayDir
	}
	if p.ControlSocket != "" {
		vars["CRAFT_CONTROL_SOCKET"] = p.ControlSocket
	}
	for _, part := range p.Partitions {
		ns := dirs.EnvName(part.Name)
		vars[fmt.Sprintf("CRAFT_%s_STAGE", ns)] = part.Stage
		vars[fmt.Sprintf("CRAFT_%s_PRIME", ns)] = part.Prime
	}

	augmentBuildFlags(vars, p)

	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, name+"="+vars[name])
	}
	return out
}

// binSubpaths is the ordered list of PATH subdirectories probed under each
// root (spec §6: "usr/sbin, usr/bin, sbin, bin").
var binSubpaths = []string{"usr/sbin", "usr/bin", "sbin", "bin"}

func includeSubpaths(triplet string) []string {
	out := []string{"usr/include", "include"}
	if triplet != "" {
		out = append(out, filepath.Join("usr", "include", triplet))
	}
	return out
}

func libSubpaths(triplet string) []string {
	out := []string{"usr/lib", "lib"}
	if triplet != "" {
		out = append(out, filepath.Join("usr", "lib", triplet), filepath.Join("lib", triplet))
	}
	return out
}

func pkgconfigSubpaths(triplet string) []string {
	out := []string{filepath.Join("usr", "lib", "pkgconfig"), filepath.Join("usr", "share", "pkgconfig"), filepath.Join("lib", "pkgconfig")}
	if triplet != "" {
		out = append(out, filepath.Join("usr", "lib", triplet, "pkgconfig"))
	}
	return out
}

// augmentBuildFlags prefixes PATH/CPPFLAGS/CFLAGS/CXXFLAGS/LDFLAGS/
// PKG_CONFIG_PATH with every subpath that exists under the part's install
// directory, then its stage directory — install first, then stage, per
// spec §6 (each root in turn, then the existing host value appended last).
func augmentBuildFlags(vars map[string]string, p Params) {
	if p.PartDirs == nil {
		return
	}
	roots := []string{p.PartDirs.Install()}
	if p.Stage != "" {
		roots = append(roots, p.Stage)
	}

	var pathDirs, includeDirs, libDirs, pkgconfigDirs []string
	for _, root := range roots {
		for _, sub := range binSubpaths {
			addIfExists(&pathDirs, filepath.Join(root, sub))
		}
		for _, sub := range includeSubpaths(p.Arch.TripletBuildFor) {
			addIfExists(&includeDirs, filepath.Join(root, sub))
		}
		for _, sub := range libSubpaths(p.Arch.TripletBuildFor) {
			addIfExists(&libDirs, filepath.Join(root, sub))
		}
		for _, sub := range pkgconfigSubpaths(p.Arch.TripletBuildFor) {
			addIfExists(&pkgconfigDirs, filepath.Join(root, sub))
		}
	}

	vars["PATH"] = prefixEnv(pathDirs, os.Getenv("PATH"))

	includeFlags := toFlags(includeDirs, "-I")
	vars["CPPFLAGS"] = prefixFlags(includeFlags, os.Getenv("CPPFLAGS"))
	vars["CFLAGS"] = prefixFlags(includeFlags, os.Getenv("CFLAGS"))
	vars["CXXFLAGS"] = prefixFlags(includeFlags, os.Getenv("CXXFLAGS"))
	vars["LDFLAGS"] = prefixFlags(toFlags(libDirs, "-L"), os.Getenv("LDFLAGS"))
	vars["PKG_CONFIG_PATH"] = prefixEnv(pkgconfigDirs, os.Getenv("PKG_CONFIG_PATH"))
}

func addIfExists(list *[]string, path string) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		*list = append(*list, path)
	}
}

func toFlags(dirsList []string, flag string) []string {
	out := make([]string, len(dirsList))
	for i, d := range dirsList {
		out[i] = flag + d
	}
	return out
}

func prefixEnv(newDirs []string, existing string) string {
	if len(newDirs) == 0 {
		return existing
	}
	if existing == "" {
		return strings.Join(newDirs, string(os.PathListSeparator))
	}
	return strings.Join(newDirs, string(os.PathListSeparator)) + string(os.PathListSeparator) + existing
}

func prefixFlags(newFlags []string, existing string) string {
	if len(newFlags) == 0 {
		return existing
	}
	if existing == "" {
		return strings.Join(newFlags, " ")
	}
	return strings.Join(newFlags, " ") + " " + existing
}
