// Package dirs computes the canonical on-disk path layout for a craft-parts
// work directory (spec §4.1): per-part src/build/install/overlay/state
// areas, the shared stage/prime trees, and their partitioned variants.
package dirs

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// DefaultPartition is the name of the partition that must always be
// present and must sort first in a configured partition list.
const DefaultPartition = "default"

var partitionNameRe = regexp.MustCompile(`^[a-z][a-z0-9]*(/[a-z][a-z0-9]*)*$`)

// ValidatePartitionName checks a partition name (optionally namespaced with
// "/") against spec §4.1's naming rule: lowercase alphabetic, digits
// permitted, namespaces separated by "/".
func ValidatePartitionName(name string) error {
	if name == DefaultPartition {
		return nil
	}
	if !partitionNameRe.MatchString(name) {
		return fmt.Errorf("invalid partition name %q: must be lowercase alphanumeric, optionally namespaced with /", name)
	}
	return nil
}

// EnvName converts a partition name into the uppercase, underscore form
// used in CRAFT_<PARTITION>_STAGE-style environment variable names.
func EnvName(partition string) string {
	upper := strings.ToUpper(partition)
	upper = strings.ReplaceAll(upper, "-", "_")
	upper = strings.ReplaceAll(upper, "/", "_")
	return upper
}

// ProjectDirs computes the top-level layout rooted at a work directory.
type ProjectDirs struct {
	WorkDir          string
	Partitions       []string
	PartitionsEnable bool
}

// New creates a ProjectDirs. If partitions is empty, partitioning is
// disabled and stage/prime are not namespaced. When non-empty, partitions[0]
// must equal DefaultPartition (spec §4.1: "the default partition must be
// first in the configured list").
func New(workDir string, partitions []string) (*ProjectDirs, error) {
	if len(partitions) > 0 {
		if partitions[0] != DefaultPartition {
			return nil, fmt.Errorf("default partition must be first in the configured partition list, got %v", partitions)
		}
		seen := map[string]bool{}
		for _, p := range partitions {
			if err := ValidatePartitionName(p); err != nil {
				return nil, err
			}
			if seen[p] {
				return nil, fmt.Errorf("duplicate partition name %q", p)
			}
			seen[p] = true
		}
	}
	return &ProjectDirs{
		WorkDir:          workDir,
		Partitions:       partitions,
		PartitionsEnable: len(partitions) > 0,
	}, nil
}

// PartsDir is <work>/parts.
func (p *ProjectDirs) PartsDir() string { return filepath.Join(p.WorkDir, "parts") }

// OverlayDir is <work>/overlay.
func (p *ProjectDirs) OverlayDir() string { return filepath.Join(p.WorkDir, "overlay") }

// OverlayLayerDir is <work>/overlay/layer — the consolidated top-of-stack
// mount point.
func (p *ProjectDirs) OverlayLayerDir() string { return filepath.Join(p.OverlayDir(), "layer") }

// OverlayPartLayerDir is the per-part writable layer directory,
// <work>/overlay/overlay/<part>.
func (p *ProjectDirs) OverlayPartLayerDir(part string) string {
	return filepath.Join(p.OverlayDir(), "overlay", part)
}

// OverlayPackagesDir is <work>/overlay/packages, the overlay-packages
// download cache.
func (p *ProjectDirs) OverlayPackagesDir() string { return filepath.Join(p.OverlayDir(), "packages") }

// StageDir is the default partition's stage tree, <work>/stage.
func (p *ProjectDirs) StageDir() string { return p.PartitionStageDir(DefaultPartition) }

// PrimeDir is the default partition's prime tree, <work>/prime.
func (p *ProjectDirs) PrimeDir() string { return p.PartitionPrimeDir(DefaultPartition) }

// PartitionStageDir is the stage tree for a given partition. For the
// default partition, or for any partition when partitioning is disabled,
// this is <work>/stage; otherwise <work>/partitions/<ns?>/<name>/stage.
func (p *ProjectDirs) PartitionStageDir(partition string) string {
	return p.partitionRoot(partition, "stage")
}

// PartitionPrimeDir is the prime tree for a given partition.
func (p *ProjectDirs) PartitionPrimeDir(partition string) string {
	return p.partitionRoot(partition, "prime")
}

func (p *ProjectDirs) partitionRoot(partition, leaf string) string {
	if !p.PartitionsEnable || partition == DefaultPartition {
		return filepath.Join(p.WorkDir, leaf)
	}
	return filepath.Join(p.WorkDir, "partitions", filepath.FromSlash(partition), leaf)
}

// PartDirs computes per-part paths under parts/<name>/.
type PartDirs struct {
	Name string
	root string
}

// Part returns the PartDirs for a named part.
func (p *ProjectDirs) Part(name string) *PartDirs {
	return &PartDirs{Name: name, root: filepath.Join(p.PartsDir(), name)}
}

func (d *PartDirs) Root() string      { return d.root }
func (d *PartDirs) Src() string       { return filepath.Join(d.root, "src") }
func (d *PartDirs) SrcWork() string   { return filepath.Join(d.root, "src_work") }
func (d *PartDirs) Build() string     { return filepath.Join(d.root, "build") }
func (d *PartDirs) BuildWork() string { return filepath.Join(d.root, "build_work") }
func (d *PartDirs) Install() string   { return filepath.Join(d.root, "install") }
func (d *PartDirs) Overlay() string   { return filepath.Join(d.root, "overlay") }
func (d *PartDirs) State() string     { return filepath.Join(d.root, "state") }
func (d *PartDirs) Run() string       { return filepath.Join(d.root, "run") }

// SplitPartitionPath splits a "(partition)/relative/path" organize
// destination into its partition name and relative path. If there is no
// "(partition)/" prefix, the default partition is returned.
func SplitPartitionPath(dst string) (partition, rel string) {
	if strings.HasPrefix(dst, "(") {
		if idx := strings.Index(dst, ")"); idx > 0 {
			partition = dst[1:idx]
			rel = strings.TrimPrefix(dst[idx+1:], "/")
			return partition, rel
		}
	}
	return DefaultPartition, dst
}
