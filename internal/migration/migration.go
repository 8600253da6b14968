// Package migration tracks per-part file and directory ownership within
// the shared stage and prime areas (optionally partitioned), so that
// cleaning one part's contribution removes exactly the paths it
// contributed and nothing else (spec §3 "MigrationState", §4.11).
package migration

import (
	"sort"
	"sync"

	"github.com/canonical/craft-parts-go/internal/errors"
)

// Area distinguishes the two shared destinations a part migrates files
// into.
type Area int

const (
	Stage Area = iota
	Prime
)

func (a Area) String() string {
	if a == Prime {
		return "PRIME"
	}
	return "STAGE"
}

type ownership struct {
	files         []string
	directories   []string
	overlayOrigin bool
}

type areaKey struct {
	area      Area
	partition string
}

// Tracker is the single-writer MigrationState owner (spec §3 "Ownership").
type Tracker struct {
	mu sync.Mutex

	// byPart[areaKey][part] is what that part currently owns in that area.
	byPart map[areaKey]map[string]ownership

	// fileOwner[areaKey][path] is the exclusive (non-overlay-origin) owner
	// of path, used for collision detection.
	fileOwner map[areaKey]map[string]string

	// overlayContributors[areaKey][path] is the set of parts that jointly
	// contributed an overlay-origin file at path; it is removed only once
	// this set becomes empty (spec §3, §4.11).
	overlayContributors map[areaKey]map[string]map[string]bool
}

// NewTracker creates an empty migration Tracker.
func NewTracker() *Tracker {
	return &Tracker{
		byPart:              map[areaKey]map[string]ownership{},
		fileOwner:           map[areaKey]map[string]string{},
		overlayContributors: map[areaKey]map[string]map[string]bool{},
	}
}

// Record registers the files and directories a part contributed to area
// (in the given partition) during this run. When overlayOrigin is true,
// files are treated as jointly owned by every part that records them at
// the same path, rather than exclusively owned (spec §3: "a second
// mapping for files whose origin is the consolidated overlay"); an
// overlay-origin file is removed only when the last contributing part is
// cleaned. Non-overlay files must not already be owned by a different
// part, or Record reports a FileCollisionError.
func (t *Tracker) Record(area Area, partition, part string, files, directories []string, overlayOrigin bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	ak := areaKey{area: area, partition: partition}
	if t.fileOwner[ak] == nil {
		t.fileOwner[ak] = map[string]string{}
	}
	if t.overlayContributors[ak] == nil {
		t.overlayContributors[ak] = map[string]map[string]bool{}
	}

	if !overlayOrigin {
		for _, f := range files {
			if owner, ok := t.fileOwner[ak][f]; ok && owner != part {
				return errors.Classify(part, area.String(), "", "",
					&errors.FileCollisionError{Path: f, PartA: owner, PartB: part, Reason: "both parts migrate this path"})
			}
		}
		for _, f := range files {
			t.fileOwner[ak][f] = part
		}
	} else {
		for _, f := range files {
			if t.overlayContributors[ak][f] == nil {
				t.overlayContributors[ak][f] = map[string]bool{}
			}
			t.overlayContributors[ak][f][part] = true
		}
	}

	if t.byPart[ak] == nil {
		t.byPart[ak] = map[string]ownership{}
	}
	t.byPart[ak][part] = ownership{
		files:         append([]string{}, files...),
		directories:   append([]string{}, directories...),
		overlayOrigin: overlayOrigin,
	}
	return nil
}

// OwnerOf reports the exclusive (non-overlay-origin) owner of path within
// area/partition, if any.
func (t *Tracker) OwnerOf(area Area, partition, path string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	owner, ok := t.fileOwner[areaKey{area: area, partition: partition}][path]
	return owner, ok
}

// Clean removes part's recorded ownership of area/partition and reports
// exactly the file and directory paths that should now be deleted from
// disk: non-overlay files always; overlay-origin files only once part was
// the last remaining contributor (spec §4.11). Directory paths are
// returned as prune candidates — the caller is expected to remove them
// only if they are empty, since another part may still own siblings
// beneath the same directory.
func (t *Tracker) Clean(area Area, partition, part string) (files []string, directories []string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ak := areaKey{area: area, partition: partition}
	rec, ok := t.byPart[ak][part]
	if !ok {
		return nil, nil
	}
	delete(t.byPart[ak], part)

	if !rec.overlayOrigin {
		for _, f := range rec.files {
			if t.fileOwner[ak][f] == part {
				delete(t.fileOwner[ak], f)
			}
		}
		files = append(files, rec.files...)
	} else {
		for _, f := range rec.files {
			contributors := t.overlayContributors[ak][f]
			if contributors == nil {
				continue
			}
			delete(contributors, part)
			if len(contributors) == 0 {
				delete(t.overlayContributors[ak], f)
				files = append(files, f)
			}
		}
	}

	sort.Strings(files)
	directories = append(directories, rec.directories...)
	sort.Sort(sort.Reverse(sort.StringSlice(directories)))
	return files, directories
}

// Partitions reports every partition name that has recorded ownership for
// area, sorted. Used to implement "when partitions are enabled, cleans
// cross all partitions" (spec §4.11).
func (t *Tracker) Partitions(area Area) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	seen := map[string]bool{}
	for ak := range t.byPart {
		if ak.area == area {
			seen[ak.partition] = true
		}
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// CleanAllPartitions cleans part's ownership of area across every
// partition that currently has a record for it, returning the combined
// file/directory paths to remove, grouped by partition.
func (t *Tracker) CleanAllPartitions(area Area, part string) map[string]struct {
	Files       []string
	Directories []string
} {
	result := map[string]struct {
		Files       []string
		Directories []string
	}{}
	for _, partition := range t.Partitions(area) {
		files, dirs := t.Clean(area, partition, part)
		if len(files) == 0 && len(dirs) == 0 {
			continue
		}
		result[partition] = struct {
			Files       []string
			Directories []string
		}{Files: files, Directories: dirs}
	}
	return result
}

// Files returns a sorted snapshot of every path part currently owns in
// area/partition, for test assertions and diagnostics.
func (t *Tracker) Files(area Area, partition, part string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec := t.byPart[areaKey{area: area, partition: partition}][part]
	out := append([]string{}, rec.files...)
	sort.Strings(out)
	return out
}
