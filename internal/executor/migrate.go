package executor

import (
	"os"
	"path/filepath"
	"sort"
)

// migrateFiles copies each path in included from srcRoot into a temporary
// holding area created beside dstRoot, then — only once every file has
// staged successfully — commits the whole batch into dstRoot with renames.
// A failure partway through the first pass leaves dstRoot untouched: the
// holding area is removed and no partial migration is ever visible there
// (spec §9 Open Question (b), resolved as rollback; see DESIGN.md).
//
// Callers must run their collision check against the current migration
// ownership before calling migrateFiles, since this function only knows
// about the filesystem, not part ownership.
func migrateFiles(srcRoot, dstRoot string, included []string) ([]string, error) {
	if err := os.MkdirAll(filepath.Dir(dstRoot), 0o755); err != nil {
		return nil, err
	}

	holding, err := os.MkdirTemp(filepath.Dir(dstRoot), ".craft-migrate-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(holding)

	for _, rel := range included {
		if err := copyOrLink(filepath.Join(srcRoot, rel), filepath.Join(holding, rel)); err != nil {
			return nil, err
		}
	}

	dirSet := map[string]bool{}
	for _, rel := range included {
		dst := filepath.Join(dstRoot, rel)
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return nil, err
		}
		_ = os.Remove(dst)
		if err := os.Rename(filepath.Join(holding, rel), dst); err != nil {
			return nil, err
		}
		for dir := filepath.Dir(rel); dir != "." && dir != "/"; dir = filepath.Dir(dir) {
			dirSet[dir] = true
		}
	}

	dirList := make([]string, 0, len(dirSet))
	for d := range dirSet {
		dirList = append(dirList, d)
	}
	sort.Strings(dirList)
	return dirList, nil
}
