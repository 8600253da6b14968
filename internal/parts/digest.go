package parts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/canonical/craft-parts-go/internal/checksum"
	"github.com/canonical/craft-parts-go/internal/step"
)

// PropertiesDigest computes a canonical hash over the subset of a part's
// fields that affect a given step (spec §3: PartState "properties digest").
// Only fields relevant to stepKind are included, so an unrelated field
// change (e.g. a stage filter tweak) does not dirty PULL's digest.
func (p *Part) PropertiesDigest(stepKind step.Step) string {
	fields := map[string]string{
		"name":   p.Name,
		"plugin": p.Plugin,
	}
	switch stepKind {
	case step.Pull:
		fields["source"] = p.Source.Location
		fields["source-type"] = p.Source.Type
		fields["source-branch"] = p.Source.Branch
		fields["source-tag"] = p.Source.Tag
		fields["source-commit"] = p.Source.Commit
		fields["source-depth"] = fmt.Sprint(p.Source.Depth)
		fields["source-subdir"] = p.Source.Subdir
		fields["source-submodules"] = fmt.Sprint(p.Source.Submodules)
		fields["source-checksum"] = p.Source.Checksum
		fields["source-channel"] = p.Source.Channel
		fields["override-pull"] = p.Scriptlets["override-pull"]
	case step.Overlay:
		fields["overlay-packages"] = joinSorted(p.OverlayPackages)
		fields["overlay-script"] = p.OverlayScript
		fields["overlay-filter"] = joinSorted([]string(p.OverlayFilter))
	case step.Build:
		fields["build-packages"] = joinSorted(p.BuildPackages)
		fields["build-snaps"] = joinSorted(p.BuildSnaps)
		fields["override-build"] = p.Scriptlets["override-build"]
		fields["organize"] = organizeKey(p.Organize)
		fields["permissions"] = permissionsKey(p.Permissions)
	case step.Stage:
		fields["stage-packages"] = joinSorted(p.StagePackages)
		fields["stage-snaps"] = joinSorted(p.StageSnaps)
		fields["stage-filter"] = joinSorted([]string(p.StageFilter))
		fields["override-stage"] = p.Scriptlets["override-stage"]
	case step.Prime:
		fields["prime-packages"] = joinSorted(p.PrimePackages)
		fields["prime-filter"] = joinSorted([]string(p.PrimeFilter))
		fields["override-prime"] = p.Scriptlets["override-prime"]
	}
	return checksum.Digest256(fields)
}

// SourceDigest hashes only the source-descriptor fields of a part,
// excluding override-pull — used by the sequencer to distinguish a
// source-only delta (eligible for UPDATE on an updatable source handler)
// from an override-pull scriptlet change (which always requires a full
// RERUN, spec §4.7).
func (p *Part) SourceDigest() string {
	return checksum.Digest256(map[string]string{
		"source":            p.Source.Location,
		"source-type":       p.Source.Type,
		"source-branch":     p.Source.Branch,
		"source-tag":        p.Source.Tag,
		"source-commit":     p.Source.Commit,
		"source-depth":      fmt.Sprint(p.Source.Depth),
		"source-subdir":     p.Source.Subdir,
		"source-submodules": fmt.Sprint(p.Source.Submodules),
		"source-checksum":   p.Source.Checksum,
		"source-channel":    p.Source.Channel,
	})
}

func joinSorted(ss []string) string {
	cp := append([]string{}, ss...)
	sort.Strings(cp)
	return strings.Join(cp, ",")
}

func organizeKey(entries []OrganizeEntry) string {
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = e.From + "=>" + e.To
	}
	return strings.Join(parts, ";")
}

func permissionsKey(rules []PermissionRule) string {
	parts := make([]string, len(rules))
	for i, r := range rules {
		owner, group := "", ""
		if r.Owner != nil {
			owner = fmt.Sprint(*r.Owner)
		}
		if r.Group != nil {
			group = fmt.Sprint(*r.Group)
		}
		parts[i] = fmt.Sprintf("%s:%s:%s:%s", r.Path, owner, group, r.Mode)
	}
	sort.Strings(parts)
	return strings.Join(parts, ";")
}
