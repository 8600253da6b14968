// Package overlay implements the overlay layer stack: per-part layer
// records chained by content-addressed hash, and a scoped mount resource
// used while a part's overlay-script runs (spec §3, §4.6).
package overlay

import (
	"sort"

	"github.com/canonical/craft-parts-go/internal/checksum"
)

// LayerRecord is the conceptual per-part overlay layer (spec §3): the
// declared overlay-packages (sorted), the overlay-script text, and the
// overlay-filter globs. A part with none of these contributes an empty
// (noop) layer but still advances the hash chain, since layer order must
// remain part-processing order regardless of content.
type LayerRecord struct {
	PartName        string
	OverlayPackages []string
	OverlayScript   string
	OverlayFilter   []string
}

func joinFields(ss []string) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += "\x1f"
		}
		out += s
	}
	return out
}

// Stack is the ordered layer chain for one overlay-enabled run. Hashes are
// appended in part-processing order; HashFor(part) is the chain hash right
// after that part's layer was appended (spec §3: "hash = H(prior_layer_hash ||
// canonical(layer_record))").
type Stack struct {
	baseSeed string
	records  []LayerRecord
	hashes   []string
}

// NewStack derives the base-layer seed from the base image identity and
// starts an empty chain.
func NewStack(baseImageIdentity string) *Stack {
	return &Stack{baseSeed: checksum.BaseSeed(baseImageIdentity)}
}

// Append adds a part's layer record to the chain and returns its resulting
// hash.
func (s *Stack) Append(r LayerRecord) string {
	prior := s.baseSeed
	if n := len(s.hashes); n > 0 {
		prior = s.hashes[n-1]
	}
	h := checksum.Chain(prior, map[string]string{
		"part":             r.PartName,
		"overlay-packages": joinFields(sortedCopy(r.OverlayPackages)),
		"overlay-script":   r.OverlayScript,
		"overlay-filter":   joinFields(r.OverlayFilter),
	})
	s.records = append(s.records, r)
	s.hashes = append(s.hashes, h)
	return h
}

// HashFor returns the chain hash recorded immediately after partName's
// layer was appended, and whether that part has been appended at all.
func (s *Stack) HashFor(partName string) (string, bool) {
	for i, r := range s.records {
		if r.PartName == partName {
			return s.hashes[i], true
		}
	}
	return "", false
}

// Len reports how many layers have been appended.
func (s *Stack) Len() int { return len(s.records) }

// ProcessedParts returns the names of parts appended so far, in chain
// order — the set whose layers a mount "up to this part" must merge.
func (s *Stack) ProcessedParts(uptoIndex int) []string {
	out := make([]string, 0, uptoIndex)
	for i := 0; i < uptoIndex && i < len(s.records); i++ {
		out = append(out, s.records[i].PartName)
	}
	return out
}

func sortedCopy(ss []string) []string {
	out := make([]string, len(ss))
	copy(out, ss)
	sort.Strings(out)
	return out
}

// DeclaresOverlay reports whether a part contributes a non-noop overlay
// layer of its own (spec §4.6: "a part sees CRAFT_OVERLAY only if it
// declares overlay parameters...").
func DeclaresOverlay(overlayPackages []string, overlayScript string, overlayFilter []string) bool {
	return len(overlayPackages) > 0 || overlayScript != "" || len(overlayFilter) > 0
}
