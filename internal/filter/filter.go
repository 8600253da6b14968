// Package filter implements the include/exclude glob filter engine applied
// to stage/prime/overlay file trees (spec §4.10).
package filter

import (
	"sort"
	"strings"
	"sync"

	"github.com/gobwas/glob"
	gitignore "github.com/sabhiram/go-gitignore"
)

// Rule is one filter entry: a pattern is either an include or, when
// originally prefixed with "-", an exclude.
type Rule struct {
	Pattern string
	Exclude bool
}

// Filter is a compiled set of include/exclude rules. An empty Filter means
// "everything" (spec §4.10).
type Filter struct {
	rules []Rule

	// baseExcludes is an optional gitignore-flavored pattern list (e.g. a
	// project-wide .craftignore) applied as an additional exclusion layer
	// underneath the per-part stage/prime/overlay filters.
	baseExcludes *gitignore.GitIgnore

	mu     sync.Mutex
	cached map[string]glob.Glob
}

// New compiles a filter from raw pattern strings, where a leading "-" marks
// an exclude pattern (spec §3, §4.10).
func New(patterns []string) *Filter {
	f := &Filter{cached: map[string]glob.Glob{}}
	for _, p := range patterns {
		if strings.HasPrefix(p, "-") {
			f.rules = append(f.rules, Rule{Pattern: strings.TrimPrefix(p, "-"), Exclude: true})
		} else {
			f.rules = append(f.rules, Rule{Pattern: p, Exclude: false})
		}
	}
	return f
}

// WithBaseExcludes layers a gitignore-style pattern list (compiled with
// github.com/sabhiram/go-gitignore) underneath this filter's own rules: a
// path matching the base excludes is always rejected regardless of the
// per-part include/exclude outcome.
func (f *Filter) WithBaseExcludes(lines []string) *Filter {
	f.baseExcludes = gitignore.CompileIgnoreLines(lines...)
	return f
}

// Empty reports whether the filter has no rules at all, in which case
// every path is included (spec §4.10: "An empty filter list for
// stage/prime means 'everything'").
func (f *Filter) Empty() bool { return len(f.rules) == 0 }

// Match reports whether relPath (a "/"-separated path relative to the tree
// root) is included by the filter. Order of entries is irrelevant (spec
// §4.10): the result is computed by finding each rule's best (most
// specific) match against relPath or one of its ancestor directories —
// directories match implies their entire subtree is included/excluded —
// and letting the most specific rule win; ties favor exclusion, matching
// the stated "literal exclusion beats wildcard inclusion" rule generalized
// to any same-specificity tie.
func (f *Filter) Match(relPath string) bool {
	if f.baseExcludes != nil && f.baseExcludes.MatchesPath(relPath) {
		return false
	}
	if f.Empty() {
		return true
	}

	bestIncludeScore, includeMatched := -1, false
	bestExcludeScore, excludeMatched := -1, false

	for _, r := range f.rules {
		if !f.matchesPathOrAncestor(r.Pattern, relPath) {
			continue
		}
		score := specificity(r.Pattern)
		if r.Exclude {
			excludeMatched = true
			if score > bestExcludeScore {
				bestExcludeScore = score
			}
		} else {
			includeMatched = true
			if score > bestIncludeScore {
				bestIncludeScore = score
			}
		}
	}

	if !includeMatched && !excludeMatched {
		return false
	}
	if excludeMatched && bestExcludeScore >= bestIncludeScore {
		return false
	}
	return includeMatched
}

// Included filters a full candidate path list down to those Match accepts,
// preserving input order.
func (f *Filter) Included(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if f.Match(p) {
			out = append(out, p)
		}
	}
	return out
}

// matchesPathOrAncestor reports whether pattern matches relPath itself, or
// matches one of relPath's ancestor directories — since a pattern matching
// a directory implicitly includes (or excludes) everything beneath it.
func (f *Filter) matchesPathOrAncestor(pattern, relPath string) bool {
	patternComps := strings.Split(pattern, "/")
	pathComps := strings.Split(relPath, "/")
	for n := 1; n <= len(pathComps); n++ {
		if f.componentMatch(patternComps, pathComps[:n]) {
			return true
		}
	}
	return false
}

func (f *Filter) componentMatch(pattern, candidate []string) bool {
	if len(pattern) == 0 {
		return len(candidate) == 0
	}
	head := pattern[0]
	if head == "**" {
		for i := 0; i <= len(candidate); i++ {
			if f.componentMatch(pattern[1:], candidate[i:]) {
				return true
			}
		}
		return false
	}
	if len(candidate) == 0 {
		return false
	}
	if !f.compMatch(head, candidate[0]) {
		return false
	}
	return f.componentMatch(pattern[1:], candidate[1:])
}

func (f *Filter) compMatch(pattern, component string) bool {
	f.mu.Lock()
	g, ok := f.cached[pattern]
	if !ok {
		var err error
		g, err = glob.Compile(pattern)
		if err != nil {
			// An uncompilable component pattern is compared literally
			// rather than panicking a filter pass over an entire tree.
			g = nil
		}
		f.cached[pattern] = g
	}
	f.mu.Unlock()
	if g == nil {
		return pattern == component
	}
	return g.Match(component)
}

// specificity scores a pattern so that literal path components outweigh
// single-component wildcards, which in turn outweigh "**". Used to resolve
// overlapping include/exclude rules (spec §4.10: "most-specific pattern
// wins").
func specificity(pattern string) int {
	score := 0
	for _, c := range strings.Split(pattern, "/") {
		switch {
		case c == "**":
			score += 0
		case c == "*":
			score += 1
		case strings.ContainsAny(c, "*?["):
			score += 2 + len(c)
		default:
			score += 10 + len(c)
		}
	}
	return score
}

// SortedIncluded is a convenience for callers that want deterministic
// output ordering after filtering.
func (f *Filter) SortedIncluded(paths []string) []string {
	out := f.Included(paths)
	sort.Strings(out)
	return out
}
