package state

import "github.com/canonical/craft-parts-go/internal/step"

type key struct {
	part string
	step step.Step
}

// Pass memoizes Classify results for a single planning pass, so that a
// wide dependency graph does not re-walk the same (part, step) repeatedly
// while propagating a RERUN decision through many dependents (spec §4.9:
// "memoize per (part, step) within a single planning pass").
type Pass struct {
	mgr  *Manager
	memo map[key]result
}

type result struct {
	status Status
	reason string
}

// NewPass starts a fresh memoization scope over mgr for one sequencer run.
func NewPass(mgr *Manager) *Pass {
	return &Pass{mgr: mgr, memo: map[key]result{}}
}

// Classify is Manager.Classify, cached for the lifetime of this Pass.
func (p *Pass) Classify(partName string, s step.Step, currentProperties, currentProjectOptions string, upstreamRerun bool, upstreamReason string) (Status, string) {
	k := key{part: partName, step: s}
	if r, ok := p.memo[k]; ok {
		return r.status, r.reason
	}
	status, reason := p.mgr.Classify(partName, s, currentProperties, currentProjectOptions, upstreamRerun, upstreamReason)
	p.memo[k] = result{status: status, reason: reason}
	return status, reason
}

// Forget drops any cached result for (partName, s), used when a caller
// discovers new upstream information (e.g. a dependency's STAGE was just
// found to have re-run) and must recompute rather than trust a stale
// memoized SKIP/Clean verdict.
func (p *Pass) Forget(partName string, s step.Step) {
	delete(p.memo, key{part: partName, step: s})
}
