package sequencer

import (
	"github.com/canonical/craft-parts-go/internal/action"
	"github.com/canonical/craft-parts-go/internal/state"
	"github.com/canonical/craft-parts-go/internal/step"
)

// builder accumulates one Plan's worth of actions and the cross-part
// bookkeeping the interleaving rules need: which parts already had an
// earlier step re-execute this pass, and which parts' STAGE re-executed
// (consulted by their dependents' BUILD classification).
type builder struct {
	sq   *Sequencer
	pass *state.Pass

	rerunFrom  map[string]bool
	stageRerun map[string]bool

	actions []action.Action
}

func (b *builder) plan() action.Plan {
	return action.Plan{Actions: b.actions}
}

func (b *builder) add(part string, s step.Step, kind action.Kind, reason string) {
	b.actions = append(b.actions, action.Action{
		Index:  len(b.actions),
		Part:   part,
		Step:   s,
		Kind:   kind,
		Reason: reason,
	})
	if kind != action.Skip {
		b.rerunFrom[part] = true
	}
}

// classify runs the state manager's classification for (part, s), folding
// in whether an earlier step of the same part already re-ran this pass,
// plus any caller-supplied upstream signal (e.g. a dependency's STAGE
// re-running), and converts the resulting Status into an action.Kind.
func (b *builder) classify(part string, s step.Step, extraUpstream bool, extraReason string) (action.Kind, string) {
	p := b.sq.Graph.Part(part)
	props := p.PropertiesDigest(s)

	upstream := b.rerunFrom[part] || extraUpstream
	reason := extraReason
	if reason == "" && b.rerunFrom[part] {
		reason = "an earlier step of this part was re-executed"
	}

	status, classifyReason := b.pass.Classify(part, s, props, b.sq.ProjectOptionsDigest, upstream, reason)
	if classifyReason != "" {
		reason = classifyReason
	}
	return kindFor(status), reason
}

func kindFor(status state.Status) action.Kind {
	switch status {
	case state.Dirty:
		return action.Run
	case state.Outdated:
		return action.Rerun
	default:
		return action.Skip
	}
}

// addPull classifies and appends the PULL action for part, additionally
// distinguishing a source-only property delta on an updatable source
// handler, which becomes UPDATE rather than a full RERUN (spec §4.4,
// §4.7).
func (b *builder) addPull(part string) {
	p := b.sq.Graph.Part(part)
	props := p.PropertiesDigest(step.Pull)

	rec, ok := b.sq.State.Load(part, step.Pull)
	switch {
	case !ok:
		b.add(part, step.Pull, action.Run, "no recorded state")
		return
	case b.rerunFrom[part]:
		b.add(part, step.Pull, action.Rerun, "an earlier step of this part was re-executed")
		return
	case rec.PropertiesDigest == props && rec.ProjectOptionsDigest == b.sq.ProjectOptionsDigest:
		b.add(part, step.Pull, action.Skip, "")
		return
	}

	sourceDigest := p.SourceDigest()
	overridePull := p.Scriptlets["override-pull"]
	sourceOnly := rec.Assets["source-digest"] != sourceDigest && rec.Assets["override-pull"] == overridePull

	if sourceOnly && b.sq.Updatable != nil && b.sq.Updatable(part) {
		b.add(part, step.Pull, action.Update, "source-only delta, in-place refresh")
		return
	}
	b.add(part, step.Pull, action.Rerun, "properties changed")
}
