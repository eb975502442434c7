// Package policy picks one legal intent on behalf of an automated seat.
//
// The pipeline renders the seat's redacted view, compacts it to per-request
// sequential card ids, enumerates legal candidates and, when more than one
// survives the shortcuts, asks an external chooser to pick by candidate id.
// The chooser call is the pipeline's only suspension point. Everything the
// pipeline shows the chooser goes through an audit interface first; logging
// itself lives with the caller.
package policy

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/baizegames/parlor/candidates"
	"github.com/baizegames/parlor/engine"
	"github.com/baizegames/parlor/view"
)

// PolicyError is the typed failure of the selection pipeline: no legal
// intent, a chooser breakdown, or an unresolvable choice. The caller
// decides whether to retry the turn or surface a fatal table error.
type PolicyError struct {
	Detail string
	Err    error
}

func (e *PolicyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("policy: %s: %v", e.Detail, e.Err)
	}
	return "policy: " + e.Detail
}

func (e *PolicyError) Unwrap() error { return e.Err }

// Option is one candidate as shown to the chooser.
type Option struct {
	ID      string `json:"id"`
	Summary string `json:"summary"`
}

// RequestContext carries the optional natural-language recap supplied by
// the rule module.
type RequestContext struct {
	Recap []string `json:"recap,omitempty"`
}

// Request is the full chooser-facing payload.
type Request struct {
	View          CompactView    `json:"view"`
	Context       RequestContext `json:"context"`
	RulesMarkdown string         `json:"rulesMarkdown,omitempty"`
	Candidates    []Option       `json:"candidates"`
}

// Chooser picks one candidate id from a request. Implementations may block
// on the network and must honor ctx.
type Chooser interface {
	Choose(ctx context.Context, req Request) (string, error)
}

// Auditor records pipeline steps for post-hoc inspection. Implementations
// must not fail the turn; an audit loss is theirs to log.
type Auditor interface {
	Append(ctx context.Context, gameID, kind string, payload any)
}

// Pipeline drives automated seats. Zero value plus a Chooser is usable;
// FirstCandidate short-circuits the chooser for deterministic tests and
// local play.
type Pipeline struct {
	Chooser        Chooser
	Auditor        Auditor
	FirstCandidate bool
	// Timeout bounds the one chooser call. Zero leaves only the caller's
	// context in charge.
	Timeout time.Duration
}

// SelectIntent picks one legal intent for the player. The returned intent
// carries real card ids, ready for Validate and Apply. Corrupt-state errors
// from enumeration pass through untouched; every policy-level failure is a
// *PolicyError.
func (p *Pipeline) SelectIntent(ctx context.Context, mod engine.Ruleset, t *engine.Table, playerID string) (engine.Intent, error) {
	reqID := uuid.NewString()
	compact, compactor := Compact(view.Render(t, mod, playerID, nil))

	intents, err := candidates.Enumerate(mod, t, playerID)
	if err != nil {
		return engine.Intent{}, err
	}
	cands := candidates.Build(t, intents, compactor)
	p.audit(ctx, t.ID, reqID, "candidates", options(cands))

	if len(cands) == 0 {
		p.audit(ctx, t.ID, reqID, "outcome", outcomeRecord{Mode: "none"})
		return engine.Intent{}, &PolicyError{Detail: "no legal intent for " + playerID}
	}
	if p.FirstCandidate {
		pick := firstNonPass(cands)
		p.audit(ctx, t.ID, reqID, "outcome", outcomeRecord{Mode: "first-candidate", Candidate: pick.ID})
		return pick.Intent, nil
	}
	if len(cands) == 1 {
		p.audit(ctx, t.ID, reqID, "outcome", outcomeRecord{Mode: "single", Candidate: cands[0].ID})
		return cands[0].Intent, nil
	}
	if p.Chooser == nil {
		return engine.Intent{}, &PolicyError{Detail: "no chooser configured"}
	}

	req := Request{View: compact, Candidates: options(cands)}
	if adv, ok := mod.(engine.Adviser); ok {
		req.Context.Recap = adv.Recap(t)
		req.RulesMarkdown = adv.RulesDoc()
	}
	p.audit(ctx, t.ID, reqID, "prompt", req)

	id, err := p.choose(ctx, req)
	if err != nil {
		p.audit(ctx, t.ID, reqID, "outcome", outcomeRecord{Mode: "chooser", Error: err.Error()})
		return engine.Intent{}, &PolicyError{Detail: "chooser failed", Err: err}
	}
	for _, c := range cands {
		if c.ID == id {
			p.audit(ctx, t.ID, reqID, "outcome", outcomeRecord{Mode: "chooser", Candidate: id})
			return c.Intent, nil
		}
	}
	p.audit(ctx, t.ID, reqID, "outcome", outcomeRecord{Mode: "chooser", Error: "unknown candidate " + id})
	return engine.Intent{}, &PolicyError{Detail: fmt.Sprintf("chooser returned unknown candidate %q", id)}
}

// choose runs the pipeline's sole suspension point under its own deadline.
func (p *Pipeline) choose(ctx context.Context, req Request) (string, error) {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}
	return p.Chooser.Choose(ctx, req)
}

func (p *Pipeline) audit(ctx context.Context, gameID, reqID, kind string, payload any) {
	if p.Auditor == nil {
		return
	}
	p.Auditor.Append(ctx, gameID, kind, auditRecord{RequestID: reqID, Data: payload})
}

// firstNonPass returns the first candidate that is not a pass button, or
// the first candidate when passing is all there is.
func firstNonPass(cands []candidates.Candidate) candidates.Candidate {
	for _, c := range cands {
		if c.Intent.Type == engine.IntentAction && c.Intent.Action == engine.ActionPass {
			continue
		}
		return c
	}
	return cands[0]
}

func options(cands []candidates.Candidate) []Option {
	out := make([]Option, len(cands))
	for i, c := range cands {
		out[i] = Option{ID: c.ID, Summary: c.Summary}
	}
	return out
}

type outcomeRecord struct {
	Mode      string `json:"mode"`
	Candidate string `json:"candidate,omitempty"`
	Error     string `json:"error,omitempty"`
}

// auditRecord is the envelope every audit entry travels in. RequestID ties
// the candidates, prompt and outcome rows of one selection together.
type auditRecord struct {
	RequestID string `json:"requestId"`
	Data      any    `json:"data,omitempty"`
}
