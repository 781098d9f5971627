package feature

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/jrsteele09/resumeforge-web/apiclient"
	"golang.org/x/sync/singleflight"
)

// Action is a quota-consuming backend call
type Action func(ctx context.Context) (*apiclient.Artifact, error)

// Runner gates an action and coalesces duplicate submissions. Two calls with
// the same feature and dedupe key that overlap in time share one quota check
// and one backend call, and both receive its result.
type Runner struct {
	gate  *Gate
	group singleflight.Group
}

// NewRunner creates a runner over gate
func NewRunner(gate *Gate) *Runner {
	return &Runner{gate: gate}
}

// Gate returns the underlying gate
func (r *Runner) Gate() *Gate {
	return r.gate
}

// Run checks the feature and, when allowed, runs action. A denial is returned
// as *DeniedError and action is never called. shared reports whether the
// result came from an overlapping identical submission.
//
// A coalesced call is detached from the cancellation of the caller that
// started it, so one abandoned request cannot fail the others. Each caller
// still stops waiting when its own ctx is done. dedupeKey must identify the
// credentials the action runs with: the shared call uses the first caller's.
func (r *Runner) Run(ctx context.Context, key, dedupeKey string, action Action) (artifact *apiclient.Artifact, shared bool, err error) {
	if dedupeKey == "" {
		artifact, err = r.run(ctx, key, action)
		return artifact, false, err
	}

	detached := context.WithoutCancel(ctx)
	results := r.group.DoChan(key+"\x00"+dedupeKey, func() (v any, err error) {
		defer func() {
			if p := recover(); p != nil {
				err = fmt.Errorf("[Runner.Run] %s action panicked: %v", key, p)
			}
		}()
		return r.run(detached, key, action)
	})

	select {
	case res := <-results:
		if res.Err != nil {
			return nil, res.Shared, res.Err
		}
		return res.Val.(*apiclient.Artifact), res.Shared, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

func (r *Runner) run(ctx context.Context, key string, action Action) (*apiclient.Artifact, error) {
	if err := r.gate.Require(ctx, key); err != nil {
		return nil, err
	}
	return action(ctx)
}

// DedupeKey derives a submission key from the caller identity and the inputs
func DedupeKey(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
