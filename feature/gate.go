// Package feature runs the pre-flight quota check before actions that consume
// a plan allowance. The check fails closed: an error talking to the quota
// service is treated exactly like an explicit denial.
package feature

import (
	"context"
	"fmt"

	"github.com/jrsteele09/resumeforge-web/apiclient"
	apperrors "github.com/jrsteele09/resumeforge-web/internal/errors"
	"github.com/rs/zerolog/log"
)

// Checker asks the backend whether a feature is still within allowance
type Checker interface {
	CheckFeature(ctx context.Context, feature string) (*apiclient.FeatureCheck, error)
}

// DeniedError is returned by Require when a feature may not be used
type DeniedError struct {
	Feature Entry
	Cause   error // Set when the check itself failed
}

func (e *DeniedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("feature %s not allowed: check failed: %v", e.Feature.Key, e.Cause)
	}
	return fmt.Sprintf("feature %s not allowed", e.Feature.Key)
}

// Unwrap exposes the failed check's cause alongside ErrFeatureNotAllowed, so a
// 401 during the check is still recognised as a lost session
func (e *DeniedError) Unwrap() []error {
	if e.Cause == nil {
		return []error{apperrors.ErrFeatureNotAllowed}
	}
	return []error{apperrors.ErrFeatureNotAllowed, e.Cause}
}

// Gate is the fail-closed quota check. Results are never cached.
type Gate struct {
	checker Checker
	catalog *Catalog
}

// GateOption defines a function type to modify the Gate instance.
type GateOption func(*Gate)

// WithCatalog replaces the embedded feature catalog
func WithCatalog(c *Catalog) GateOption {
	return func(g *Gate) {
		g.catalog = c
	}
}

// NewGate creates a gate backed by checker
func NewGate(checker Checker, options ...GateOption) *Gate {
	g := &Gate{checker: checker}
	for _, opt := range options {
		opt(g)
	}
	if g.catalog == nil {
		g.catalog = DefaultCatalog()
	}
	return g
}

// Catalog returns the catalog used for denial prompts
func (g *Gate) Catalog() *Catalog {
	return g.catalog
}

// Allowed reports whether the feature may be used right now
func (g *Gate) Allowed(ctx context.Context, key string) bool {
	return g.Require(ctx, key) == nil
}

// Require returns nil when the feature may be used, otherwise a *DeniedError
func (g *Gate) Require(ctx context.Context, key string) (err error) {
	entry := g.catalog.Lookup(key)
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("feature", key).Msg("feature check panicked")
			err = &DeniedError{Feature: entry, Cause: fmt.Errorf("panic: %v", r)}
		}
	}()

	check, err := g.checker.CheckFeature(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("feature", key).Msg("feature check failed, denying")
		return &DeniedError{Feature: entry, Cause: err}
	}
	if check == nil || !check.Allowed {
		log.Info().Str("feature", key).Msg("feature denied by plan")
		return &DeniedError{Feature: entry}
	}
	return nil
}
