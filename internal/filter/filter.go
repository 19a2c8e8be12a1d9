// Package filter resolves which instances a command acts on.
package filter

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/yairfalse/shotty/pkg/resource"
)

// InstanceLister is the provider capability the selector needs.
type InstanceLister interface {
	ListInstances(ctx context.Context, q resource.Query) ([]resource.Instance, error)
}

// Selection is the user's targeting input: a Project tag value,
// an explicit instance id, both, or neither.
type Selection struct {
	Project    string
	InstanceID string
}

// Scoped reports whether the selection narrows the target set.
// Unscoped selections address every instance in the region.
func (s Selection) Scoped() bool {
	return s.Project != "" || s.InstanceID != ""
}

// Query builds the provider filter for the selection.
//
// An instance id takes precedence: the project filter is dropped entirely,
// so --project web --instance i-123 selects i-123 whatever its tags are.
func (s Selection) Query() resource.Query {
	if s.InstanceID != "" {
		return resource.Query{InstanceIDs: []string{s.InstanceID}}
	}
	if s.Project != "" {
		return resource.Query{Tags: map[string]string{resource.ProjectTag: s.Project}}
	}
	return resource.Query{}
}

// String describes the selection for logs.
func (s Selection) String() string {
	switch {
	case s.InstanceID != "":
		return "instance " + s.InstanceID
	case s.Project != "":
		return "project " + s.Project
	default:
		return "all instances"
	}
}

// Resolve returns the selected instances.
func Resolve(ctx context.Context, lister InstanceLister, s Selection) ([]resource.Instance, error) {
	if s.InstanceID != "" && s.Project != "" {
		log.Warn().
			Str("project", s.Project).
			Str("instance_id", s.InstanceID).
			Msg("--instance given, ignoring --project")
	}

	instances, err := lister.ListInstances(ctx, s.Query())
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", s, err)
	}

	log.Debug().
		Str("selection", s.String()).
		Int("count", len(instances)).
		Msg("instances selected")

	return instances, nil
}
