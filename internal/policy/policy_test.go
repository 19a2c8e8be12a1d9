package policy

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yairfalse/shotty/pkg/resource"
)

const protectPolicy = `package shotty

deny contains msg if {
	input.action == "stop"
	input.instance.tags.Protected == "true"
	msg := sprintf("%s is protected", [input.instance.id])
}

deny contains msg if {
	input.action == "create_snapshot"
	input.instance.tags.Project == "scratch"
	msg := "scratch instances are never snapshotted"
}
`

func TestEngine_Deny(t *testing.T) {
	ctx := context.Background()
	e, err := NewEngine(ctx, "protect.rego", protectPolicy)
	require.NoError(t, err)

	d, err := e.Check(ctx, resource.ActionStop, resource.Instance{
		ID:   "i-1",
		Tags: map[string]string{"Protected": "true"},
	})

	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, []string{"i-1 is protected"}, d.Reasons)
}

func TestEngine_AllowWhenNoRuleMatches(t *testing.T) {
	ctx := context.Background()
	e, err := NewEngine(ctx, "protect.rego", protectPolicy)
	require.NoError(t, err)

	d, err := e.Check(ctx, resource.ActionStart, resource.Instance{
		ID:   "i-1",
		Tags: map[string]string{"Protected": "true"},
	})

	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Empty(t, d.Reasons)
}

func TestEngine_UndefinedRuleAllows(t *testing.T) {
	ctx := context.Background()
	e, err := NewEngine(ctx, "empty.rego", "package shotty\n\nallow := true\n")
	require.NoError(t, err)

	d, err := e.Check(ctx, resource.ActionStop, resource.Instance{ID: "i-1"})

	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestNewEngine_CompileError(t *testing.T) {
	_, err := NewEngine(context.Background(), "broken.rego", "package shotty\n\ndeny contains msg if {")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compile policy broken.rego")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.rego")
	require.NoError(t, os.WriteFile(path, []byte(protectPolicy), 0644))

	e, err := Load(context.Background(), path)
	require.NoError(t, err)

	d, err := e.Check(context.Background(), resource.ActionCreateSnapshot, resource.Instance{
		ID:   "i-2",
		Tags: map[string]string{"Project": "scratch"},
	})
	require.NoError(t, err)
	assert.False(t, d.Allowed)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(context.Background(), "/nonexistent/policy.rego")
	require.Error(t, err)
}

func TestAllowAll(t *testing.T) {
	d, err := AllowAll{}.Check(context.Background(), resource.ActionStop, resource.Instance{})
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}
