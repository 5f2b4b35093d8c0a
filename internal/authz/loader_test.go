package authz

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrcore/pkg/domain"
	dErrors "hrcore/pkg/domain-errors"
)

const sampleRules = `
rules:
  - resource: leaves
    action: read
    min_role: Manager
    allow_self_access: true
    organization_boundary: true
  - resource: audit_logs
    action: delete
    min_role: super_admin
`

func TestLoadRules(t *testing.T) {
	t.Run("parses rules and normalizes roles", func(t *testing.T) {
		rules, err := LoadRules(strings.NewReader(sampleRules))
		require.NoError(t, err)
		require.Len(t, rules, 2)
		assert.Equal(t, Rule{
			Resource:             "leaves",
			Action:               ActionRead,
			MinRole:              domain.RoleManager,
			AllowSelfAccess:      true,
			OrganizationBoundary: true,
		}, rules[0])
		assert.False(t, rules[1].OrganizationBoundary)
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		_, err := LoadRules(strings.NewReader("rules:\n  - resource: leaves\n    action: read\n    min_role: manager\n    allow_self: true\n"))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("unknown role is rejected", func(t *testing.T) {
		_, err := LoadRules(strings.NewReader("rules:\n  - resource: leaves\n    action: read\n    min_role: intern\n"))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("unknown action is rejected", func(t *testing.T) {
		_, err := LoadRules(strings.NewReader("rules:\n  - resource: leaves\n    action: archive\n    min_role: manager\n"))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("empty file is rejected", func(t *testing.T) {
		_, err := LoadRules(strings.NewReader("rules: []\n"))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestLoadRegistryFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "permissions.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleRules), 0o600))

	r, err := LoadRegistryFile(path)
	require.NoError(t, err)
	_, ok := r.Lookup("leaves", ActionRead)
	assert.True(t, ok)

	_, err = LoadRegistryFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
