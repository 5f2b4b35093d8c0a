package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "hrcore/pkg/domain-errors"
)

func TestRoleOrder(t *testing.T) {
	roles := Roles()
	require.Len(t, roles, 4)

	t.Run("ranks are strictly increasing", func(t *testing.T) {
		for i := 1; i < len(roles); i++ {
			assert.Greater(t, roles[i].Rank(), roles[i-1].Rank(), "%s vs %s", roles[i], roles[i-1])
		}
	})

	t.Run("AtLeast is reflexive and follows rank", func(t *testing.T) {
		for _, a := range roles {
			for _, b := range roles {
				assert.Equal(t, a.Rank() >= b.Rank(), a.AtLeast(b), "%s >= %s", a, b)
			}
		}
	})

	t.Run("unknown roles rank below everything", func(t *testing.T) {
		unknown := Role("intern")
		assert.Equal(t, 0, unknown.Rank())
		assert.False(t, unknown.AtLeast(RoleEmployee))
		assert.False(t, unknown.AtLeast(Role("contractor")))
	})

	t.Run("only super_admin is top", func(t *testing.T) {
		assert.True(t, RoleSuperAdmin.IsTop())
		assert.False(t, RoleHRAdmin.IsTop())
	})
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		input string
		want  Role
	}{
		{"employee", RoleEmployee},
		{"Manager", RoleManager},
		{" hr_admin ", RoleHRAdmin},
		{"SUPER_ADMIN", RoleSuperAdmin},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseRole(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "admin", "owner"} {
		t.Run("rejects "+bad, func(t *testing.T) {
			_, err := ParseRole(bad)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}
}

func TestParseScope(t *testing.T) {
	s, err := ParseScope("")
	require.NoError(t, err)
	assert.Equal(t, ScopeOrganization, s)

	s, err = ParseScope("all")
	require.NoError(t, err)
	assert.Equal(t, ScopeAll, s)

	_, err = ParseScope("everything")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}
