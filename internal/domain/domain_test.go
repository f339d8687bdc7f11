package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	role, err := ParseRole(" admin ")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, role)

	_, err = ParseRole("Admin")
	assert.Error(t, err)
	_, err = ParseRole("")
	assert.Error(t, err)
}

func TestParseTicketEnums(t *testing.T) {
	status, err := ParseTicketStatus("in_progress")
	require.NoError(t, err)
	assert.Equal(t, TicketStatusInProgress, status)
	_, err = ParseTicketStatus("closed")
	assert.Error(t, err)

	priority, err := ParseTicketPriority("high")
	require.NoError(t, err)
	assert.Equal(t, TicketPriorityHigh, priority)
	_, err = ParseTicketPriority("urgent")
	assert.Error(t, err)

	category, err := ParseTicketCategory("technical")
	require.NoError(t, err)
	assert.Equal(t, TicketCategoryTechnical, category)
	_, err = ParseTicketCategory("billing")
	assert.Error(t, err)
}

func TestProfileOmitsPassword(t *testing.T) {
	user := &User{ID: "1", Name: "Ann", Email: "ann@example.com", PasswordHash: "hash", Role: RoleMember}
	assert.Equal(t, UserProfile{ID: "1", Name: "Ann", Email: "ann@example.com", Role: RoleMember}, user.Profile())
	assert.Equal(t, "ann@example.com", NormalizeEmail("  ANN@Example.com "))
}
