package data

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRepoOptions(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return fixed }
	ids := func() string { return "fixed-id" }

	accounts := NewAccountRepo(nil, WithClock(clock), WithIDGenerator(ids))
	assert.Equal(t, fixed, accounts.now())
	assert.Equal(t, "fixed-id", accounts.newID())

	workspaces := NewWorkspaceRepo(nil, WithClock(nil))
	assert.NotNil(t, workspaces.now)
	assert.Len(t, workspaces.newID(), 36)
}
