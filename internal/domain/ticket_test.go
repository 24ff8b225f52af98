package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTicketStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status   TicketStatus
		valid    bool
		terminal bool
		closes   bool
	}{
		{TicketStatusOpen, true, false, false},
		{TicketStatusInProgress, true, false, false},
		{TicketStatusWaiting, true, false, false},
		{TicketStatusResolved, true, true, true},
		{TicketStatusClosed, true, true, true},
		{TicketStatusCancelled, true, true, false},
		{TicketStatus("archived"), false, false, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(string(tt.status), func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.valid, tt.status.Valid())
			assert.Equal(t, tt.terminal, tt.status.Terminal())
			assert.Equal(t, tt.closes, tt.status.Closes())
		})
	}
}

func TestEnumsRejectUnknownValues(t *testing.T) {
	t.Parallel()

	assert.True(t, TicketCategoryNewHire.Valid())
	assert.False(t, TicketCategory("printer").Valid())
	assert.True(t, TicketPriorityUrgent.Valid())
	assert.False(t, TicketPriority("critical").Valid())
	assert.True(t, RoleIT.Valid())
	assert.False(t, Role("admin").Valid())
}

func TestTicketPatchEmpty(t *testing.T) {
	t.Parallel()

	assert.True(t, TicketPatch{}.Empty())
	assert.False(t, TicketPatch{Title: Some("x")}.Empty())
	assert.False(t, TicketPatch{AssigneeID: Some[*string](nil)}.Empty())
}

func TestVerificationCodeExpired(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	code := VerificationCode{Email: "a@b.c", Code: "123456", ExpiresAt: now.Add(10 * time.Minute)}

	assert.False(t, code.Expired(now))
	assert.False(t, code.Expired(now.Add(9*time.Minute+59*time.Second)))
	assert.True(t, code.Expired(now.Add(10*time.Minute)))
	assert.True(t, code.Expired(now.Add(time.Hour)))
}

func TestUserIsIT(t *testing.T) {
	t.Parallel()

	var nilUser *User
	assert.False(t, nilUser.IsIT())
	assert.True(t, (&User{Role: RoleIT}).IsIT())
	assert.False(t, (&User{Role: RoleEmployee}).IsIT())
}
