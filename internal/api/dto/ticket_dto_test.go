package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

func decodePatch(t *testing.T, body string) (domain.TicketPatch, error) {
	t.Helper()
	var req UpdateTicketRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	return req.ToPatch()
}

func TestUpdateTicketRequestAbsentVersusNull(t *testing.T) {
	patch, err := decodePatch(t, `{"title":"New title"}`)
	require.NoError(t, err)
	assert.True(t, patch.Title.Set)
	assert.Equal(t, "New title", patch.Title.Value)
	assert.False(t, patch.AssigneeID.Set)
	assert.False(t, patch.Status.Set)

	patch, err = decodePatch(t, `{"assignee_id":null,"extra_data":null}`)
	require.NoError(t, err)
	assert.True(t, patch.AssigneeID.Set)
	assert.Nil(t, patch.AssigneeID.Value)
	assert.True(t, patch.ExtraData.Set)
	assert.Nil(t, patch.ExtraData.Value)

	patch, err = decodePatch(t, `{"assignee_id":"u-1","status":"resolved","extra_data":{"asset":"X1"}}`)
	require.NoError(t, err)
	require.NotNil(t, patch.AssigneeID.Value)
	assert.Equal(t, "u-1", *patch.AssigneeID.Value)
	assert.Equal(t, domain.TicketStatusResolved, patch.Status.Value)
	assert.Equal(t, map[string]any{"asset": "X1"}, patch.ExtraData.Value)
}

func TestUpdateTicketRequestRejectsNullScalars(t *testing.T) {
	_, err := decodePatch(t, `{"status":null}`)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestEmptyUpdateIsEmptyPatch(t *testing.T) {
	patch, err := decodePatch(t, `{}`)
	require.NoError(t, err)
	assert.True(t, patch.Empty())
}

func TestCreateTicketRequestAcceptsEitherExtraKey(t *testing.T) {
	var req CreateTicketRequest
	require.NoError(t, json.Unmarshal([]byte(`{"title":"t","description":"d","category":"new_hire","extra":{"start":"2026-05-01"}}`), &req))
	assert.Equal(t, map[string]any{"start": "2026-05-01"}, req.Payload())

	req = CreateTicketRequest{}
	require.NoError(t, json.Unmarshal([]byte(`{"extra_data":{"asset":"X1"}}`), &req))
	assert.Equal(t, map[string]any{"asset": "X1"}, req.Payload())
}
