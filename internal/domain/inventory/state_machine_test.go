package inventory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/inventory"
)

func TestTransition_Permitidas(t *testing.T) {
	cases := []struct {
		typ    entity.MovementType
		from   entity.MovementState
		action inventory.Action
		to     entity.MovementState
	}{
		{entity.MovementTypeReceipt, entity.StateDraft, inventory.ActionCommit, entity.StatePosted},
		{entity.MovementTypeReceipt, entity.StateDraft, inventory.ActionCancel, entity.StateCancelled},
		{entity.MovementTypeReceipt, entity.StatePosted, inventory.ActionCancel, entity.StateCancelled},
		{entity.MovementTypeIssue, entity.StateDraft, inventory.ActionCommit, entity.StatePosted},
		{entity.MovementTypeIssue, entity.StatePosted, inventory.ActionCancel, entity.StateCancelled},
		{entity.MovementTypeTransfer, entity.StateDraft, inventory.ActionSend, entity.StateSent},
		{entity.MovementTypeTransfer, entity.StateDraft, inventory.ActionCancel, entity.StateCancelled},
		{entity.MovementTypeTransfer, entity.StateSent, inventory.ActionReceive, entity.StateReceived},
		{entity.MovementTypeTransfer, entity.StateSent, inventory.ActionCancel, entity.StateCancelled},
	}
	for _, tc := range cases {
		got, err := inventory.Transition(tc.typ, tc.from, tc.action)
		require.NoError(t, err, "%s %s %s", tc.typ, tc.from, tc.action)
		assert.Equal(t, tc.to, got)
	}
}

func TestTransition_Rechazadas(t *testing.T) {
	cases := []struct {
		typ    entity.MovementType
		from   entity.MovementState
		action inventory.Action
	}{
		{entity.MovementTypeTransfer, entity.StateReceived, inventory.ActionCancel},
		{entity.MovementTypeTransfer, entity.StateDraft, inventory.ActionReceive},
		{entity.MovementTypeTransfer, entity.StateDraft, inventory.ActionCommit},
		{entity.MovementTypeReceipt, entity.StateCancelled, inventory.ActionCancel},
		{entity.MovementTypeReceipt, entity.StatePosted, inventory.ActionCommit},
		{entity.MovementTypeIssue, entity.StateDraft, inventory.ActionSend},
	}
	for _, tc := range cases {
		_, err := inventory.Transition(tc.typ, tc.from, tc.action)
		assert.ErrorIs(t, err, domain.ErrInvalidStateTransition, "%s %s %s", tc.typ, tc.from, tc.action)
		assert.False(t, domain.IsRetryable(err))
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, inventory.IsTerminal(entity.MovementTypeTransfer, entity.StateReceived))
	assert.True(t, inventory.IsTerminal(entity.MovementTypeReceipt, entity.StateCancelled))
	assert.False(t, inventory.IsTerminal(entity.MovementTypeReceipt, entity.StatePosted))
	assert.False(t, inventory.IsTerminal(entity.MovementTypeTransfer, entity.StateSent))
}
