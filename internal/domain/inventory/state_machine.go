package inventory

import (
	"fmt"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// Action evento que dispara una transición.
type Action string

const (
	ActionCommit  Action = "commit"
	ActionSend    Action = "send"
	ActionReceive Action = "receive"
	ActionCancel  Action = "cancel"
)

type stateTable map[entity.MovementState]map[Action]entity.MovementState

var postable = stateTable{
	entity.StateDraft: {
		ActionCommit: entity.StatePosted,
		ActionCancel: entity.StateCancelled,
	},
	entity.StatePosted: {
		ActionCancel: entity.StateCancelled,
	},
}

var transitions = map[entity.MovementType]stateTable{
	entity.MovementTypeReceipt: postable,
	entity.MovementTypeIssue:   postable,
	entity.MovementTypeTransfer: {
		entity.StateDraft: {
			ActionSend:   entity.StateSent,
			ActionCancel: entity.StateCancelled,
		},
		entity.StateSent: {
			ActionReceive: entity.StateReceived,
			ActionCancel:  entity.StateCancelled,
		},
	},
}

// Transition devuelve el estado destino o ErrInvalidStateTransition.
func Transition(t entity.MovementType, from entity.MovementState, action Action) (entity.MovementState, error) {
	if to, ok := transitions[t][from][action]; ok {
		return to, nil
	}
	return "", fmt.Errorf("%w: %s %s desde %s", domain.ErrInvalidStateTransition, action, t, from)
}

// IsTerminal informa si el estado no admite más transiciones para el tipo.
func IsTerminal(t entity.MovementType, s entity.MovementState) bool {
	return len(transitions[t][s]) == 0
}

// CanEditLines solo los borradores son mutables.
func CanEditLines(s entity.MovementState) bool {
	return s == entity.StateDraft
}
