package approval

import (
	"errors"
	"fmt"
	"strings"

	"jobgenie/internal/models"
)

// Action is a request to move a record between approval states.
type Action string

const (
	ActionSubmit  Action = "submit"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionRevoke  Action = "revoke"
)

// ParseAction parses a review action from a URL segment.
func ParseAction(s string) (Action, error) {
	switch a := Action(strings.ToLower(s)); a {
	case ActionApprove, ActionReject, ActionRevoke:
		return a, nil
	}
	return "", fmt.Errorf("%w: unknown action %q", ErrInvalidTransition, s)
}

var (
	ErrInvalidTransition = errors.New("invalid approval transition")
	ErrReasonRequired    = errors.New("a reason is required for this action")
)

type transition struct {
	from   models.ApprovalStatus
	action Action
}

var transitions = map[transition]models.ApprovalStatus{
	{models.ApprovalPending, ActionSubmit}:  models.ApprovalPending,
	{models.ApprovalRejected, ActionSubmit}: models.ApprovalPending,
	{models.ApprovalPending, ActionApprove}: models.ApprovalApproved,
	{models.ApprovalPending, ActionReject}:  models.ApprovalRejected,
	{models.ApprovalApproved, ActionRevoke}: models.ApprovalPending,
	{models.ApprovalRejected, ActionRevoke}: models.ApprovalPending,
}

// Next returns the status reached by applying action to from.
func Next(from models.ApprovalStatus, action Action) (models.ApprovalStatus, error) {
	to, ok := transitions[transition{from, action}]
	if !ok {
		return "", fmt.Errorf("%w: cannot %s a %s record", ErrInvalidTransition, action, from)
	}
	return to, nil
}

// RequiresReason reports whether applying action to from must carry a reason.
func RequiresReason(from models.ApprovalStatus, action Action) bool {
	switch action {
	case ActionReject:
		return true
	case ActionRevoke:
		return from == models.ApprovalApproved
	}
	return false
}
