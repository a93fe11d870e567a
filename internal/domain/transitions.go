package domain

import "github.com/google/uuid"

// Moderation state machine. pending is initial; resolved and spam are
// terminal for ordinary flows but stay administrator-mutable so a
// misclassification can be corrected.
var itemEdges = map[ItemStatus][]ItemStatus{
	StatusPending:  {StatusApproved, StatusRejected, StatusSpam},
	StatusApproved: {StatusReplied, StatusPending, StatusRejected},
	StatusReplied:  {StatusResolved},
}

// CanTransition reports whether from -> to is a legal edge for an actor with
// the given admin capability. Marking spam is an administrator-only escape
// hatch from any state; unlocking a terminal state back to pending is
// administrator-only re-moderation.
func CanTransition(from, to ItemStatus, admin bool) bool {
	if from == to {
		return false
	}
	if to == StatusSpam {
		return admin
	}
	if admin && to == StatusPending && (from == StatusResolved || from == StatusSpam) {
		return true
	}
	for _, next := range itemEdges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// TransitionSources returns every status from which a transition to the
// requested status is legal for the actor. Repositories use this to enforce
// the edge check inside the same transaction as the write.
func TransitionSources(to ItemStatus, admin bool) []ItemStatus {
	all := []ItemStatus{StatusPending, StatusApproved, StatusRejected, StatusReplied, StatusResolved, StatusSpam}
	var out []ItemStatus
	for _, from := range all {
		if CanTransition(from, to, admin) {
			out = append(out, from)
		}
	}
	return out
}

type SkipReason string

const (
	SkipNotFound          SkipReason = "not_found"
	SkipDenied            SkipReason = "denied"
	SkipInvalidTransition SkipReason = "invalid_transition"
)

// BulkOutcome reports what happened to one id of a bulk transition. A bulk
// action skips ids it cannot change rather than aborting the batch; the
// reason for each skip stays inspectable.
type BulkOutcome struct {
	ID      uuid.UUID
	Changed bool
	Reason  SkipReason
}

// ValidItemStatus reports whether s names a known moderation status.
func ValidItemStatus(s ItemStatus) bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusReplied, StatusResolved, StatusSpam:
		return true
	}
	return false
}
