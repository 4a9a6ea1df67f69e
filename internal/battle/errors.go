package battle

import "errors"

// Validation errors fail a single intent and leave the room untouched.
var (
	ErrRoomNotFound         = errors.New("room not found")
	ErrRoomFull             = errors.New("room is full")
	ErrAlreadyJoined        = errors.New("user already joined this room")
	ErrRoomNotJoinable      = errors.New("room is not accepting participants")
	ErrParticipantNotFound  = errors.New("participant not found")
	ErrParticipantForfeited = errors.New("participant has forfeited")
	ErrNotInProgress        = errors.New("battle is not in progress")
	ErrWrongQuestionIndex   = errors.New("answer does not target the current question")
	ErrDuplicateAnswer      = errors.New("question already answered")
	ErrRoomBusy             = errors.New("room is busy, try again")
	ErrUnauthorized         = errors.New("not allowed to act for this participant")
)

const (
	KindNotFound     = "not_found"
	KindConflict     = "conflict"
	KindUnauthorized = "unauthorized"
	KindInternal     = "internal"
)

// Kind buckets an engine error for the transport layer: not-found vs
// rejected-conflict vs unauthorized vs internal.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrRoomNotFound), errors.Is(err, ErrParticipantNotFound):
		return KindNotFound
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrRoomFull),
		errors.Is(err, ErrAlreadyJoined),
		errors.Is(err, ErrRoomNotJoinable),
		errors.Is(err, ErrParticipantForfeited),
		errors.Is(err, ErrNotInProgress),
		errors.Is(err, ErrWrongQuestionIndex),
		errors.Is(err, ErrDuplicateAnswer),
		errors.Is(err, ErrQuorumNotMet),
		errors.Is(err, ErrRoomBusy):
		return KindConflict
	default:
		return KindInternal
	}
}
