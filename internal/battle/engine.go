package battle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Hun425/CS-Quiz-sub001/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	DefaultStartGraceDelay = 5 * time.Second
	DefaultLockTimeout     = 5 * time.Second
	DefaultMaxParticipants = 4
)

// finish reasons, surfaced on /status and /result.
const (
	FinishReasonCompleted = "completed"
	FinishReasonForfeit   = "forfeit"
	FinishReasonTimeout   = "timeout"
)

var ErrQuorumNotMet = errors.New("quorum not met")

// Options tune the engine's timing behaviour.
type Options struct {
	StartGraceDelay time.Duration
	LockTimeout     time.Duration
}

// Engine owns every battle room's lifecycle. All mutating operations on one
// room run in mutual exclusion (roomGuard) while distinct rooms proceed in
// parallel; broadcasts happen inside that exclusive section so subscribers
// observe events in application order.
type Engine struct {
	store     Store
	content   ContentProvider
	identity  IdentityProvider
	results   ResultSink
	broadcast Broadcaster
	scorer    *Scorer
	timers    *TurnTimer
	guard     *roomGuard
	log       zerolog.Logger

	startGrace time.Duration

	mu    sync.Mutex
	rooms map[string]*roomState
}

func NewEngine(
	store Store,
	content ContentProvider,
	identity IdentityProvider,
	results ResultSink,
	broadcast Broadcaster,
	log zerolog.Logger,
	opts Options,
) *Engine {
	if opts.StartGraceDelay <= 0 {
		opts.StartGraceDelay = DefaultStartGraceDelay
	}
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = DefaultLockTimeout
	}
	return &Engine{
		store:      store,
		content:    content,
		identity:   identity,
		results:    results,
		broadcast:  broadcast,
		scorer:     NewScorer(),
		timers:     NewTurnTimer(),
		guard:      newRoomGuard(opts.LockTimeout),
		log:        log.With().Str("component", "battle").Logger(),
		startGrace: opts.StartGraceDelay,
		rooms:      make(map[string]*roomState),
	}
}

// withRoom runs fn while holding the room's exclusive slot.
func (e *Engine) withRoom(ctx context.Context, roomID string, fn func(st *roomState) error) error {
	release, err := e.guard.acquire(ctx, roomID)
	if err != nil {
		return err
	}
	defer release()

	st, err := e.state(ctx, roomID)
	if err != nil {
		return err
	}
	return fn(st)
}

func (e *Engine) state(ctx context.Context, roomID string) (*roomState, error) {
	e.mu.Lock()
	st, ok := e.rooms[roomID]
	e.mu.Unlock()
	if ok {
		return st, nil
	}

	room, err := e.store.LoadRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	questions, err := e.content.QuestionsForQuiz(ctx, room.QuizID)
	if err != nil {
		return nil, fmt.Errorf("load questions for quiz %d: %w", room.QuizID, err)
	}
	st = newRoomState(room, questions)

	answers, err := e.store.ListAnswers(ctx, roomID)
	if err != nil {
		return nil, err
	}
	for i := range answers {
		a := answers[i]
		st.putAnswer(&a)
		if room.Status == models.BattleStatusInProgress && a.QuestionIndex == room.CurrentQuestionIndex {
			st.answeredCurrent[a.ParticipantID] = true
		}
	}

	e.mu.Lock()
	if cached, ok := e.rooms[roomID]; ok {
		st = cached
	} else {
		e.rooms[roomID] = st
	}
	e.mu.Unlock()
	return st, nil
}

func (e *Engine) dropState(roomID string) {
	e.mu.Lock()
	delete(e.rooms, roomID)
	e.mu.Unlock()
}

// CreateRoom provisions a new room in WAITING over the given quiz.
func (e *Engine) CreateRoom(ctx context.Context, quizID uint, maxParticipants, timeLimitSec int) (RoomSnapshot, error) {
	questions, err := e.content.QuestionsForQuiz(ctx, quizID)
	if err != nil {
		return RoomSnapshot{}, err
	}
	if len(questions) == 0 {
		return RoomSnapshot{}, errors.New("quiz must have at least one question")
	}
	if maxParticipants <= 0 {
		maxParticipants = DefaultMaxParticipants
	}
	if timeLimitSec <= 0 {
		timeLimitSec = DefaultTimeLimitSec
	}

	room := &models.BattleRoom{
		ID:                   uuid.NewString(),
		QuizID:               quizID,
		Status:               models.BattleStatusWaiting,
		MaxParticipants:      maxParticipants,
		CurrentQuestionIndex: -1,
		QuestionTimeLimitSec: timeLimitSec,
		TotalQuestions:       len(questions),
		CreatedAt:            time.Now(),
	}
	if err := e.store.CreateRoom(ctx, room); err != nil {
		return RoomSnapshot{}, err
	}

	e.log.Info().Str("room_id", room.ID).Uint("quiz_id", quizID).Msg("room created")
	return newRoomState(room, questions).snapshot(), nil
}

// Join adds a user to a WAITING room.
func (e *Engine) Join(ctx context.Context, roomID, userID, displayName string) (ParticipantView, RoomSnapshot, error) {
	var view ParticipantView
	var snap RoomSnapshot
	err := e.withRoom(ctx, roomID, func(st *roomState) error {
		if st.room.Status != models.BattleStatusWaiting {
			return ErrRoomNotJoinable
		}
		if st.participantByUser(userID) != nil {
			return ErrAlreadyJoined
		}
		if len(st.participants) >= st.room.MaxParticipants {
			return ErrRoomFull
		}

		if displayName == "" {
			if profile, err := e.identity.ResolveUser(ctx, userID); err == nil {
				displayName = profile.DisplayName
			}
		}
		if displayName == "" {
			displayName = userID
		}

		p := &models.Participant{
			ID:          uuid.NewString(),
			RoomID:      roomID,
			UserID:      userID,
			DisplayName: displayName,
			JoinedAt:    time.Now(),
		}
		if err := e.store.SaveParticipant(ctx, p); err != nil {
			return fmt.Errorf("persist participant: %w", err)
		}
		st.participants = append(st.participants, p)
		e.persistRoom(ctx, st)

		e.publishRoster(st)
		view = ParticipantView{
			ID: p.ID, UserID: p.UserID, DisplayName: p.DisplayName,
			Score: p.Score, Ready: p.Ready,
		}
		snap = st.snapshot()
		return nil
	})
	return view, snap, err
}

// SetReady toggles a participant's ready flag and drives the
// WAITING↔STARTING transition around the quorum condition.
func (e *Engine) SetReady(ctx context.Context, roomID, participantID string, ready bool) (RoomSnapshot, error) {
	var snap RoomSnapshot
	err := e.withRoom(ctx, roomID, func(st *roomState) error {
		p := st.participant(participantID)
		if p == nil {
			return ErrParticipantNotFound
		}
		if p.Forfeited {
			return ErrParticipantForfeited
		}
		if st.room.Status != models.BattleStatusWaiting && st.room.Status != models.BattleStatusStarting {
			return ErrRoomNotJoinable
		}

		p.Ready = ready
		if err := e.store.SaveParticipant(ctx, p); err != nil {
			return fmt.Errorf("persist participant: %w", err)
		}

		switch {
		case st.room.Status == models.BattleStatusWaiting && st.quorumMet():
			e.enterStarting(ctx, st)
		case st.room.Status == models.BattleStatusStarting && !st.quorumMet():
			e.revertToWaiting(ctx, st)
		default:
			e.persistRoom(ctx, st)
		}

		e.publishRoster(st)
		snap = st.snapshot()
		return nil
	})
	return snap, err
}

// enterStarting opens the grace window and arms its one-shot timer.
func (e *Engine) enterStarting(ctx context.Context, st *roomState) {
	st.room.Status = models.BattleStatusStarting
	e.persistRoom(ctx, st)
	e.broadcast.PublishToRoom(st.room.ID, TopicStatus, StatusEvent{
		RoomID:    st.room.ID,
		Status:    st.room.Status,
		StartsInS: int(e.startGrace / time.Second),
	})

	roomID := st.room.ID
	e.timers.Arm(roomID, e.startGrace, func() {
		e.startFromTimer(roomID)
	})
}

// revertToWaiting cancels the grace timer before returning to WAITING, so a
// stale start can never fire against the changed membership.
func (e *Engine) revertToWaiting(ctx context.Context, st *roomState) {
	e.timers.Cancel(st.room.ID)
	st.room.Status = models.BattleStatusWaiting
	e.persistRoom(ctx, st)
	e.broadcast.PublishToRoom(st.room.ID, TopicStatus, StatusEvent{
		RoomID: st.room.ID,
		Status: st.room.Status,
	})
}

func (e *Engine) startFromTimer(roomID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := e.Start(ctx, roomID); err != nil && !errors.Is(err, ErrQuorumNotMet) {
		e.log.Error().Err(err).Str("room_id", roomID).Msg("scheduled start failed")
	}
}

// Start moves a room into IN_PROGRESS at question zero. It re-validates the
// quorum because membership may have changed after the grace timer was
// armed. Calling Start on a room that is already running returns the
// current snapshot.
func (e *Engine) Start(ctx context.Context, roomID string) (RoomSnapshot, error) {
	var snap RoomSnapshot
	err := e.withRoom(ctx, roomID, func(st *roomState) error {
		switch st.room.Status {
		case models.BattleStatusInProgress:
			snap = st.snapshot()
			return nil
		case models.BattleStatusWaiting, models.BattleStatusStarting:
		default:
			return ErrRoomNotJoinable
		}

		if !st.quorumMet() {
			e.revertToWaiting(ctx, st)
			snap = st.snapshot()
			return ErrQuorumNotMet
		}

		now := time.Now()
		st.room.Status = models.BattleStatusInProgress
		st.room.StartTime = &now
		st.room.CurrentQuestionIndex = 0
		st.room.CurrentQuestionStartTime = &now
		st.answeredCurrent = make(map[string]bool)
		e.persistRoom(ctx, st)

		e.broadcast.PublishToRoom(st.room.ID, TopicStatus, StatusEvent{
			RoomID: st.room.ID,
			Status: st.room.Status,
		})
		e.publishQuestion(st)
		e.armQuestionTimer(st)

		e.log.Info().Str("room_id", st.room.ID).Int("participants", len(st.participants)).Msg("battle started")
		snap = st.snapshot()
		return nil
	})
	return snap, err
}

func (e *Engine) publishQuestion(st *roomState) {
	q, ok := st.currentQuestion()
	if !ok {
		return
	}
	e.broadcast.PublishToRoom(st.room.ID, TopicQuestion, QuestionEvent{
		RoomID:         st.room.ID,
		Index:          q.Index,
		Prompt:         q.Prompt,
		Options:        q.Options,
		TimeLimitSec:   st.questionTimeLimit(q),
		TotalQuestions: st.room.TotalQuestions,
		IsLastQuestion: q.Index == st.room.TotalQuestions-1,
	})
}

func (e *Engine) publishRoster(st *roomState) {
	e.broadcast.PublishToRoom(st.room.ID, TopicParticipants, RosterEvent{
		RoomID:       st.room.ID,
		Participants: st.views(),
	})
}

func (e *Engine) publishProgress(st *roomState) {
	e.broadcast.PublishToRoom(st.room.ID, TopicProgress, ProgressEvent{
		RoomID:        st.room.ID,
		QuestionIndex: st.room.CurrentQuestionIndex,
		Participants:  st.progress(),
	})
}

// armQuestionTimer captures the guarded question index so a fire that loses
// the race against the last answer is detected and dropped.
func (e *Engine) armQuestionTimer(st *roomState) {
	q, ok := st.currentQuestion()
	if !ok {
		return
	}
	roomID := st.room.ID
	index := st.room.CurrentQuestionIndex
	limit := st.questionTimeLimit(q)
	e.timers.Arm(roomID, time.Duration(limit)*time.Second, func() {
		e.questionExpired(roomID, index)
	})
}

func (e *Engine) questionExpired(roomID string, index int) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := e.withRoom(ctx, roomID, func(st *roomState) error {
		if st.room.Status != models.BattleStatusInProgress || st.room.CurrentQuestionIndex != index {
			// Stale fire: the room advanced (or finished) first.
			return nil
		}
		return e.advanceLocked(ctx, st, FinishReasonTimeout)
	})
	if err != nil {
		e.log.Error().Err(err).Str("room_id", roomID).Int("question", index).Msg("question expiry handling failed")
	}
}

// AnswerResult pairs the stored answer with the data a targeted reply needs.
type AnswerResult struct {
	Answer        models.Answer
	CorrectAnswer string
	TotalScore    float64
}

// SubmitAnswer validates and scores one answer. Resubmission for an already
// answered index returns the original answer with ErrDuplicateAnswer and no
// side effects. When the last active participant answers, the room advances
// before SubmitAnswer returns.
func (e *Engine) SubmitAnswer(ctx context.Context, roomID, participantID string, questionIndex int, value string) (AnswerResult, error) {
	var res AnswerResult
	err := e.withRoom(ctx, roomID, func(st *roomState) error {
		if st.room.Status != models.BattleStatusInProgress {
			return ErrNotInProgress
		}
		p := st.participant(participantID)
		if p == nil {
			return ErrParticipantNotFound
		}
		if p.Forfeited {
			return ErrParticipantForfeited
		}
		if questionIndex != st.room.CurrentQuestionIndex {
			return ErrWrongQuestionIndex
		}

		q, ok := st.currentQuestion()
		if !ok {
			return ErrWrongQuestionIndex
		}

		if existing := st.answerFor(participantID, questionIndex); existing != nil {
			res = AnswerResult{Answer: *existing, CorrectAnswer: q.Answer, TotalScore: p.Score}
			return ErrDuplicateAnswer
		}

		var elapsed int64
		if st.room.CurrentQuestionStartTime != nil {
			elapsed = time.Since(*st.room.CurrentQuestionStartTime).Milliseconds()
		}
		isCorrect := answersMatch(value, q.Answer)
		points := e.scorer.ScoreQuestion(isCorrect, elapsed, st.questionTimeLimit(q), q.Points)

		a := &models.Answer{
			ID:             uuid.NewString(),
			RoomID:         roomID,
			ParticipantID:  participantID,
			QuestionIndex:  questionIndex,
			SubmittedValue: value,
			IsCorrect:      isCorrect,
			PointsAwarded:  points,
			SubmittedAt:    time.Now(),
		}
		if err := e.store.CreateAnswer(ctx, a); err != nil {
			return fmt.Errorf("persist answer: %w", err)
		}

		p.Score += points
		if err := e.store.SaveParticipant(ctx, p); err != nil {
			e.log.Error().Err(err).Str("participant_id", p.ID).Msg("persist participant score failed")
		}
		st.putAnswer(a)
		st.answeredCurrent[participantID] = true
		e.persistRoom(ctx, st)

		res = AnswerResult{Answer: *a, CorrectAnswer: q.Answer, TotalScore: p.Score}
		e.publishProgress(st)

		if st.allActiveAnswered() {
			return e.advanceLocked(ctx, st, "all_answered")
		}
		return nil
	})
	return res, err
}

// Advance moves the room to the next question, finishing it when the last
// question was just played.
func (e *Engine) Advance(ctx context.Context, roomID string) (RoomSnapshot, error) {
	var snap RoomSnapshot
	err := e.withRoom(ctx, roomID, func(st *roomState) error {
		if st.room.Status == models.BattleStatusFinished {
			snap = st.snapshot()
			return nil
		}
		if st.room.Status != models.BattleStatusInProgress {
			return ErrNotInProgress
		}
		if err := e.advanceLocked(ctx, st, "advance"); err != nil {
			return err
		}
		snap = st.snapshot()
		return nil
	})
	return snap, err
}

func (e *Engine) advanceLocked(ctx context.Context, st *roomState, reason string) error {
	// The outstanding question timer is dead either way: it fired (and this
	// call is its continuation) or all answers beat it.
	e.timers.Cancel(st.room.ID)

	next := st.room.CurrentQuestionIndex + 1
	if next >= st.room.TotalQuestions {
		// The index clamps to totalQuestions (one past the last question)
		// on completion, never beyond it.
		st.room.CurrentQuestionIndex = st.room.TotalQuestions
		return e.finishLocked(ctx, st, FinishReasonCompleted)
	}

	now := time.Now()
	st.room.CurrentQuestionIndex = next
	st.room.CurrentQuestionStartTime = &now
	st.answeredCurrent = make(map[string]bool)
	e.persistRoom(ctx, st)

	e.publishQuestion(st)
	e.publishProgress(st)
	e.armQuestionTimer(st)

	e.log.Debug().Str("room_id", st.room.ID).Int("question", next).Str("trigger", reason).Msg("advanced to next question")
	return nil
}

// Leave removes a participant from a pending room, or forfeits them in a
// running one. A room left empty before starting is cancelled.
func (e *Engine) Leave(ctx context.Context, roomID, participantID string) (RoomSnapshot, error) {
	var snap RoomSnapshot
	err := e.withRoom(ctx, roomID, func(st *roomState) error {
		p := st.participant(participantID)
		if p == nil {
			return ErrParticipantNotFound
		}

		switch st.room.Status {
		case models.BattleStatusWaiting, models.BattleStatusStarting:
			st.removeParticipant(participantID)
			if err := e.store.DeleteParticipant(ctx, participantID); err != nil {
				e.log.Error().Err(err).Str("participant_id", participantID).Msg("delete participant failed")
			}

			if len(st.participants) == 0 {
				return e.cancelLocked(ctx, st)
			}
			if st.room.Status == models.BattleStatusStarting {
				// Membership changed during the grace window: close it and
				// re-open only if the remaining roster still holds quorum.
				e.revertToWaiting(ctx, st)
				if st.quorumMet() {
					e.enterStarting(ctx, st)
				}
			} else if st.quorumMet() {
				// The departing participant may have been the only one
				// holding the room back from quorum.
				e.enterStarting(ctx, st)
			} else {
				e.persistRoom(ctx, st)
			}
			e.publishRoster(st)

		case models.BattleStatusInProgress:
			p.Forfeited = true
			if err := e.store.SaveParticipant(ctx, p); err != nil {
				e.log.Error().Err(err).Str("participant_id", participantID).Msg("persist forfeit failed")
			}
			e.persistRoom(ctx, st)
			e.publishRoster(st)

			if len(st.activeParticipants()) <= 1 {
				return e.finishLocked(ctx, st, FinishReasonForfeit)
			}
			if st.allActiveAnswered() {
				return e.advanceLocked(ctx, st, "forfeit")
			}

		default:
			// Already finished or cancelled; leaving is a no-op.
		}
		snap = st.snapshot()
		return nil
	})
	if err == nil && snap.ID == "" {
		// finish/cancel paths build their snapshot after the transition.
		snap, _ = e.Snapshot(ctx, roomID)
	}
	return snap, err
}

func (e *Engine) cancelLocked(ctx context.Context, st *roomState) error {
	e.timers.Cancel(st.room.ID)
	now := time.Now()
	st.room.Status = models.BattleStatusCancelled
	st.room.EndTime = &now
	e.persistRoom(ctx, st)

	e.broadcast.PublishToRoom(st.room.ID, TopicStatus, StatusEvent{
		RoomID: st.room.ID,
		Status: st.room.Status,
	})
	e.log.Info().Str("room_id", st.room.ID).Msg("room cancelled")
	e.dropState(st.room.ID)
	return nil
}

// Finish ends the room. Idempotent: finishing a FINISHED room returns its
// snapshot unchanged.
func (e *Engine) Finish(ctx context.Context, roomID, reason string) (RoomSnapshot, error) {
	var snap RoomSnapshot
	err := e.withRoom(ctx, roomID, func(st *roomState) error {
		if err := e.finishLocked(ctx, st, reason); err != nil {
			return err
		}
		snap = st.snapshot()
		return nil
	})
	return snap, err
}

func (e *Engine) finishLocked(ctx context.Context, st *roomState, reason string) error {
	if st.room.Status == models.BattleStatusFinished {
		return nil
	}

	// Stale timers must be impossible once the room is FINISHED.
	e.timers.Cancel(st.room.ID)

	now := time.Now()
	st.room.Status = models.BattleStatusFinished
	st.room.EndTime = &now

	rankings := st.rankings()
	if len(rankings) > 0 {
		winnerID := rankings[0].ParticipantID
		st.room.WinnerParticipantID = &winnerID
	}
	for _, p := range st.participants {
		if !p.Forfeited {
			p.Finished = true
		}
		if err := e.store.SaveParticipant(ctx, p); err != nil {
			e.log.Error().Err(err).Str("participant_id", p.ID).Msg("persist final participant failed")
		}
	}
	e.persistRoom(ctx, st)

	e.broadcast.PublishToRoom(st.room.ID, TopicStatus, StatusEvent{
		RoomID: st.room.ID,
		Status: st.room.Status,
		Reason: reason,
	})
	e.broadcast.PublishToRoom(st.room.ID, TopicResult, ResultEvent{
		RoomID:              st.room.ID,
		Reason:              reason,
		WinnerParticipantID: st.room.WinnerParticipantID,
		Rankings:            rankings,
		EndedAt:             now,
	})

	rec := BattleRecord{
		RoomID:         st.room.ID,
		QuizID:         st.room.QuizID,
		TotalQuestions: st.room.TotalQuestions,
		StartedAt:      st.room.StartTime,
		EndedAt:        now,
	}
	for _, r := range rankings {
		rec.Results = append(rec.Results, ParticipantRecord{
			ParticipantID:  r.ParticipantID,
			UserID:         r.UserID,
			DisplayName:    r.DisplayName,
			Score:          r.Score,
			CorrectAnswers: r.CorrectAnswers,
			Rank:           r.Rank,
			IsWinner:       r.Rank == 1 && st.room.WinnerParticipantID != nil && *st.room.WinnerParticipantID == r.ParticipantID,
			Forfeited:      r.Forfeited,
		})
	}
	if err := e.results.RecordBattle(ctx, rec); err != nil {
		// The transition is authoritative; the sink can be retried offline.
		e.log.Error().Err(err).Str("room_id", st.room.ID).Msg("record battle result failed")
	}

	e.log.Info().Str("room_id", st.room.ID).Str("reason", reason).Msg("battle finished")
	return nil
}

// Snapshot returns the room's current state, serialized with mutations.
func (e *Engine) Snapshot(ctx context.Context, roomID string) (RoomSnapshot, error) {
	var snap RoomSnapshot
	err := e.withRoom(ctx, roomID, func(st *roomState) error {
		snap = st.snapshot()
		return nil
	})
	return snap, err
}

// ListRooms returns lightweight snapshots straight from the store.
func (e *Engine) ListRooms(ctx context.Context, status string) ([]RoomSnapshot, error) {
	rooms, err := e.store.ListRoomsByStatus(ctx, status)
	if err != nil {
		return nil, err
	}
	out := make([]RoomSnapshot, 0, len(rooms))
	for i := range rooms {
		st := newRoomState(&rooms[i], nil)
		out = append(out, st.snapshot())
	}
	return out, nil
}

// persistRoom writes the room snapshot under its version CAS. A conflict
// means an out-of-band writer touched the row; the cached version is
// refreshed from the store and the write retried once.
func (e *Engine) persistRoom(ctx context.Context, st *roomState) {
	err := e.store.SaveRoom(ctx, st.room)
	if err == nil {
		return
	}
	if errors.Is(err, ErrVersionConflict) {
		if fresh, loadErr := e.store.LoadRoom(ctx, st.room.ID); loadErr == nil {
			st.room.Version = fresh.Version
			err = e.store.SaveRoom(ctx, st.room)
		}
	}
	if err != nil {
		e.log.Error().Err(err).Str("room_id", st.room.ID).Msg("persist room failed")
	}
}

// ErrVersionConflict is returned by Store.SaveRoom when the conditional
// write matched no row.
var ErrVersionConflict = errors.New("room version conflict")

func answersMatch(submitted, canonical string) bool {
	return strings.EqualFold(strings.TrimSpace(submitted), strings.TrimSpace(canonical))
}
