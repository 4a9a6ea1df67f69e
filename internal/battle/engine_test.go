package battle

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Hun425/CS-Quiz-sub001/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeQuestions() []Question {
	return []Question{
		{Index: 0, Prompt: "q0", Options: []string{"a", "b"}, Answer: "a", Points: 100},
		{Index: 1, Prompt: "q1", Options: []string{"a", "b"}, Answer: "b", Points: 100},
		{Index: 2, Prompt: "q2", Options: []string{"a", "b"}, Answer: "a", Points: 100},
	}
}

type engineFixture struct {
	engine    *Engine
	store     *memStore
	results   *fakeResults
	broadcast *fakeBroadcast
}

func newFixture(t *testing.T, questions []Question) *engineFixture {
	t.Helper()
	store := newMemStore()
	results := &fakeResults{}
	broadcast := newFakeBroadcast()
	engine := NewEngine(store, &fakeContent{questions: questions}, fakeIdentity{}, results, broadcast, zerolog.Nop(), Options{
		StartGraceDelay: 20 * time.Millisecond,
		LockTimeout:     2 * time.Second,
	})
	return &engineFixture{engine: engine, store: store, results: results, broadcast: broadcast}
}

// startedBattle creates a room, joins two ready players and starts the run.
func startedBattle(t *testing.T, f *engineFixture) (roomID string, p1, p2 string) {
	t.Helper()
	ctx := context.Background()

	snap, err := f.engine.CreateRoom(ctx, 1, 2, 30)
	require.NoError(t, err)
	roomID = snap.ID

	v1, _, err := f.engine.Join(ctx, roomID, "u1", "alice")
	require.NoError(t, err)
	v2, _, err := f.engine.Join(ctx, roomID, "u2", "bob")
	require.NoError(t, err)

	_, err = f.engine.SetReady(ctx, roomID, v1.ID, true)
	require.NoError(t, err)
	snap, err = f.engine.SetReady(ctx, roomID, v2.ID, true)
	require.NoError(t, err)
	require.Equal(t, models.BattleStatusStarting, snap.Status)

	snap, err = f.engine.Start(ctx, roomID)
	require.NoError(t, err)
	require.Equal(t, models.BattleStatusInProgress, snap.Status)
	require.Equal(t, 0, snap.CurrentQuestionIndex)

	return roomID, v1.ID, v2.ID
}

func TestCreateRoomDefaults(t *testing.T) {
	f := newFixture(t, threeQuestions())
	snap, err := f.engine.CreateRoom(context.Background(), 1, 0, 0)
	require.NoError(t, err)

	assert.Equal(t, models.BattleStatusWaiting, snap.Status)
	assert.Equal(t, DefaultMaxParticipants, snap.MaxParticipants)
	assert.Equal(t, DefaultTimeLimitSec, snap.QuestionTimeLimitSec)
	assert.Equal(t, -1, snap.CurrentQuestionIndex)
	assert.Equal(t, 3, snap.TotalQuestions)
}

func TestCreateRoomEmptyQuiz(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.engine.CreateRoom(context.Background(), 1, 2, 30)
	assert.Error(t, err)
}

func TestJoinValidation(t *testing.T) {
	f := newFixture(t, threeQuestions())
	ctx := context.Background()

	snap, err := f.engine.CreateRoom(ctx, 1, 2, 30)
	require.NoError(t, err)
	roomID := snap.ID

	_, _, err = f.engine.Join(ctx, roomID, "u1", "alice")
	require.NoError(t, err)
	_, _, err = f.engine.Join(ctx, roomID, "u1", "alice again")
	assert.ErrorIs(t, err, ErrAlreadyJoined)

	_, _, err = f.engine.Join(ctx, roomID, "u2", "bob")
	require.NoError(t, err)
	_, _, err = f.engine.Join(ctx, roomID, "u3", "carol")
	assert.ErrorIs(t, err, ErrRoomFull)

	_, _, err = f.engine.Join(ctx, "no-such-room", "u4", "dave")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestJoinResolvesDisplayName(t *testing.T) {
	f := newFixture(t, threeQuestions())
	ctx := context.Background()

	snap, err := f.engine.CreateRoom(ctx, 1, 2, 30)
	require.NoError(t, err)

	view, _, err := f.engine.Join(ctx, snap.ID, "u1", "")
	require.NoError(t, err)
	assert.Equal(t, "player-u1", view.DisplayName)
}

func TestConcurrentJoinsRespectCapacity(t *testing.T) {
	f := newFixture(t, threeQuestions())
	ctx := context.Background()

	snap, err := f.engine.CreateRoom(ctx, 1, 4, 30)
	require.NoError(t, err)
	roomID := snap.ID

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = f.engine.Join(ctx, roomID, fmt.Sprintf("u%d", i), "")
		}(i)
	}
	wg.Wait()

	joined := 0
	for _, err := range errs {
		if err == nil {
			joined++
		} else {
			assert.ErrorIs(t, err, ErrRoomFull)
		}
	}
	assert.Equal(t, 4, joined)

	final, err := f.engine.Snapshot(ctx, roomID)
	require.NoError(t, err)
	assert.Len(t, final.Participants, 4)
}

func TestReadyQuorumOpensGraceWindow(t *testing.T) {
	f := newFixture(t, threeQuestions())
	ctx := context.Background()

	snap, err := f.engine.CreateRoom(ctx, 1, 2, 30)
	require.NoError(t, err)
	roomID := snap.ID

	v1, _, err := f.engine.Join(ctx, roomID, "u1", "alice")
	require.NoError(t, err)
	v2, _, err := f.engine.Join(ctx, roomID, "u2", "bob")
	require.NoError(t, err)

	snap, err = f.engine.SetReady(ctx, roomID, v1.ID, true)
	require.NoError(t, err)
	assert.Equal(t, models.BattleStatusWaiting, snap.Status)

	snap, err = f.engine.SetReady(ctx, roomID, v2.ID, true)
	require.NoError(t, err)
	assert.Equal(t, models.BattleStatusStarting, snap.Status)

	// The armed grace timer starts the battle on its own.
	assert.Eventually(t, func() bool {
		s, err := f.engine.Snapshot(ctx, roomID)
		return err == nil && s.Status == models.BattleStatusInProgress
	}, time.Second, 10*time.Millisecond)
}

func TestUnreadyDuringGraceRevertsToWaiting(t *testing.T) {
	f := newFixture(t, threeQuestions())
	ctx := context.Background()

	snap, err := f.engine.CreateRoom(ctx, 1, 2, 30)
	require.NoError(t, err)
	roomID := snap.ID

	v1, _, err := f.engine.Join(ctx, roomID, "u1", "alice")
	require.NoError(t, err)
	v2, _, err := f.engine.Join(ctx, roomID, "u2", "bob")
	require.NoError(t, err)

	_, err = f.engine.SetReady(ctx, roomID, v1.ID, true)
	require.NoError(t, err)
	snap, err = f.engine.SetReady(ctx, roomID, v2.ID, true)
	require.NoError(t, err)
	require.Equal(t, models.BattleStatusStarting, snap.Status)

	snap, err = f.engine.SetReady(ctx, roomID, v2.ID, false)
	require.NoError(t, err)
	assert.Equal(t, models.BattleStatusWaiting, snap.Status)

	// The cancelled window must never produce a start.
	time.Sleep(60 * time.Millisecond)
	snap, err = f.engine.Snapshot(ctx, roomID)
	require.NoError(t, err)
	assert.Equal(t, models.BattleStatusWaiting, snap.Status)
}

func TestStartWithoutQuorum(t *testing.T) {
	f := newFixture(t, threeQuestions())
	ctx := context.Background()

	snap, err := f.engine.CreateRoom(ctx, 1, 2, 30)
	require.NoError(t, err)
	roomID := snap.ID

	_, _, err = f.engine.Join(ctx, roomID, "u1", "alice")
	require.NoError(t, err)

	_, err = f.engine.Start(ctx, roomID)
	assert.ErrorIs(t, err, ErrQuorumNotMet)
}

func TestStartIsIdempotent(t *testing.T) {
	f := newFixture(t, threeQuestions())
	roomID, _, _ := startedBattle(t, f)

	snap, err := f.engine.Start(context.Background(), roomID)
	require.NoError(t, err)
	assert.Equal(t, models.BattleStatusInProgress, snap.Status)
	assert.Equal(t, 0, snap.CurrentQuestionIndex)

	// Exactly one question broadcast despite the second Start call.
	assert.Len(t, f.broadcast.byTopic(TopicQuestion), 1)
}

func TestJoinAfterStartRejected(t *testing.T) {
	f := newFixture(t, threeQuestions())
	roomID, _, _ := startedBattle(t, f)

	_, _, err := f.engine.Join(context.Background(), roomID, "u9", "late")
	assert.ErrorIs(t, err, ErrRoomNotJoinable)
}

func TestSubmitAnswerScoresAndReplies(t *testing.T) {
	f := newFixture(t, threeQuestions())
	roomID, p1, _ := startedBattle(t, f)
	ctx := context.Background()

	res, err := f.engine.SubmitAnswer(ctx, roomID, p1, 0, "A")
	require.NoError(t, err)
	assert.True(t, res.Answer.IsCorrect)
	assert.Equal(t, "a", res.CorrectAnswer)
	assert.GreaterOrEqual(t, res.Answer.PointsAwarded, 100.0)
	assert.LessOrEqual(t, res.Answer.PointsAwarded, 200.0)
	assert.Equal(t, res.Answer.PointsAwarded, res.TotalScore)
}

func TestSubmitAnswerIdempotent(t *testing.T) {
	f := newFixture(t, threeQuestions())
	roomID, p1, _ := startedBattle(t, f)
	ctx := context.Background()

	first, err := f.engine.SubmitAnswer(ctx, roomID, p1, 0, "a")
	require.NoError(t, err)

	second, err := f.engine.SubmitAnswer(ctx, roomID, p1, 0, "b")
	assert.ErrorIs(t, err, ErrDuplicateAnswer)
	assert.Equal(t, first.Answer.ID, second.Answer.ID)
	assert.Equal(t, first.Answer.PointsAwarded, second.Answer.PointsAwarded)
	assert.Equal(t, first.TotalScore, second.TotalScore)

	answers, err := f.store.ListAnswers(ctx, roomID)
	require.NoError(t, err)
	assert.Len(t, answers, 1)
}

func TestSubmitAnswerValidation(t *testing.T) {
	f := newFixture(t, threeQuestions())
	roomID, p1, _ := startedBattle(t, f)
	ctx := context.Background()

	_, err := f.engine.SubmitAnswer(ctx, roomID, p1, 2, "a")
	assert.ErrorIs(t, err, ErrWrongQuestionIndex)

	_, err = f.engine.SubmitAnswer(ctx, roomID, "ghost", 0, "a")
	assert.ErrorIs(t, err, ErrParticipantNotFound)
}

func TestAllAnsweredAdvances(t *testing.T) {
	f := newFixture(t, threeQuestions())
	roomID, p1, p2 := startedBattle(t, f)
	ctx := context.Background()

	_, err := f.engine.SubmitAnswer(ctx, roomID, p1, 0, "a")
	require.NoError(t, err)
	_, err = f.engine.SubmitAnswer(ctx, roomID, p2, 0, "b")
	require.NoError(t, err)

	snap, err := f.engine.Snapshot(ctx, roomID)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.CurrentQuestionIndex)
}

func TestRacingSubmissionsAdvanceOnce(t *testing.T) {
	f := newFixture(t, threeQuestions())
	roomID, p1, p2 := startedBattle(t, f)
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, pid := range []string{p1, p2} {
		wg.Add(1)
		go func(pid string) {
			defer wg.Done()
			_, err := f.engine.SubmitAnswer(ctx, roomID, pid, 0, "a")
			assert.NoError(t, err)
		}(pid)
	}
	wg.Wait()

	snap, err := f.engine.Snapshot(ctx, roomID)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.CurrentQuestionIndex)
	assert.Len(t, f.broadcast.byTopic(TopicQuestion), 2)
}

func TestFullRunToCompletion(t *testing.T) {
	f := newFixture(t, threeQuestions())
	roomID, p1, p2 := startedBattle(t, f)
	ctx := context.Background()

	answers := []string{"a", "b", "a"}
	for i, correct := range answers {
		_, err := f.engine.SubmitAnswer(ctx, roomID, p1, i, correct)
		require.NoError(t, err)
		_, err = f.engine.SubmitAnswer(ctx, roomID, p2, i, "wrong")
		require.NoError(t, err)
	}

	snap, err := f.engine.Snapshot(ctx, roomID)
	require.NoError(t, err)
	assert.Equal(t, models.BattleStatusFinished, snap.Status)
	require.NotNil(t, snap.WinnerParticipantID)
	assert.Equal(t, p1, *snap.WinnerParticipantID)
	assert.NotNil(t, snap.EndTime)

	require.Len(t, f.results.recorded(), 1)
	rec := f.results.recorded()[0]
	require.Len(t, rec.Results, 2)
	assert.Equal(t, 1, rec.Results[0].Rank)
	assert.True(t, rec.Results[0].IsWinner)
	assert.Equal(t, 3, rec.Results[0].CorrectAnswers)
	assert.Equal(t, 2, rec.Results[1].Rank)
	assert.Equal(t, 0, rec.Results[1].CorrectAnswers)

	assert.Len(t, f.broadcast.byTopic(TopicResult), 1)
}

func TestAdvanceClampsAndFinishesOnce(t *testing.T) {
	f := newFixture(t, threeQuestions())
	roomID, _, _ := startedBattle(t, f)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		snap, err := f.engine.Advance(ctx, roomID)
		require.NoError(t, err)
		if i >= 2 {
			assert.Equal(t, models.BattleStatusFinished, snap.Status)
			// Advancing past the last question lands the index exactly
			// one past it and never further.
			assert.Equal(t, snap.TotalQuestions, snap.CurrentQuestionIndex)
		}
	}

	assert.Len(t, f.results.recorded(), 1)
	assert.Len(t, f.broadcast.byTopic(TopicResult), 1)
}

func TestFinishIsIdempotent(t *testing.T) {
	f := newFixture(t, threeQuestions())
	roomID, _, _ := startedBattle(t, f)
	ctx := context.Background()

	first, err := f.engine.Finish(ctx, roomID, FinishReasonCompleted)
	require.NoError(t, err)
	require.Equal(t, models.BattleStatusFinished, first.Status)

	second, err := f.engine.Finish(ctx, roomID, FinishReasonCompleted)
	require.NoError(t, err)
	assert.Equal(t, first.EndTime, second.EndTime)
	assert.Len(t, f.results.recorded(), 1)
}

func TestStaleQuestionExpiryIsNoOp(t *testing.T) {
	f := newFixture(t, threeQuestions())
	roomID, p1, p2 := startedBattle(t, f)
	ctx := context.Background()

	_, err := f.engine.SubmitAnswer(ctx, roomID, p1, 0, "a")
	require.NoError(t, err)
	_, err = f.engine.SubmitAnswer(ctx, roomID, p2, 0, "a")
	require.NoError(t, err)

	// A late fire for the already played question must change nothing.
	f.engine.questionExpired(roomID, 0)

	snap, err := f.engine.Snapshot(ctx, roomID)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.CurrentQuestionIndex)
	assert.Equal(t, models.BattleStatusInProgress, snap.Status)
}

func TestQuestionTimeoutAdvances(t *testing.T) {
	questions := threeQuestions()
	questions[0].TimeLimitSec = 1
	f := newFixture(t, questions)
	roomID, _, _ := startedBattle(t, f)
	ctx := context.Background()

	assert.Eventually(t, func() bool {
		snap, err := f.engine.Snapshot(ctx, roomID)
		return err == nil && snap.CurrentQuestionIndex == 1
	}, 3*time.Second, 50*time.Millisecond)
}

func TestLeaveWhileWaiting(t *testing.T) {
	f := newFixture(t, threeQuestions())
	ctx := context.Background()

	snap, err := f.engine.CreateRoom(ctx, 1, 2, 30)
	require.NoError(t, err)
	roomID := snap.ID

	v1, _, err := f.engine.Join(ctx, roomID, "u1", "alice")
	require.NoError(t, err)
	v2, _, err := f.engine.Join(ctx, roomID, "u2", "bob")
	require.NoError(t, err)

	snap, err = f.engine.Leave(ctx, roomID, v1.ID)
	require.NoError(t, err)
	assert.Len(t, snap.Participants, 1)
	assert.Equal(t, models.BattleStatusWaiting, snap.Status)

	// The last participant leaving cancels the room.
	snap, err = f.engine.Leave(ctx, roomID, v2.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BattleStatusCancelled, snap.Status)
}

func TestLeaveDuringGraceReverts(t *testing.T) {
	f := newFixture(t, threeQuestions())
	ctx := context.Background()

	snap, err := f.engine.CreateRoom(ctx, 1, 3, 30)
	require.NoError(t, err)
	roomID := snap.ID

	v1, _, err := f.engine.Join(ctx, roomID, "u1", "alice")
	require.NoError(t, err)
	v2, _, err := f.engine.Join(ctx, roomID, "u2", "bob")
	require.NoError(t, err)
	v3, _, err := f.engine.Join(ctx, roomID, "u3", "carol")
	require.NoError(t, err)

	for _, pid := range []string{v1.ID, v2.ID, v3.ID} {
		_, err = f.engine.SetReady(ctx, roomID, pid, true)
		require.NoError(t, err)
	}

	// Two ready players remain, so the window closes and reopens.
	snap, err = f.engine.Leave(ctx, roomID, v3.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BattleStatusStarting, snap.Status)
	assert.Len(t, snap.Participants, 2)
}

func TestUnreadyLeaverOpensGraceWindow(t *testing.T) {
	f := newFixture(t, threeQuestions())
	ctx := context.Background()

	snap, err := f.engine.CreateRoom(ctx, 1, 3, 30)
	require.NoError(t, err)
	roomID := snap.ID

	v1, _, err := f.engine.Join(ctx, roomID, "u1", "alice")
	require.NoError(t, err)
	v2, _, err := f.engine.Join(ctx, roomID, "u2", "bob")
	require.NoError(t, err)
	v3, _, err := f.engine.Join(ctx, roomID, "u3", "carol")
	require.NoError(t, err)

	for _, pid := range []string{v1.ID, v2.ID} {
		_, err = f.engine.SetReady(ctx, roomID, pid, true)
		require.NoError(t, err)
	}

	snap, err = f.engine.Snapshot(ctx, roomID)
	require.NoError(t, err)
	require.Equal(t, models.BattleStatusWaiting, snap.Status)

	// The only non-ready player leaving makes the remaining roster all
	// ready, which opens the grace window on its own.
	snap, err = f.engine.Leave(ctx, roomID, v3.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BattleStatusStarting, snap.Status)
	assert.Len(t, snap.Participants, 2)
}

func TestForfeitFinishesWithLastActive(t *testing.T) {
	f := newFixture(t, threeQuestions())
	roomID, p1, p2 := startedBattle(t, f)
	ctx := context.Background()

	snap, err := f.engine.Leave(ctx, roomID, p1)
	require.NoError(t, err)
	assert.Equal(t, models.BattleStatusFinished, snap.Status)

	require.Len(t, f.results.recorded(), 1)
	rec := f.results.recorded()[0]
	for _, r := range rec.Results {
		if r.ParticipantID == p1 {
			assert.True(t, r.Forfeited)
		}
		if r.ParticipantID == p2 {
			assert.False(t, r.Forfeited)
		}
	}
}

func TestForfeitUnblocksQuestion(t *testing.T) {
	f := newFixture(t, threeQuestions())
	ctx := context.Background()

	snap, err := f.engine.CreateRoom(ctx, 1, 3, 30)
	require.NoError(t, err)
	roomID := snap.ID

	var pids []string
	for _, u := range []string{"u1", "u2", "u3"} {
		v, _, err := f.engine.Join(ctx, roomID, u, "")
		require.NoError(t, err)
		pids = append(pids, v.ID)
	}
	for _, pid := range pids {
		_, err = f.engine.SetReady(ctx, roomID, pid, true)
		require.NoError(t, err)
	}
	_, err = f.engine.Start(ctx, roomID)
	require.NoError(t, err)

	_, err = f.engine.SubmitAnswer(ctx, roomID, pids[0], 0, "a")
	require.NoError(t, err)
	_, err = f.engine.SubmitAnswer(ctx, roomID, pids[1], 0, "a")
	require.NoError(t, err)

	// The only unanswered participant forfeits, so the question completes.
	snap, err = f.engine.Leave(ctx, roomID, pids[2])
	require.NoError(t, err)
	assert.Equal(t, models.BattleStatusInProgress, snap.Status)
	assert.Equal(t, 1, snap.CurrentQuestionIndex)

	_, err = f.engine.SubmitAnswer(ctx, roomID, pids[2], 1, "b")
	assert.ErrorIs(t, err, ErrParticipantForfeited)
}

func TestSnapshotSurvivesCacheDrop(t *testing.T) {
	f := newFixture(t, threeQuestions())
	roomID, p1, _ := startedBattle(t, f)
	ctx := context.Background()

	_, err := f.engine.SubmitAnswer(ctx, roomID, p1, 0, "a")
	require.NoError(t, err)

	// Simulate a restart: the next snapshot is rebuilt from the store.
	f.engine.dropState(roomID)

	snap, err := f.engine.Snapshot(ctx, roomID)
	require.NoError(t, err)
	assert.Equal(t, models.BattleStatusInProgress, snap.Status)
	assert.Len(t, snap.Participants, 2)
	for _, p := range snap.Participants {
		if p.ID == p1 {
			assert.True(t, p.AnsweredCurrent)
			assert.Greater(t, p.Score, 0.0)
		}
	}
}

func TestListRoomsFiltersByStatus(t *testing.T) {
	f := newFixture(t, threeQuestions())
	ctx := context.Background()

	waiting, err := f.engine.CreateRoom(ctx, 1, 2, 30)
	require.NoError(t, err)
	_, err = f.engine.CreateRoom(ctx, 1, 2, 30)
	require.NoError(t, err)

	rooms, err := f.engine.ListRooms(ctx, models.BattleStatusWaiting)
	require.NoError(t, err)
	assert.Len(t, rooms, 2)

	_, _, err = f.engine.Join(ctx, waiting.ID, "u1", "")
	require.NoError(t, err)
	v, _, err := f.engine.Join(ctx, waiting.ID, "u2", "")
	require.NoError(t, err)
	_, err = f.engine.Leave(ctx, waiting.ID, v.ID)
	require.NoError(t, err)

	rooms, err = f.engine.ListRooms(ctx, models.BattleStatusCancelled)
	require.NoError(t, err)
	assert.Empty(t, rooms)
}
