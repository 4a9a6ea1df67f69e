package battle

import (
	"sort"
	"time"

	"github.com/Hun425/CS-Quiz-sub001/internal/models"
)

// RoomSnapshot is the externally visible state of a room at one point in
// time. Mutating operations return it so callers never touch engine memory.
type RoomSnapshot struct {
	ID                       string            `json:"id"`
	QuizID                   uint              `json:"quiz_id"`
	Status                   string            `json:"status"`
	MaxParticipants          int               `json:"max_participants"`
	CurrentQuestionIndex     int               `json:"current_question_index"`
	QuestionTimeLimitSec     int               `json:"question_time_limit_sec"`
	TotalQuestions           int               `json:"total_questions"`
	StartTime                *time.Time        `json:"start_time,omitempty"`
	EndTime                  *time.Time        `json:"end_time,omitempty"`
	CurrentQuestionStartTime *time.Time        `json:"current_question_start_time,omitempty"`
	WinnerParticipantID      *string           `json:"winner_participant_id,omitempty"`
	Version                  int64             `json:"version"`
	Participants             []ParticipantView `json:"participants"`
}

// roomState is the engine's in-memory image of one room. It is only touched
// while the room's guard slot is held; the store keeps durable snapshots.
type roomState struct {
	room            *models.BattleRoom
	participants    []*models.Participant // join order
	questions       []Question
	answers         map[string]map[int]*models.Answer
	answeredCurrent map[string]bool
}

func newRoomState(room *models.BattleRoom, questions []Question) *roomState {
	st := &roomState{
		room:            room,
		questions:       questions,
		answers:         make(map[string]map[int]*models.Answer),
		answeredCurrent: make(map[string]bool),
	}
	for i := range room.Participants {
		p := room.Participants[i]
		st.participants = append(st.participants, &p)
	}
	sort.SliceStable(st.participants, func(a, b int) bool {
		return st.participants[a].JoinedAt.Before(st.participants[b].JoinedAt)
	})
	return st
}

func (st *roomState) participant(id string) *models.Participant {
	for _, p := range st.participants {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (st *roomState) participantByUser(userID string) *models.Participant {
	for _, p := range st.participants {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

func (st *roomState) removeParticipant(id string) {
	for i, p := range st.participants {
		if p.ID == id {
			st.participants = append(st.participants[:i], st.participants[i+1:]...)
			delete(st.answers, id)
			delete(st.answeredCurrent, id)
			return
		}
	}
}

// active participants are still competing: not forfeited.
func (st *roomState) activeParticipants() []*models.Participant {
	var out []*models.Participant
	for _, p := range st.participants {
		if !p.Forfeited {
			out = append(out, p)
		}
	}
	return out
}

// quorumMet is the WAITING→STARTING condition: at least two participants,
// everyone ready, and capacity respected.
func (st *roomState) quorumMet() bool {
	if len(st.participants) < 2 || len(st.participants) > st.room.MaxParticipants {
		return false
	}
	for _, p := range st.participants {
		if !p.Ready {
			return false
		}
	}
	return true
}

func (st *roomState) allActiveAnswered() bool {
	active := st.activeParticipants()
	if len(active) == 0 {
		return false
	}
	for _, p := range active {
		if !st.answeredCurrent[p.ID] {
			return false
		}
	}
	return true
}

func (st *roomState) answerFor(participantID string, questionIndex int) *models.Answer {
	if byIndex, ok := st.answers[participantID]; ok {
		return byIndex[questionIndex]
	}
	return nil
}

func (st *roomState) putAnswer(a *models.Answer) {
	byIndex, ok := st.answers[a.ParticipantID]
	if !ok {
		byIndex = make(map[int]*models.Answer)
		st.answers[a.ParticipantID] = byIndex
	}
	byIndex[a.QuestionIndex] = a
}

func (st *roomState) correctCount(participantID string) int {
	n := 0
	for _, a := range st.answers[participantID] {
		if a.IsCorrect {
			n++
		}
	}
	return n
}

func (st *roomState) currentQuestion() (Question, bool) {
	idx := st.room.CurrentQuestionIndex
	if idx < 0 || idx >= len(st.questions) {
		return Question{}, false
	}
	return st.questions[idx], true
}

func (st *roomState) questionTimeLimit(q Question) int {
	if q.TimeLimitSec > 0 {
		return q.TimeLimitSec
	}
	return st.room.QuestionTimeLimitSec
}

func (st *roomState) views() []ParticipantView {
	out := make([]ParticipantView, 0, len(st.participants))
	for _, p := range st.participants {
		out = append(out, ParticipantView{
			ID:              p.ID,
			UserID:          p.UserID,
			DisplayName:     p.DisplayName,
			Score:           p.Score,
			Ready:           p.Ready,
			Forfeited:       p.Forfeited,
			AnsweredCurrent: st.answeredCurrent[p.ID],
		})
	}
	return out
}

func (st *roomState) progress() []ParticipantProgress {
	out := make([]ParticipantProgress, 0, len(st.participants))
	for _, p := range st.participants {
		out = append(out, ParticipantProgress{
			ParticipantID:   p.ID,
			DisplayName:     p.DisplayName,
			Score:           p.Score,
			CorrectAnswers:  st.correctCount(p.ID),
			AnsweredCurrent: st.answeredCurrent[p.ID],
		})
	}
	return out
}

func (st *roomState) snapshot() RoomSnapshot {
	r := st.room
	return RoomSnapshot{
		ID:                       r.ID,
		QuizID:                   r.QuizID,
		Status:                   r.Status,
		MaxParticipants:          r.MaxParticipants,
		CurrentQuestionIndex:     r.CurrentQuestionIndex,
		QuestionTimeLimitSec:     r.QuestionTimeLimitSec,
		TotalQuestions:           r.TotalQuestions,
		StartTime:                r.StartTime,
		EndTime:                  r.EndTime,
		CurrentQuestionStartTime: r.CurrentQuestionStartTime,
		WinnerParticipantID:      r.WinnerParticipantID,
		Version:                  r.Version,
		Participants:             st.views(),
	}
}

// rankings sorts participants by score descending (stable, so earlier
// joiners keep their position on ties) and assigns shared ranks: a rank is
// one plus the number of strictly higher scores.
func (st *roomState) rankings() []RankedParticipant {
	sorted := make([]*models.Participant, len(st.participants))
	copy(sorted, st.participants)
	sort.SliceStable(sorted, func(a, b int) bool {
		return sorted[a].Score > sorted[b].Score
	})

	out := make([]RankedParticipant, 0, len(sorted))
	for i, p := range sorted {
		rank := i + 1
		if i > 0 && p.Score == sorted[i-1].Score {
			rank = out[i-1].Rank
		}
		out = append(out, RankedParticipant{
			ParticipantID:  p.ID,
			UserID:         p.UserID,
			DisplayName:    p.DisplayName,
			Score:          p.Score,
			CorrectAnswers: st.correctCount(p.ID),
			Rank:           rank,
			Forfeited:      p.Forfeited,
		})
	}
	return out
}
