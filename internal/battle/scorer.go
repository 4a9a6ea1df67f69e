package battle

const (
	basePoints          = 100.0
	DefaultTimeLimitSec = 30
)

// Scorer computes points for an answer. Pure, no I/O.
type Scorer struct {
	DefaultLimitSec int
}

func NewScorer() *Scorer {
	return &Scorer{DefaultLimitSec: DefaultTimeLimitSec}
}

// Score awards base points plus a speed bonus that decays linearly over the
// question's time limit. Incorrect answers score zero. A non-positive limit
// falls back to the configured default instead of being an error.
func (s *Scorer) Score(isCorrect bool, elapsedMs int64, limitSec int) float64 {
	if !isCorrect {
		return 0
	}
	if limitSec <= 0 {
		limitSec = s.DefaultLimitSec
		if limitSec <= 0 {
			limitSec = DefaultTimeLimitSec
		}
	}

	remaining := 1 - float64(elapsedMs)/(float64(limitSec)*1000)
	if remaining < 0 {
		remaining = 0
	}
	return basePoints + basePoints*remaining
}

// ScoreQuestion scales Score by the question's point value, with 100 points
// reproducing Score exactly.
func (s *Scorer) ScoreQuestion(isCorrect bool, elapsedMs int64, limitSec, points int) float64 {
	raw := s.Score(isCorrect, elapsedMs, limitSec)
	if points <= 0 || points == 100 {
		return raw
	}
	return raw * float64(points) / 100
}
