package level

import (
	"math/rand"
	"time"

	"classroom-levels-service/internal/domain"
)

// Outcome is the result of evaluating a quiz round.
type Outcome int

const (
	// Pending means not everybody has voted yet.
	Pending Outcome = iota
	// Continue means the round resolved and a new question was drawn.
	Continue
	// Complete means the target score was reached.
	Complete
)

func (o Outcome) String() string {
	switch o {
	case Pending:
		return "pending"
	case Continue:
		return "continue"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}

// Quiz is a team quiz decided by majority vote.
type Quiz struct {
	clock
	rnd     *rand.Rand
	pool    []domain.Question
	current domain.Question
	target  int
	score   int

	votes map[string]int
	// order holds voters in the order they first voted this round; it decides ties.
	order []string
}

func NewQuiz(cfg domain.LevelConfig, rnd *rand.Rand, now time.Time) *Quiz {
	q := &Quiz{
		clock:  clock{cfg: cfg, startedAt: now},
		rnd:    rnd,
		pool:   cfg.Pool,
		target: cfg.Target(),
		votes:  make(map[string]int),
	}
	q.current = q.draw()
	return q
}

func (q *Quiz) draw() domain.Question {
	return q.pool[q.rnd.Intn(len(q.pool))]
}

func (q *Quiz) Question() domain.Question { return q.current }

func (q *Quiz) Score() int { return q.score }

func (q *Quiz) TargetScore() int { return q.target }

// Votes returns how many participants voted this round.
func (q *Quiz) Votes() int { return len(q.votes) }

// Vote records choice for participant. A later vote replaces an earlier one;
// the choice is not checked against the option count.
func (q *Quiz) Vote(participant string, choice int) {
	if _, ok := q.votes[participant]; !ok {
		q.order = append(q.order, participant)
	}
	q.votes[participant] = choice
}

// Retract drops a pending vote, used when a participant leaves.
func (q *Quiz) Retract(participant string) {
	if _, ok := q.votes[participant]; !ok {
		return
	}
	delete(q.votes, participant)
	for i, id := range q.order {
		if id == participant {
			q.order = append(q.order[:i], q.order[i+1:]...)
			break
		}
	}
}

// Evaluate resolves the round once total participants have voted.
//
// The majority choice wins; on a tie the choice that was seen first, walking the
// voters in first-vote order, wins. A correct majority scores one point. Votes are
// cleared on every resolution. Reaching the target leaves the question untouched,
// otherwise a new one is drawn from the whole pool.
func (q *Quiz) Evaluate(total int) Outcome {
	if total == 0 || len(q.votes) < total {
		return Pending
	}

	if q.majority() == q.current.Answer {
		q.score++
	}
	q.votes = make(map[string]int)
	q.order = nil

	if q.score >= q.target {
		return Complete
	}
	q.current = q.draw()
	return Continue
}

func (q *Quiz) majority() int {
	counts := make(map[int]int, len(q.votes))
	seen := make([]int, 0, len(q.votes))
	for _, id := range q.order {
		choice := q.votes[id]
		if _, ok := counts[choice]; !ok {
			seen = append(seen, choice)
		}
		counts[choice]++
	}

	best, bestCount := seen[0], 0
	for _, choice := range seen {
		if counts[choice] > bestCount {
			best, bestCount = choice, counts[choice]
		}
	}
	return best
}

// Won is true once the target score is reached.
func (q *Quiz) Won(map[string]domain.Participant) bool {
	return q.score >= q.target
}
