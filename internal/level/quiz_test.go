package level

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"classroom-levels-service/internal/domain"
)

func quizConfig(target int) domain.LevelConfig {
	return domain.LevelConfig{
		ID:          "quiz",
		Type:        domain.LevelQuiz,
		Title:       "Quiz",
		TargetScore: target,
		Pool: []domain.Question{
			{Prompt: "2+2", Options: []string{"4", "5"}, Answer: 0},
			{Prompt: "3+3", Options: []string{"5", "6"}, Answer: 1},
		},
	}
}

// singleQuestion pins the pool so the correct answer is known up front.
func singleQuestion(target int) domain.LevelConfig {
	cfg := quizConfig(target)
	cfg.Pool = cfg.Pool[:1]
	return cfg
}

func TestQuizMajorityScores(t *testing.T) {
	q := NewQuiz(singleQuestion(5), rand.New(rand.NewSource(1)), start)

	q.Vote("p1", 0)
	q.Vote("p2", 0)
	q.Vote("p3", 1)

	require.Equal(t, Continue, q.Evaluate(3))
	require.Equal(t, 1, q.Score())
	require.Zero(t, q.Votes())
}

func TestQuizWrongMajorityKeepsScore(t *testing.T) {
	q := NewQuiz(singleQuestion(5), rand.New(rand.NewSource(1)), start)

	q.Vote("p1", 1)
	q.Vote("p2", 1)
	q.Vote("p3", 0)

	require.Equal(t, Continue, q.Evaluate(3))
	require.Zero(t, q.Score())
	require.Zero(t, q.Votes())
}

func TestQuizCompleteKeepsQuestion(t *testing.T) {
	q := NewQuiz(quizConfig(1), rand.New(rand.NewSource(7)), start)
	asked := q.Question()

	q.Vote("p1", asked.Answer)

	require.Equal(t, Complete, q.Evaluate(1))
	require.Equal(t, asked, q.Question())
	require.True(t, q.Won(nil))
}

func TestQuizPendingUntilEveryoneVoted(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	for i := 0; i < 200; i++ {
		q := NewQuiz(quizConfig(100), rnd, start)
		total := 1 + rnd.Intn(8)
		ids := rnd.Perm(total)
		for _, id := range ids[:total-1] {
			q.Vote(fmt.Sprintf("p%d", id), rnd.Intn(2))
			require.Equal(t, Pending, q.Evaluate(total))
		}
		q.Vote(fmt.Sprintf("p%d", ids[total-1]), rnd.Intn(2))
		require.NotEqual(t, Pending, q.Evaluate(total))
		require.Zero(t, q.Votes())
	}
}

func TestQuizNoParticipantsNeverResolves(t *testing.T) {
	q := NewQuiz(quizConfig(1), rand.New(rand.NewSource(1)), start)
	require.Equal(t, Pending, q.Evaluate(0))
}

func TestQuizRevoteIsIdempotent(t *testing.T) {
	q := NewQuiz(singleQuestion(5), rand.New(rand.NewSource(1)), start)

	q.Vote("p1", 1)
	q.Vote("p1", 1)
	require.Equal(t, 1, q.Votes())

	q.Vote("p1", 0)
	require.Equal(t, Continue, q.Evaluate(1))
	require.Equal(t, 1, q.Score())
}

func TestQuizTieGoesToFirstVoter(t *testing.T) {
	q := NewQuiz(singleQuestion(5), rand.New(rand.NewSource(1)), start)

	q.Vote("p1", 1)
	q.Vote("p2", 0)
	require.Equal(t, Continue, q.Evaluate(2))
	require.Zero(t, q.Score())

	q.Vote("p2", 0)
	q.Vote("p1", 1)
	require.Equal(t, Continue, q.Evaluate(2))
	require.Equal(t, 1, q.Score())
}

func TestQuizRetract(t *testing.T) {
	q := NewQuiz(singleQuestion(5), rand.New(rand.NewSource(1)), start)

	q.Vote("p1", 1)
	q.Vote("p2", 0)
	q.Retract("p1")
	q.Retract("missing")

	require.Equal(t, 1, q.Votes())
	require.Equal(t, Continue, q.Evaluate(1))
	require.Equal(t, 1, q.Score())
}
