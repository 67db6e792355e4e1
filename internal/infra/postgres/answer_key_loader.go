package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"gamified-lms/internal/domain"
)

// AnswerKeyLoader reads answer keys straight from Postgres for the cache layers.
type AnswerKeyLoader struct {
	pool *pgxpool.Pool
}

func NewAnswerKeyLoader(pool *pgxpool.Pool) *AnswerKeyLoader {
	return &AnswerKeyLoader{pool: pool}
}

const answerKeyQuery = `
SELECT t.id, t.title, t.status,
       COALESCE(array_agg(q.id ORDER BY q.position) FILTER (WHERE q.id IS NOT NULL), '{}') AS question_ids,
       COALESCE(array_agg(q.correct_answer ORDER BY q.position) FILTER (WHERE q.id IS NOT NULL), '{}') AS answers
FROM topics t
LEFT JOIN questions q ON q.topic_id = t.id
WHERE t.id = $1
GROUP BY t.id, t.title, t.status`

func (l *AnswerKeyLoader) LoadAnswerKey(ctx context.Context, topicID int64) (domain.AnswerKey, error) {
	var (
		key         domain.AnswerKey
		status      string
		questionIDs []int64
		answers     []string
	)
	err := l.pool.QueryRow(ctx, answerKeyQuery, topicID).Scan(&key.TopicID, &key.Title, &status, &questionIDs, &answers)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.AnswerKey{}, domain.ErrTopicNotFound
	}
	if err != nil {
		return domain.AnswerKey{}, fmt.Errorf("load answer key: %w", err)
	}
	if len(questionIDs) != len(answers) {
		return domain.AnswerKey{}, fmt.Errorf("load answer key: %d ids for %d answers", len(questionIDs), len(answers))
	}

	key.Status = domain.TopicStatus(status)
	key.Entries = make([]domain.AnswerKeyItem, 0, len(questionIDs))
	for i, id := range questionIDs {
		key.Entries = append(key.Entries, domain.AnswerKeyItem{QuestionID: id, CorrectAnswer: domain.OptionKey(answers[i])})
	}
	return key, nil
}
