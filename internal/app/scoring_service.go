package app

import (
	"context"

	"gamified-lms/internal/domain"
	"gamified-lms/internal/logger"
)

// PointsAwarder credits gamification points after a graded submission.
type PointsAwarder interface {
	Award(ctx context.Context, actor domain.Actor, points int) error
}

// ScoringService grades a student's full answer set for a topic.
type ScoringService struct {
	keys             AnswerKeyRepository
	responses        ResponseRepository
	awarder          PointsAwarder
	pointsPerCorrect int
	log              *logger.Logger
}

func NewScoringService(keys AnswerKeyRepository, responses ResponseRepository, awarder PointsAwarder, pointsPerCorrect int, log *logger.Logger) *ScoringService {
	return &ScoringService{
		keys:             keys,
		responses:        responses,
		awarder:          awarder,
		pointsPerCorrect: pointsPerCorrect,
		log:              log.With("service", "ScoringService"),
	}
}

// SubmitResponses grades answers positionally against the topic's answer key and stores one
// response per question as a single batch. Nothing is written when validation fails.
func (s *ScoringService) SubmitResponses(ctx context.Context, actor domain.Actor, topicID int64, answers []domain.OptionKey) (domain.ScoreSummary, error) {
	if err := domain.Authorize(actor.Role, domain.RoleStudent); err != nil {
		return domain.ScoreSummary{}, err
	}

	key, err := s.keys.GetAnswerKey(ctx, topicID)
	if err != nil {
		return domain.ScoreSummary{}, err
	}
	if key.Status != domain.TopicStatusPublished {
		return domain.ScoreSummary{}, domain.ErrTopicNotFound
	}
	if len(key.Entries) == 0 {
		return domain.ScoreSummary{}, domain.Validation("responses", "topic has no questions to answer")
	}
	if len(answers) != len(key.Entries) {
		return domain.ScoreSummary{}, domain.Validation("responses", "expected %d answers, got %d", len(key.Entries), len(answers))
	}
	for i, a := range answers {
		if !a.Valid() {
			return domain.ScoreSummary{}, domain.Validation("responses", "answer %d must be one of option_a, option_b, option_c, option_d", i)
		}
	}

	rows, summary := gradeAnswers(actor.UserID, key, answers)
	if err := s.responses.SaveResponses(ctx, rows); err != nil {
		return domain.ScoreSummary{}, err
	}

	if s.awarder != nil && summary.Correct > 0 && s.pointsPerCorrect > 0 {
		if err := s.awarder.Award(ctx, actor, summary.Correct*s.pointsPerCorrect); err != nil {
			s.log.Warn("award points failed", "student_id", actor.UserID, "topic_id", topicID, "error", err)
		}
	}
	return summary, nil
}

// MyResults lists the actor's stored attempts.
func (s *ScoringService) MyResults(ctx context.Context, actor domain.Actor) ([]domain.TopicResult, error) {
	if err := domain.Authorize(actor.Role, domain.RoleStudent); err != nil {
		return nil, err
	}
	return s.responses.ListResultsByStudent(ctx, actor.UserID)
}

// gradeAnswers expects len(answers) == len(key.Entries) > 0.
func gradeAnswers(studentID int64, key domain.AnswerKey, answers []domain.OptionKey) ([]domain.Response, domain.ScoreSummary) {
	rows := make([]domain.Response, 0, len(answers))
	correct := 0
	for i, entry := range key.Entries {
		ok := answers[i] == entry.CorrectAnswer
		if ok {
			correct++
		}
		rows = append(rows, domain.Response{
			StudentID:      studentID,
			TopicID:        key.TopicID,
			QuestionID:     entry.QuestionID,
			SelectedAnswer: answers[i],
			IsCorrect:      ok,
		})
	}
	total := len(key.Entries)
	return rows, domain.ScoreSummary{
		Score:   domain.ScorePercent(correct, total),
		Correct: correct,
		Total:   total,
	}
}
