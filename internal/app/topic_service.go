package app

import (
	"context"
	"fmt"
	"strings"

	"gamified-lms/internal/domain"
	"gamified-lms/internal/logger"
)

// TopicService is the topic authoring use case.
type TopicService struct {
	topics TopicRepository
	log    *logger.Logger
}

func NewTopicService(topics TopicRepository, log *logger.Logger) *TopicService {
	return &TopicService{topics: topics, log: log.With("service", "TopicService")}
}

// CreateTopic validates the whole draft up front, then stores the topic and its questions in one
// atomic write. New topics are published immediately.
func (s *TopicService) CreateTopic(ctx context.Context, actor domain.Actor, draft domain.TopicDraft) (domain.Topic, error) {
	if err := domain.Authorize(actor.Role, domain.RoleTeacher, domain.RoleAdmin); err != nil {
		return domain.Topic{}, err
	}
	topic, err := buildTopic(actor.UserID, draft)
	if err != nil {
		return domain.Topic{}, err
	}
	created, err := s.topics.CreateTopic(ctx, topic)
	if err != nil {
		return domain.Topic{}, err
	}
	s.log.Info("topic created", "topic_id", created.ID, "teacher_id", actor.UserID, "questions", len(created.Questions))
	return created, nil
}

// ListPublishedTopics returns every published topic for any authenticated actor.
// Answer keys are never part of the result.
func (s *TopicService) ListPublishedTopics(ctx context.Context, actor domain.Actor) ([]domain.TopicView, error) {
	if err := domain.Authorize(actor.Role, domain.AnyRole...); err != nil {
		return nil, err
	}
	topics, err := s.topics.ListPublishedTopics(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]domain.TopicView, 0, len(topics))
	for _, t := range topics {
		views = append(views, toTopicView(t))
	}
	return views, nil
}

// ListOwnTopics returns the actor's authored topics including answer keys.
func (s *TopicService) ListOwnTopics(ctx context.Context, actor domain.Actor) ([]domain.Topic, error) {
	if err := domain.Authorize(actor.Role, domain.RoleTeacher, domain.RoleAdmin); err != nil {
		return nil, err
	}
	return s.topics.ListTopicsByTeacher(ctx, actor.UserID)
}

func buildTopic(teacherID int64, draft domain.TopicDraft) (domain.Topic, error) {
	title := strings.TrimSpace(draft.Title)
	if title == "" {
		return domain.Topic{}, domain.Validation("title", "is required")
	}
	difficulty := draft.Difficulty
	if difficulty == "" {
		difficulty = domain.DifficultyMedium
	}
	if !difficulty.Valid() {
		return domain.Topic{}, domain.Validation("difficulty", "must be easy, medium or hard")
	}

	questions := make([]domain.Question, 0, len(draft.Questions))
	for i, q := range draft.Questions {
		question, err := buildQuestion(i, q)
		if err != nil {
			return domain.Topic{}, err
		}
		questions = append(questions, question)
	}

	return domain.Topic{
		TeacherID:   teacherID,
		Title:       title,
		Description: strings.TrimSpace(draft.Description),
		Difficulty:  difficulty,
		Status:      domain.TopicStatusPublished,
		Questions:   questions,
	}, nil
}

func buildQuestion(i int, q domain.QuestionDraft) (domain.Question, error) {
	field := func(name string) string { return fmt.Sprintf("questions[%d].%s", i, name) }

	text := strings.TrimSpace(q.Text)
	if text == "" {
		return domain.Question{}, domain.Validation(field("question"), "is required")
	}
	options := map[domain.OptionKey]string{
		domain.OptionA: strings.TrimSpace(q.OptionA),
		domain.OptionB: strings.TrimSpace(q.OptionB),
		domain.OptionC: strings.TrimSpace(q.OptionC),
		domain.OptionD: strings.TrimSpace(q.OptionD),
	}
	for _, key := range []domain.OptionKey{domain.OptionA, domain.OptionB, domain.OptionC, domain.OptionD} {
		if options[key] == "" {
			return domain.Question{}, domain.Validation(field(string(key)), "is required")
		}
	}
	if !q.CorrectAnswer.Valid() {
		return domain.Question{}, domain.Validation(field("correct_answer"), "must be one of option_a, option_b, option_c, option_d")
	}
	return domain.Question{
		Position:      i,
		Text:          text,
		OptionA:       options[domain.OptionA],
		OptionB:       options[domain.OptionB],
		OptionC:       options[domain.OptionC],
		OptionD:       options[domain.OptionD],
		CorrectAnswer: q.CorrectAnswer,
	}, nil
}

func toTopicView(t domain.PublishedTopic) domain.TopicView {
	questions := make([]domain.QuestionView, 0, len(t.Questions))
	for _, q := range t.Questions {
		questions = append(questions, domain.QuestionView{
			ID:       q.ID,
			Position: q.Position,
			Text:     q.Text,
			OptionA:  q.OptionA,
			OptionB:  q.OptionB,
			OptionC:  q.OptionC,
			OptionD:  q.OptionD,
		})
	}
	return domain.TopicView{
		ID:          t.ID,
		TeacherID:   t.TeacherID,
		TeacherName: t.TeacherName,
		Title:       t.Title,
		Description: t.Description,
		Difficulty:  t.Difficulty,
		Status:      t.Status,
		CreatedAt:   t.CreatedAt,
		Questions:   questions,
	}
}
