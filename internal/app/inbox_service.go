package app

import (
	"context"
	"strings"

	"gamified-lms/internal/domain"
)

// InboxService is the student question / teacher answer workflow.
type InboxService struct {
	inbox InboxRepository
}

func NewInboxService(inbox InboxRepository) *InboxService {
	return &InboxService{inbox: inbox}
}

// AskQuestion files a pending question for the acting student.
func (s *InboxService) AskQuestion(ctx context.Context, actor domain.Actor, text string, topicRequest *string) (domain.StudentQuestion, error) {
	if err := domain.Authorize(actor.Role, domain.RoleStudent); err != nil {
		return domain.StudentQuestion{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.StudentQuestion{}, domain.Validation("question", "is required")
	}
	if topicRequest != nil {
		trimmed := strings.TrimSpace(*topicRequest)
		if trimmed == "" {
			topicRequest = nil
		} else {
			topicRequest = &trimmed
		}
	}
	return s.inbox.CreateStudentQuestion(ctx, domain.StudentQuestion{
		StudentID:    actor.UserID,
		Question:     text,
		TopicRequest: topicRequest,
		Status:       domain.InboxPending,
	})
}

// MyQuestions lists the acting student's own questions, newest first.
func (s *InboxService) MyQuestions(ctx context.Context, actor domain.Actor) ([]domain.StudentQuestion, error) {
	if err := domain.Authorize(actor.Role, domain.RoleStudent); err != nil {
		return nil, err
	}
	return s.inbox.ListByStudent(ctx, actor.UserID)
}

// PendingQuestions lists unanswered questions, oldest first.
func (s *InboxService) PendingQuestions(ctx context.Context, actor domain.Actor) ([]domain.PendingQuestion, error) {
	if err := domain.Authorize(actor.Role, domain.RoleTeacher, domain.RoleAdmin); err != nil {
		return nil, err
	}
	return s.inbox.ListPending(ctx)
}

// RespondToQuestion moves a question from pending to answered. Answered is terminal: a second
// response fails with domain.ErrAlreadyAnswered and leaves the first one in place.
func (s *InboxService) RespondToQuestion(ctx context.Context, actor domain.Actor, questionID int64, response string) (domain.StudentQuestion, error) {
	if err := domain.Authorize(actor.Role, domain.RoleTeacher, domain.RoleAdmin); err != nil {
		return domain.StudentQuestion{}, err
	}
	response = strings.TrimSpace(response)
	if response == "" {
		return domain.StudentQuestion{}, domain.Validation("response", "is required")
	}
	return s.inbox.AnswerPending(ctx, questionID, response, actor.UserID)
}
