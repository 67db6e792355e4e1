package app_test

import (
	"context"
	"errors"
	"testing"

	"gamified-lms/internal/domain"
)

func TestInboxQuestionLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	request := "Loops"

	asked, err := f.inbox.AskQuestion(ctx, f.student, "  What is a closure?  ", &request)
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if asked.Status != domain.InboxPending || asked.Question != "What is a closure?" || *asked.TopicRequest != "Loops" {
		t.Fatalf("unexpected question %+v", asked)
	}

	pending, err := f.inbox.PendingQuestions(ctx, f.teacher)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 || pending[0].StudentName != "Sam Student" || pending[0].StudentEmail != "sam@example.com" {
		t.Fatalf("unexpected pending list %+v", pending)
	}

	answered, err := f.inbox.RespondToQuestion(ctx, f.teacher, asked.ID, "A function with captured scope")
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if answered.Status != domain.InboxAnswered || *answered.RespondedBy != f.teacher.UserID || answered.AnsweredAt == nil {
		t.Fatalf("unexpected answered question %+v", answered)
	}

	mine, err := f.inbox.MyQuestions(ctx, f.student)
	if err != nil {
		t.Fatalf("my questions: %v", err)
	}
	if len(mine) != 1 || mine[0].TeacherResponse == nil || *mine[0].TeacherResponse != "A function with captured scope" {
		t.Fatalf("student should see the answer, got %+v", mine)
	}

	pending, _ = f.inbox.PendingQuestions(ctx, f.admin)
	if len(pending) != 0 {
		t.Fatalf("answered question must leave the pending list, got %+v", pending)
	}
}

func TestInboxAnsweredIsTerminal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	asked, err := f.inbox.AskQuestion(ctx, f.student, "Why?", nil)
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if _, err := f.inbox.RespondToQuestion(ctx, f.teacher, asked.ID, "first"); err != nil {
		t.Fatalf("first response: %v", err)
	}
	_, err = f.inbox.RespondToQuestion(ctx, f.admin, asked.ID, "second")
	if !errors.Is(err, domain.ErrAlreadyAnswered) {
		t.Fatalf("expected already answered, got %v", err)
	}

	mine, _ := f.inbox.MyQuestions(ctx, f.student)
	if *mine[0].TeacherResponse != "first" {
		t.Fatalf("first response must stay, got %q", *mine[0].TeacherResponse)
	}
}

func TestInboxValidationAndRoles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	blank := "   "

	if _, err := f.inbox.AskQuestion(ctx, f.student, "   ", nil); !domain.IsKind(err, domain.KindValidation) {
		t.Fatalf("expected validation error for blank question, got %v", err)
	}
	if _, err := f.inbox.AskQuestion(ctx, f.teacher, "hi", nil); err != domain.ErrForbidden {
		t.Fatalf("teachers cannot ask, got %v", err)
	}
	q, err := f.inbox.AskQuestion(ctx, f.student, "hi", &blank)
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if q.TopicRequest != nil {
		t.Fatalf("blank topic request should be dropped, got %q", *q.TopicRequest)
	}
	if _, err := f.inbox.PendingQuestions(ctx, f.student); err != domain.ErrForbidden {
		t.Fatalf("students cannot list pending, got %v", err)
	}
	if _, err := f.inbox.RespondToQuestion(ctx, f.teacher, q.ID, " "); !domain.IsKind(err, domain.KindValidation) {
		t.Fatalf("expected validation error for blank response, got %v", err)
	}
	if _, err := f.inbox.RespondToQuestion(ctx, f.teacher, 12345, "answer"); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
