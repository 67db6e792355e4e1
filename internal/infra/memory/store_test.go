package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"gamified-lms/internal/domain"
)

func TestStoreTopicQuestionsKeepInsertionOrder(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	teacher, _ := store.CreateUser(ctx, domain.User{FullName: "Ada", Email: "ada@example.com", Role: domain.RoleTeacher})

	created, err := store.CreateTopic(ctx, domain.Topic{
		TeacherID: teacher.ID,
		Title:     "Arithmetic",
		Status:    domain.TopicStatusPublished,
		Questions: []domain.Question{
			{Text: "1+1", CorrectAnswer: domain.OptionB},
			{Text: "2+2", CorrectAnswer: domain.OptionA},
			{Text: "3+3", CorrectAnswer: domain.OptionD},
		},
	})
	if err != nil {
		t.Fatalf("create topic: %v", err)
	}

	key, err := store.LoadAnswerKey(ctx, created.ID)
	if err != nil {
		t.Fatalf("load key: %v", err)
	}
	want := []domain.OptionKey{domain.OptionB, domain.OptionA, domain.OptionD}
	for i, e := range key.Entries {
		if e.CorrectAnswer != want[i] || e.QuestionID != created.Questions[i].ID {
			t.Fatalf("entry %d = %+v, want answer %s for question %d", i, e, want[i], created.Questions[i].ID)
		}
	}

	published, _ := store.ListPublishedTopics(ctx)
	if len(published) != 1 || published[0].TeacherName != "Ada" {
		t.Fatalf("expected one published topic by Ada, got %+v", published)
	}
}

func TestStoreRejectsDuplicateResponses(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	batch := []domain.Response{
		{StudentID: 1, TopicID: 1, QuestionID: 10, SelectedAnswer: domain.OptionA, IsCorrect: true},
		{StudentID: 1, TopicID: 1, QuestionID: 11, SelectedAnswer: domain.OptionA},
	}
	if err := store.SaveResponses(ctx, batch); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.SaveResponses(ctx, batch); !errors.Is(err, domain.ErrAlreadySubmitted) {
		t.Fatalf("expected already submitted, got %v", err)
	}
	if got := len(store.Responses()); got != 2 {
		t.Fatalf("expected 2 stored responses, got %d", got)
	}
}

func TestStoreAnswerPendingIsCompareAndSet(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	store := NewStoreWithClock(func() time.Time { return fixed })

	q, _ := store.CreateStudentQuestion(ctx, domain.StudentQuestion{StudentID: 5, Question: "What is a closure?"})
	answered, err := store.AnswerPending(ctx, q.ID, "first", 2)
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if answered.Status != domain.InboxAnswered || *answered.TeacherResponse != "first" || !answered.AnsweredAt.Equal(fixed) {
		t.Fatalf("unexpected answered question %+v", answered)
	}
	if _, err := store.AnswerPending(ctx, q.ID, "second", 3); !errors.Is(err, domain.ErrAlreadyAnswered) {
		t.Fatalf("expected already answered, got %v", err)
	}
	if _, err := store.AnswerPending(ctx, 999, "x", 3); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	mine, _ := store.ListByStudent(ctx, 5)
	if *mine[0].TeacherResponse != "first" || *mine[0].RespondedBy != 2 {
		t.Fatalf("first response was overwritten: %+v", mine[0])
	}
}

func TestStoreResultsByStudent(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	topic, _ := store.CreateTopic(ctx, domain.Topic{Title: "Sets", Status: domain.TopicStatusPublished, Questions: []domain.Question{{}, {}, {}}})
	_ = store.SaveResponses(ctx, []domain.Response{
		{StudentID: 7, TopicID: topic.ID, QuestionID: topic.Questions[0].ID, IsCorrect: true},
		{StudentID: 7, TopicID: topic.ID, QuestionID: topic.Questions[1].ID, IsCorrect: true},
		{StudentID: 7, TopicID: topic.ID, QuestionID: topic.Questions[2].ID},
	})

	results, err := store.ListResultsByStudent(ctx, 7)
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	if len(results) != 1 || results[0].Score != 67 || results[0].Correct != 2 || results[0].Total != 3 || results[0].Title != "Sets" {
		t.Fatalf("unexpected results %+v", results)
	}
}
