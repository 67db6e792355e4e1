package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"gamified-lms/internal/domain"
)

func TestCreateTopicPublishesWithOrderedQuestions(t *testing.T) {
	f := newFixture(t)
	topic := f.createArithmetic(t)

	if topic.ID == 0 || topic.Status != domain.TopicStatusPublished || topic.TeacherID != f.teacher.UserID {
		t.Fatalf("unexpected topic %+v", topic)
	}
	if len(topic.Questions) != 2 || topic.Questions[0].Text != "2+2?" || topic.Questions[1].Position != 1 {
		t.Fatalf("questions not stored in order: %+v", topic.Questions)
	}
}

func TestCreateTopicDefaultsDifficulty(t *testing.T) {
	f := newFixture(t)
	draft := arithmeticDraft()
	draft.Difficulty = ""

	topic, err := f.topics.CreateTopic(context.Background(), f.admin, draft)
	if err != nil {
		t.Fatalf("create topic: %v", err)
	}
	if topic.Difficulty != domain.DifficultyMedium {
		t.Fatalf("expected medium default, got %q", topic.Difficulty)
	}
}

func TestCreateTopicValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*domain.TopicDraft)
		field  string
	}{
		{"empty title", func(d *domain.TopicDraft) { d.Title = "  " }, "title"},
		{"bad difficulty", func(d *domain.TopicDraft) { d.Difficulty = "extreme" }, "difficulty"},
		{"empty question", func(d *domain.TopicDraft) { d.Questions[0].Text = "" }, "questions[0].question"},
		{"missing option", func(d *domain.TopicDraft) { d.Questions[1].OptionC = "" }, "questions[1].option_c"},
		{"bad correct answer", func(d *domain.TopicDraft) { d.Questions[1].CorrectAnswer = "option_e" }, "questions[1].correct_answer"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			draft := arithmeticDraft()
			tc.mutate(&draft)

			_, err := f.topics.CreateTopic(context.Background(), f.teacher, draft)
			var de *domain.Error
			if !errors.As(err, &de) || de.Kind != domain.KindValidation || de.Field != tc.field {
				t.Fatalf("expected validation error on %s, got %v", tc.field, err)
			}
			if topics, _ := f.store.ListPublishedTopics(context.Background()); len(topics) != 0 {
				t.Fatalf("nothing should be stored on validation failure, got %d topics", len(topics))
			}
		})
	}
}

func TestCreateTopicRequiresTeacherOrAdmin(t *testing.T) {
	f := newFixture(t)
	_, err := f.topics.CreateTopic(context.Background(), f.student, arithmeticDraft())
	if err != domain.ErrForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
	_, err = f.topics.CreateTopic(context.Background(), domain.Actor{UserID: 1}, arithmeticDraft())
	if err != domain.ErrUnauthenticated {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
}

func TestListPublishedTopicsHidesAnswerKey(t *testing.T) {
	f := newFixture(t)
	f.createArithmetic(t)

	for _, actor := range []domain.Actor{f.student, f.teacher, f.admin} {
		topics, err := f.topics.ListPublishedTopics(context.Background(), actor)
		if err != nil {
			t.Fatalf("list as %s: %v", actor.Role, err)
		}
		if len(topics) != 1 || topics[0].TeacherName != "Tess Teacher" || len(topics[0].Questions) != 2 {
			t.Fatalf("unexpected listing %+v", topics)
		}
		raw, err := json.Marshal(topics)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if strings.Contains(string(raw), "correct_answer") {
			t.Fatalf("listing leaks answer key: %s", raw)
		}
	}
}

func TestListPublishedTopicsNewestFirst(t *testing.T) {
	f := newFixture(t)
	f.createArithmetic(t)
	second := arithmeticDraft()
	second.Title = "More arithmetic"
	if _, err := f.topics.CreateTopic(context.Background(), f.teacher, second); err != nil {
		t.Fatalf("create second topic: %v", err)
	}

	topics, err := f.topics.ListPublishedTopics(context.Background(), f.student)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(topics) != 2 || topics[0].Title != "More arithmetic" {
		t.Fatalf("expected newest first, got %+v", topics)
	}
}

func TestListOwnTopicsIncludesAnswers(t *testing.T) {
	f := newFixture(t)
	f.createArithmetic(t)

	own, err := f.topics.ListOwnTopics(context.Background(), f.teacher)
	if err != nil {
		t.Fatalf("list own: %v", err)
	}
	if len(own) != 1 || own[0].Questions[0].CorrectAnswer != domain.OptionB {
		t.Fatalf("unexpected own topics %+v", own)
	}
	if _, err := f.topics.ListOwnTopics(context.Background(), f.student); err != domain.ErrForbidden {
		t.Fatalf("students cannot list authored topics, got %v", err)
	}
}
