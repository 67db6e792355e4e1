package app_test

import (
	"context"
	"testing"
	"time"

	"gamified-lms/internal/app"
	"gamified-lms/internal/domain"
	"gamified-lms/internal/infra/memory"
	"gamified-lms/internal/logger"
)

type fixture struct {
	store       *memory.Store
	board       *memory.Leaderboard
	topics      *app.TopicService
	scoring     *app.ScoringService
	inbox       *app.InboxService
	leaderboard *app.LeaderboardService

	teacher domain.Actor
	student domain.Actor
	admin   domain.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	board := memory.NewLeaderboard()
	leaderboard := app.NewLeaderboardService(board, 10)

	f := &fixture{
		store:       store,
		board:       board,
		topics:      app.NewTopicService(store, logger.Nop()),
		scoring:     app.NewScoringService(memory.NewAnswerKeyCache(store, time.Minute), store, leaderboard, 10, logger.Nop()),
		inbox:       app.NewInboxService(store),
		leaderboard: leaderboard,
	}
	f.teacher = f.addUser(ctx, t, "Tess Teacher", "tess@example.com", domain.RoleTeacher)
	f.student = f.addUser(ctx, t, "Sam Student", "sam@example.com", domain.RoleStudent)
	f.admin = f.addUser(ctx, t, "Ada Admin", "ada@example.com", domain.RoleAdmin)
	return f
}

func (f *fixture) addUser(ctx context.Context, t *testing.T, name, email string, role domain.Role) domain.Actor {
	t.Helper()
	u, err := f.store.CreateUser(ctx, domain.User{FullName: name, Email: email, Role: role})
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return domain.Actor{UserID: u.ID, Role: u.Role, Name: u.FullName}
}

// arithmeticDraft has two questions: correct answers option_b then option_a.
func arithmeticDraft() domain.TopicDraft {
	return domain.TopicDraft{
		Title:      "Arithmetic",
		Difficulty: domain.DifficultyEasy,
		Questions: []domain.QuestionDraft{
			{Text: "2+2?", OptionA: "3", OptionB: "4", OptionC: "5", OptionD: "6", CorrectAnswer: domain.OptionB},
			{Text: "3*3?", OptionA: "9", OptionB: "6", OptionC: "12", OptionD: "0", CorrectAnswer: domain.OptionA},
		},
	}
}

func (f *fixture) createArithmetic(t *testing.T) domain.Topic {
	t.Helper()
	topic, err := f.topics.CreateTopic(context.Background(), f.teacher, arithmeticDraft())
	if err != nil {
		t.Fatalf("create topic: %v", err)
	}
	return topic
}
