package app

import (
	"context"

	"gamified-lms/internal/domain"
)

// UserRepository is the Identity Store.
type UserRepository interface {
	CreateUser(ctx context.Context, u domain.User) (domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)
	GetUserByID(ctx context.Context, id int64) (domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	UpdateUserRole(ctx context.Context, id int64, role domain.Role) (domain.User, error)
	UpdateUserName(ctx context.Context, id int64, fullName string) (domain.User, error)
	CountUsers(ctx context.Context) (int, error)
}

// TopicRepository stores topics together with their question bank.
// CreateTopic must persist the topic and every question atomically.
type TopicRepository interface {
	CreateTopic(ctx context.Context, topic domain.Topic) (domain.Topic, error)
	ListPublishedTopics(ctx context.Context) ([]domain.PublishedTopic, error)
	ListTopicsByTeacher(ctx context.Context, teacherID int64) ([]domain.Topic, error)
}

// AnswerKeyRepository loads the ordered grading key of a topic (from cache or backing store).
type AnswerKeyRepository interface {
	GetAnswerKey(ctx context.Context, topicID int64) (domain.AnswerKey, error)
}

// ResponseRepository persists graded submissions. SaveResponses must write the whole batch or
// nothing and return domain.ErrAlreadySubmitted when the student already answered the topic.
type ResponseRepository interface {
	SaveResponses(ctx context.Context, responses []domain.Response) error
	ListResultsByStudent(ctx context.Context, studentID int64) ([]domain.TopicResult, error)
}

// InboxRepository stores Q&A inbox items.
type InboxRepository interface {
	CreateStudentQuestion(ctx context.Context, q domain.StudentQuestion) (domain.StudentQuestion, error)
	ListByStudent(ctx context.Context, studentID int64) ([]domain.StudentQuestion, error)
	ListPending(ctx context.Context) ([]domain.PendingQuestion, error)
	// AnswerPending sets the response only while the question is still pending.
	AnswerPending(ctx context.Context, id int64, response string, teacherID int64) (domain.StudentQuestion, error)
}

// LeaderboardStore keeps accumulated points per user.
type LeaderboardStore interface {
	AddPoints(ctx context.Context, userID int64, displayName string, points int) (int, error)
	Points(ctx context.Context, userID int64) (int, error)
	Top(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
}
