package domain

import (
	"math"
	"time"
)

// Role is the access level of a user.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	}
	return false
}

// Difficulty grades a topic.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// TopicStatus controls student visibility of a topic.
type TopicStatus string

const (
	TopicStatusDraft     TopicStatus = "draft"
	TopicStatusPublished TopicStatus = "published"
)

// OptionKey names one of the four choices of a question.
type OptionKey string

const (
	OptionA OptionKey = "option_a"
	OptionB OptionKey = "option_b"
	OptionC OptionKey = "option_c"
	OptionD OptionKey = "option_d"
)

func (k OptionKey) Valid() bool {
	switch k {
	case OptionA, OptionB, OptionC, OptionD:
		return true
	}
	return false
}

// InboxStatus is the state of a student question.
type InboxStatus string

const (
	InboxPending  InboxStatus = "pending"
	InboxAnswered InboxStatus = "answered"
)

// Actor is the authenticated identity performing an operation.
type Actor struct {
	UserID int64
	Role   Role
	Name   string
}

// User is a registered account. PasswordHash never leaves the server.
type User struct {
	ID           int64     `json:"id"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Topic is a teacher-authored unit bundling ordered multiple-choice questions.
type Topic struct {
	ID          int64       `json:"id"`
	TeacherID   int64       `json:"teacher_id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Difficulty  Difficulty  `json:"difficulty"`
	Status      TopicStatus `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	Questions   []Question  `json:"questions"`
}

// Question is an MCQ with exactly one correct option. Position is its 0-based insertion order.
type Question struct {
	ID            int64     `json:"id"`
	TopicID       int64     `json:"topic_id"`
	Position      int       `json:"position"`
	Text          string    `json:"question"`
	OptionA       string    `json:"option_a"`
	OptionB       string    `json:"option_b"`
	OptionC       string    `json:"option_c"`
	OptionD       string    `json:"option_d"`
	CorrectAnswer OptionKey `json:"correct_answer"`
}

// TopicDraft is the authoring payload for a new topic.
type TopicDraft struct {
	Title       string
	Description string
	Difficulty  Difficulty
	Questions   []QuestionDraft
}

type QuestionDraft struct {
	Text          string
	OptionA       string
	OptionB       string
	OptionC       string
	OptionD       string
	CorrectAnswer OptionKey
}

// TopicView is the student-facing shape of a published topic.
// It carries no answer key.
type TopicView struct {
	ID          int64          `json:"id"`
	TeacherID   int64          `json:"teacher_id"`
	TeacherName string         `json:"teacher_name"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Difficulty  Difficulty     `json:"difficulty"`
	Status      TopicStatus    `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	Questions   []QuestionView `json:"questions"`
}

type QuestionView struct {
	ID       int64  `json:"id"`
	Position int    `json:"position"`
	Text     string `json:"question"`
	OptionA  string `json:"option_a"`
	OptionB  string `json:"option_b"`
	OptionC  string `json:"option_c"`
	OptionD  string `json:"option_d"`
}

// PublishedTopic is a stored topic joined with its owner's display name.
type PublishedTopic struct {
	Topic
	TeacherName string
}

// AnswerKey is the ordered grading key of a topic. Questions are immutable so keys are safe to cache.
type AnswerKey struct {
	TopicID int64           `json:"topic_id"`
	Title   string          `json:"title"`
	Status  TopicStatus     `json:"status"`
	Entries []AnswerKeyItem `json:"entries"`
}

type AnswerKeyItem struct {
	QuestionID    int64     `json:"question_id"`
	CorrectAnswer OptionKey `json:"correct_answer"`
}

// Response is one graded answer of one student to one question.
type Response struct {
	ID             int64     `json:"id"`
	StudentID      int64     `json:"student_id"`
	TopicID        int64     `json:"topic_id"`
	QuestionID     int64     `json:"question_id"`
	SelectedAnswer OptionKey `json:"selected_answer"`
	IsCorrect      bool      `json:"is_correct"`
	CreatedAt      time.Time `json:"created_at"`
}

// ScoreSummary is the outcome of a graded submission.
type ScoreSummary struct {
	Score   int `json:"score"`
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// TopicResult summarises a student's stored attempt at a topic.
type TopicResult struct {
	TopicID     int64     `json:"topic_id"`
	Title       string    `json:"title"`
	Score       int       `json:"score"`
	Correct     int       `json:"correct"`
	Total       int       `json:"total"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// StudentQuestion is a Q&A inbox item.
type StudentQuestion struct {
	ID              int64       `json:"id"`
	StudentID       int64       `json:"student_id"`
	Question        string      `json:"question"`
	TopicRequest    *string     `json:"topic_request"`
	Status          InboxStatus `json:"status"`
	TeacherResponse *string     `json:"teacher_response"`
	RespondedBy     *int64      `json:"responded_by"`
	CreatedAt       time.Time   `json:"created_at"`
	AnsweredAt      *time.Time  `json:"answered_at"`
}

// PendingQuestion is a pending inbox item with the asking student's contact details.
type PendingQuestion struct {
	StudentQuestion
	StudentName  string `json:"student_name"`
	StudentEmail string `json:"student_email"`
}

// LeaderboardEntry is a snapshot-friendly view of a learner's points.
type LeaderboardEntry struct {
	UserID      int64  `json:"user_id"`
	DisplayName string `json:"display_name"`
	Points      int    `json:"points"`
}

// Leaderboard captures the ordered scoreboard.
type Leaderboard struct {
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// Stats is the gamification summary of one user.
type Stats struct {
	TotalPoints int `json:"total_points"`
	Level       int `json:"level"`
}

// LevelForPoints maps points to a level, one level per 100 points.
func LevelForPoints(points int) int {
	if points < 0 {
		points = 0
	}
	return points/100 + 1
}

// ScorePercent is round(100*correct/total). A zero total scores 0; callers reject empty topics before grading.
func ScorePercent(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(correct) / float64(total)))
}
