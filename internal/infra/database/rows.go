package database

import (
	"time"

	"github.com/uptrace/bun"

	"gamified-lms/internal/domain"
)

type userRow struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int64     `bun:"id,pk,autoincrement"`
	FullName     string    `bun:"full_name"`
	Email        string    `bun:"email"`
	PasswordHash string    `bun:"password_hash"`
	Role         string    `bun:"role"`
	CreatedAt    time.Time `bun:"created_at"`
}

func (r userRow) toDomain() domain.User {
	return domain.User{
		ID:           r.ID,
		FullName:     r.FullName,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Role:         domain.Role(r.Role),
		CreatedAt:    r.CreatedAt,
	}
}

type topicRow struct {
	bun.BaseModel `bun:"table:topics,alias:t"`

	ID          int64     `bun:"id,pk,autoincrement"`
	TeacherID   int64     `bun:"teacher_id"`
	Title       string    `bun:"title"`
	Description string    `bun:"description"`
	Difficulty  string    `bun:"difficulty"`
	Status      string    `bun:"status"`
	CreatedAt   time.Time `bun:"created_at"`
}

func (r topicRow) toDomain(questions []domain.Question) domain.Topic {
	if questions == nil {
		questions = []domain.Question{}
	}
	return domain.Topic{
		ID:          r.ID,
		TeacherID:   r.TeacherID,
		Title:       r.Title,
		Description: r.Description,
		Difficulty:  domain.Difficulty(r.Difficulty),
		Status:      domain.TopicStatus(r.Status),
		CreatedAt:   r.CreatedAt,
		Questions:   questions,
	}
}

type questionRow struct {
	bun.BaseModel `bun:"table:questions,alias:q"`

	ID            int64  `bun:"id,pk,autoincrement"`
	TopicID       int64  `bun:"topic_id"`
	Position      int    `bun:"position"`
	QuestionText  string `bun:"question_text"`
	OptionA       string `bun:"option_a"`
	OptionB       string `bun:"option_b"`
	OptionC       string `bun:"option_c"`
	OptionD       string `bun:"option_d"`
	CorrectAnswer string `bun:"correct_answer"`
}

func (r questionRow) toDomain() domain.Question {
	return domain.Question{
		ID:            r.ID,
		TopicID:       r.TopicID,
		Position:      r.Position,
		Text:          r.QuestionText,
		OptionA:       r.OptionA,
		OptionB:       r.OptionB,
		OptionC:       r.OptionC,
		OptionD:       r.OptionD,
		CorrectAnswer: domain.OptionKey(r.CorrectAnswer),
	}
}

type responseRow struct {
	bun.BaseModel `bun:"table:responses,alias:r"`

	ID             int64     `bun:"id,pk,autoincrement"`
	StudentID      int64     `bun:"student_id"`
	TopicID        int64     `bun:"topic_id"`
	QuestionID     int64     `bun:"question_id"`
	SelectedAnswer string    `bun:"selected_answer"`
	IsCorrect      bool      `bun:"is_correct"`
	CreatedAt      time.Time `bun:"created_at"`
}

type studentQuestionRow struct {
	bun.BaseModel `bun:"table:student_questions,alias:sq"`

	ID              int64      `bun:"id,pk,autoincrement"`
	StudentID       int64      `bun:"student_id"`
	Question        string     `bun:"question"`
	TopicRequest    *string    `bun:"topic_request"`
	Status          string     `bun:"status"`
	TeacherResponse *string    `bun:"teacher_response"`
	RespondedBy     *int64     `bun:"responded_by"`
	CreatedAt       time.Time  `bun:"created_at"`
	AnsweredAt      *time.Time `bun:"answered_at"`
}

func (r studentQuestionRow) toDomain() domain.StudentQuestion {
	return domain.StudentQuestion{
		ID:              r.ID,
		StudentID:       r.StudentID,
		Question:        r.Question,
		TopicRequest:    r.TopicRequest,
		Status:          domain.InboxStatus(r.Status),
		TeacherResponse: r.TeacherResponse,
		RespondedBy:     r.RespondedBy,
		CreatedAt:       r.CreatedAt,
		AnsweredAt:      r.AnsweredAt,
	}
}

type resultRow struct {
	TopicID     int64     `bun:"topic_id"`
	Title       string    `bun:"title"`
	Total       int       `bun:"total"`
	Correct     int       `bun:"correct"`
	SubmittedAt time.Time `bun:"submitted_at"`
}
