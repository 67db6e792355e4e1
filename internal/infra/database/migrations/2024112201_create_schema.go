package migrations

import (
	"context"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

var Migrations = migrate.NewMigrations()

// Table snapshots as of this migration. Later schema changes get their own migration file.
type user struct {
	bun.BaseModel `bun:"table:users"`

	ID           int64     `bun:"id,pk,autoincrement"`
	FullName     string    `bun:"full_name,notnull"`
	Email        string    `bun:"email,notnull,unique"`
	PasswordHash string    `bun:"password_hash,notnull"`
	Role         string    `bun:"role,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
}

type topic struct {
	bun.BaseModel `bun:"table:topics"`

	ID          int64     `bun:"id,pk,autoincrement"`
	TeacherID   int64     `bun:"teacher_id,notnull"`
	Title       string    `bun:"title,notnull"`
	Description string    `bun:"description,notnull"`
	Difficulty  string    `bun:"difficulty,notnull"`
	Status      string    `bun:"status,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
}

type question struct {
	bun.BaseModel `bun:"table:questions"`

	ID            int64  `bun:"id,pk,autoincrement"`
	TopicID       int64  `bun:"topic_id,notnull,unique:questions_topic_position_key"`
	Position      int    `bun:"position,notnull,unique:questions_topic_position_key"`
	QuestionText  string `bun:"question_text,notnull"`
	OptionA       string `bun:"option_a,notnull"`
	OptionB       string `bun:"option_b,notnull"`
	OptionC       string `bun:"option_c,notnull"`
	OptionD       string `bun:"option_d,notnull"`
	CorrectAnswer string `bun:"correct_answer,notnull"`
}

type response struct {
	bun.BaseModel `bun:"table:responses"`

	ID             int64     `bun:"id,pk,autoincrement"`
	StudentID      int64     `bun:"student_id,notnull,unique:responses_student_question_key"`
	TopicID        int64     `bun:"topic_id,notnull"`
	QuestionID     int64     `bun:"question_id,notnull,unique:responses_student_question_key"`
	SelectedAnswer string    `bun:"selected_answer,notnull"`
	IsCorrect      bool      `bun:"is_correct,notnull"`
	CreatedAt      time.Time `bun:"created_at,notnull"`
}

type studentQuestion struct {
	bun.BaseModel `bun:"table:student_questions"`

	ID              int64      `bun:"id,pk,autoincrement"`
	StudentID       int64      `bun:"student_id,notnull"`
	Question        string     `bun:"question,notnull"`
	TopicRequest    *string    `bun:"topic_request"`
	Status          string     `bun:"status,notnull"`
	TeacherResponse *string    `bun:"teacher_response"`
	RespondedBy     *int64     `bun:"responded_by"`
	CreatedAt       time.Time  `bun:"created_at,notnull"`
	AnsweredAt      *time.Time `bun:"answered_at"`
}

type table struct {
	model       interface{}
	foreignKeys []string
}

var tables = []table{
	{model: (*user)(nil)},
	{model: (*topic)(nil), foreignKeys: []string{
		`("teacher_id") REFERENCES "users" ("id") ON DELETE CASCADE`,
	}},
	{model: (*question)(nil), foreignKeys: []string{
		`("topic_id") REFERENCES "topics" ("id") ON DELETE CASCADE`,
	}},
	{model: (*response)(nil), foreignKeys: []string{
		`("student_id") REFERENCES "users" ("id") ON DELETE CASCADE`,
		`("topic_id") REFERENCES "topics" ("id") ON DELETE CASCADE`,
		`("question_id") REFERENCES "questions" ("id") ON DELETE CASCADE`,
	}},
	{model: (*studentQuestion)(nil), foreignKeys: []string{
		`("student_id") REFERENCES "users" ("id") ON DELETE CASCADE`,
		`("responded_by") REFERENCES "users" ("id") ON DELETE SET NULL`,
	}},
}

type index struct {
	model   interface{}
	name    string
	columns []string
}

var indexes = []index{
	{(*topic)(nil), "topics_status_created_idx", []string{"status", "created_at"}},
	{(*topic)(nil), "topics_teacher_idx", []string{"teacher_id"}},
	{(*response)(nil), "responses_student_topic_idx", []string{"student_id", "topic_id"}},
	{(*studentQuestion)(nil), "student_questions_status_idx", []string{"status", "created_at"}},
	{(*studentQuestion)(nil), "student_questions_student_idx", []string{"student_id"}},
}

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
				for _, t := range tables {
					q := tx.NewCreateTable().Model(t.model).IfNotExists()
					for _, fk := range t.foreignKeys {
						q = q.ForeignKey(fk)
					}
					if _, err := q.Exec(ctx); err != nil {
						return err
					}
				}
				for _, idx := range indexes {
					_, err := tx.NewCreateIndex().
						Model(idx.model).
						Index(idx.name).
						Column(idx.columns...).
						IfNotExists().
						Exec(ctx)
					if err != nil {
						return err
					}
				}
				return nil
			})
		},
		func(ctx context.Context, db *bun.DB) error {
			return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
				for i := len(tables) - 1; i >= 0; i-- {
					if _, err := tx.NewDropTable().Model(tables[i].model).IfExists().Exec(ctx); err != nil {
						return err
					}
				}
				return nil
			})
		},
	)
}
