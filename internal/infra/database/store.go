package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"gamified-lms/internal/domain"
)

// Store implements the app repositories on top of bun.
type Store struct {
	db    *bun.DB
	clock func() time.Time
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db, clock: func() time.Time { return time.Now().UTC() }}
}

// Users

func (s *Store) CreateUser(ctx context.Context, u domain.User) (domain.User, error) {
	row := userRow{
		FullName:     u.FullName,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		CreatedAt:    s.clock(),
	}
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return domain.User{}, domain.ErrEmailTaken
		}
		return domain.User{}, fmt.Errorf("insert user: %w", err)
	}
	return row.toDomain(), nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	var row userRow
	err := s.db.NewSelect().Model(&row).Where("u.email = ?", email).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("select user by email: %w", err)
	}
	return row.toDomain(), nil
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (domain.User, error) {
	var row userRow
	err := s.db.NewSelect().Model(&row).Where("u.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("select user: %w", err)
	}
	return row.toDomain(), nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	var rows []userRow
	if err := s.db.NewSelect().Model(&rows).Order("u.id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users := make([]domain.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.toDomain())
	}
	return users, nil
}

func (s *Store) UpdateUserRole(ctx context.Context, id int64, role domain.Role) (domain.User, error) {
	res, err := s.db.NewUpdate().
		Model((*userRow)(nil)).
		Set("role = ?", string(role)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return domain.User{}, fmt.Errorf("update role: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.User{}, domain.ErrUserNotFound
	}
	return s.GetUserByID(ctx, id)
}

func (s *Store) UpdateUserName(ctx context.Context, id int64, fullName string) (domain.User, error) {
	res, err := s.db.NewUpdate().
		Model((*userRow)(nil)).
		Set("full_name = ?", fullName).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return domain.User{}, fmt.Errorf("update name: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.User{}, domain.ErrUserNotFound
	}
	return s.GetUserByID(ctx, id)
}

func (s *Store) CountUsers(ctx context.Context) (int, error) {
	n, err := s.db.NewSelect().Model((*userRow)(nil)).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (s *Store) userNames(ctx context.Context, ids []int64) (map[int64]userRow, error) {
	out := make(map[int64]userRow, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []userRow
	if err := s.db.NewSelect().Model(&rows).Where("u.id IN (?)", bun.In(ids)).Scan(ctx); err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	for _, r := range rows {
		out[r.ID] = r
	}
	return out, nil
}

// Topics

// CreateTopic writes the topic and all of its questions in one transaction.
func (s *Store) CreateTopic(ctx context.Context, topic domain.Topic) (domain.Topic, error) {
	var created domain.Topic
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		row := topicRow{
			TeacherID:   topic.TeacherID,
			Title:       topic.Title,
			Description: topic.Description,
			Difficulty:  string(topic.Difficulty),
			Status:      string(topic.Status),
			CreatedAt:   s.clock(),
		}
		if _, err := tx.NewInsert().Model(&row).Exec(ctx); err != nil {
			return fmt.Errorf("insert topic: %w", err)
		}

		questions := make([]domain.Question, 0, len(topic.Questions))
		for i, q := range topic.Questions {
			qr := questionRow{
				TopicID:       row.ID,
				Position:      i,
				QuestionText:  q.Text,
				OptionA:       q.OptionA,
				OptionB:       q.OptionB,
				OptionC:       q.OptionC,
				OptionD:       q.OptionD,
				CorrectAnswer: string(q.CorrectAnswer),
			}
			if _, err := tx.NewInsert().Model(&qr).Exec(ctx); err != nil {
				return fmt.Errorf("insert question %d: %w", i, err)
			}
			questions = append(questions, qr.toDomain())
		}
		created = row.toDomain(questions)
		return nil
	})
	if err != nil {
		return domain.Topic{}, err
	}
	return created, nil
}

func (s *Store) ListPublishedTopics(ctx context.Context) ([]domain.PublishedTopic, error) {
	var rows []topicRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("t.status = ?", string(domain.TopicStatusPublished)).
		Order("t.created_at DESC", "t.id DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list published topics: %w", err)
	}
	topics, err := s.withQuestions(ctx, rows)
	if err != nil {
		return nil, err
	}

	teacherIDs := make([]int64, 0, len(rows))
	for _, r := range rows {
		teacherIDs = append(teacherIDs, r.TeacherID)
	}
	teachers, err := s.userNames(ctx, teacherIDs)
	if err != nil {
		return nil, err
	}

	out := make([]domain.PublishedTopic, 0, len(topics))
	for _, t := range topics {
		out = append(out, domain.PublishedTopic{Topic: t, TeacherName: teachers[t.TeacherID].FullName})
	}
	return out, nil
}

func (s *Store) ListTopicsByTeacher(ctx context.Context, teacherID int64) ([]domain.Topic, error) {
	var rows []topicRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("t.teacher_id = ?", teacherID).
		Order("t.created_at DESC", "t.id DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list teacher topics: %w", err)
	}
	return s.withQuestions(ctx, rows)
}

// withQuestions loads the questions of all given topics with one query, ordered by position.
func (s *Store) withQuestions(ctx context.Context, rows []topicRow) ([]domain.Topic, error) {
	topics := make([]domain.Topic, 0, len(rows))
	if len(rows) == 0 {
		return topics, nil
	}
	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	var qrows []questionRow
	err := s.db.NewSelect().
		Model(&qrows).
		Where("q.topic_id IN (?)", bun.In(ids)).
		Order("q.topic_id ASC", "q.position ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select questions: %w", err)
	}
	byTopic := make(map[int64][]domain.Question, len(rows))
	for _, q := range qrows {
		byTopic[q.TopicID] = append(byTopic[q.TopicID], q.toDomain())
	}
	for _, r := range rows {
		topics = append(topics, r.toDomain(byTopic[r.ID]))
	}
	return topics, nil
}

// LoadAnswerKey reads the ordered grading key of a topic. It satisfies the cache loaders.
func (s *Store) LoadAnswerKey(ctx context.Context, topicID int64) (domain.AnswerKey, error) {
	var row topicRow
	err := s.db.NewSelect().Model(&row).Where("t.id = ?", topicID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.AnswerKey{}, domain.ErrTopicNotFound
	}
	if err != nil {
		return domain.AnswerKey{}, fmt.Errorf("select topic: %w", err)
	}

	var qrows []questionRow
	err = s.db.NewSelect().
		Model(&qrows).
		Column("q.id", "q.correct_answer").
		Where("q.topic_id = ?", topicID).
		Order("q.position ASC").
		Scan(ctx)
	if err != nil {
		return domain.AnswerKey{}, fmt.Errorf("select answer key: %w", err)
	}

	key := domain.AnswerKey{
		TopicID: row.ID,
		Title:   row.Title,
		Status:  domain.TopicStatus(row.Status),
		Entries: make([]domain.AnswerKeyItem, 0, len(qrows)),
	}
	for _, q := range qrows {
		key.Entries = append(key.Entries, domain.AnswerKeyItem{QuestionID: q.ID, CorrectAnswer: domain.OptionKey(q.CorrectAnswer)})
	}
	return key, nil
}

// Responses

// SaveResponses stores the whole batch in one transaction. The pre-check covers the common
// case and the unique index on (student_id, question_id) covers concurrent submissions.
func (s *Store) SaveResponses(ctx context.Context, responses []domain.Response) error {
	if len(responses) == 0 {
		return nil
	}
	now := s.clock()
	rows := make([]responseRow, 0, len(responses))
	questionIDs := make([]int64, 0, len(responses))
	for _, r := range responses {
		rows = append(rows, responseRow{
			StudentID:      r.StudentID,
			TopicID:        r.TopicID,
			QuestionID:     r.QuestionID,
			SelectedAnswer: string(r.SelectedAnswer),
			IsCorrect:      r.IsCorrect,
			CreatedAt:      now,
		})
		questionIDs = append(questionIDs, r.QuestionID)
	}
	studentID := responses[0].StudentID

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*responseRow)(nil)).
			Where("r.student_id = ?", studentID).
			Where("r.question_id IN (?)", bun.In(questionIDs)).
			Exists(ctx)
		if err != nil {
			return fmt.Errorf("check previous responses: %w", err)
		}
		if exists {
			return domain.ErrAlreadySubmitted
		}
		if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
			if isUniqueViolation(err) {
				return domain.ErrAlreadySubmitted
			}
			return fmt.Errorf("insert responses: %w", err)
		}
		return nil
	})
	return err
}

func (s *Store) ListResultsByStudent(ctx context.Context, studentID int64) ([]domain.TopicResult, error) {
	var rows []resultRow
	err := s.db.NewSelect().
		TableExpr("responses AS r").
		Join("JOIN topics AS t ON t.id = r.topic_id").
		ColumnExpr("r.topic_id").
		ColumnExpr("t.title").
		ColumnExpr("COUNT(*) AS total").
		ColumnExpr("SUM(CASE WHEN r.is_correct THEN 1 ELSE 0 END) AS correct").
		ColumnExpr("MIN(r.created_at) AS submitted_at").
		Where("r.student_id = ?", studentID).
		Group("r.topic_id", "t.title").
		OrderExpr("submitted_at DESC, r.topic_id DESC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	results := make([]domain.TopicResult, 0, len(rows))
	for _, r := range rows {
		results = append(results, domain.TopicResult{
			TopicID:     r.TopicID,
			Title:       r.Title,
			Score:       domain.ScorePercent(r.Correct, r.Total),
			Correct:     r.Correct,
			Total:       r.Total,
			SubmittedAt: r.SubmittedAt,
		})
	}
	return results, nil
}

// Inbox

func (s *Store) CreateStudentQuestion(ctx context.Context, q domain.StudentQuestion) (domain.StudentQuestion, error) {
	row := studentQuestionRow{
		StudentID:    q.StudentID,
		Question:     q.Question,
		TopicRequest: q.TopicRequest,
		Status:       string(domain.InboxPending),
		CreatedAt:    s.clock(),
	}
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return domain.StudentQuestion{}, fmt.Errorf("insert student question: %w", err)
	}
	return row.toDomain(), nil
}

func (s *Store) ListByStudent(ctx context.Context, studentID int64) ([]domain.StudentQuestion, error) {
	var rows []studentQuestionRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("sq.student_id = ?", studentID).
		Order("sq.created_at DESC", "sq.id DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list student questions: %w", err)
	}
	out := make([]domain.StudentQuestion, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *Store) ListPending(ctx context.Context) ([]domain.PendingQuestion, error) {
	var rows []studentQuestionRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("sq.status = ?", string(domain.InboxPending)).
		Order("sq.created_at ASC", "sq.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending questions: %w", err)
	}
	studentIDs := make([]int64, 0, len(rows))
	for _, r := range rows {
		studentIDs = append(studentIDs, r.StudentID)
	}
	students, err := s.userNames(ctx, studentIDs)
	if err != nil {
		return nil, err
	}
	out := make([]domain.PendingQuestion, 0, len(rows))
	for _, r := range rows {
		st := students[r.StudentID]
		out = append(out, domain.PendingQuestion{StudentQuestion: r.toDomain(), StudentName: st.FullName, StudentEmail: st.Email})
	}
	return out, nil
}

// AnswerPending is a compare-and-set on status = pending.
func (s *Store) AnswerPending(ctx context.Context, id int64, response string, teacherID int64) (domain.StudentQuestion, error) {
	res, err := s.db.NewUpdate().
		Model((*studentQuestionRow)(nil)).
		Set("status = ?", string(domain.InboxAnswered)).
		Set("teacher_response = ?", response).
		Set("responded_by = ?", teacherID).
		Set("answered_at = ?", s.clock()).
		Where("id = ?", id).
		Where("status = ?", string(domain.InboxPending)).
		Exec(ctx)
	if err != nil {
		return domain.StudentQuestion{}, fmt.Errorf("answer question: %w", err)
	}

	var row studentQuestionRow
	err = s.db.NewSelect().Model(&row).Where("sq.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.StudentQuestion{}, domain.ErrQuestionNotFound
	}
	if err != nil {
		return domain.StudentQuestion{}, fmt.Errorf("select question: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.StudentQuestion{}, domain.ErrAlreadyAnswered
	}
	return row.toDomain(), nil
}
