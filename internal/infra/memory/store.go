package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"gamified-lms/internal/domain"
)

// Store is an in-memory implementation of the app repositories. Every multi-row write happens
// under one lock, so readers never see a topic with part of its questions or a partial response set.
type Store struct {
	mu    sync.RWMutex
	clock func() time.Time

	nextUserID     int64
	nextTopicID    int64
	nextQuestionID int64
	nextResponseID int64
	nextInboxID    int64

	users     map[int64]domain.User
	emails    map[string]int64
	topics    []domain.Topic
	responses []domain.Response
	answered  map[responseKey]struct{}
	inbox     map[int64]domain.StudentQuestion
}

type responseKey struct {
	studentID, questionID int64
}

func NewStore() *Store {
	return NewStoreWithClock(time.Now)
}

// NewStoreWithClock allows deterministic timestamps in tests.
func NewStoreWithClock(now func() time.Time) *Store {
	return &Store{
		clock:    now,
		users:    make(map[int64]domain.User),
		emails:   make(map[string]int64),
		answered: make(map[responseKey]struct{}),
		inbox:    make(map[int64]domain.StudentQuestion),
	}
}

func (s *Store) CreateUser(_ context.Context, u domain.User) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.emails[u.Email]; ok {
		return domain.User{}, domain.ErrEmailTaken
	}
	s.nextUserID++
	u.ID = s.nextUserID
	u.CreatedAt = s.clock()
	s.users[u.ID] = u
	s.emails[u.Email] = u.ID
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emails[email]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return s.users[id], nil
}

func (s *Store) GetUserByID(_ context.Context, id int64) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return u, nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (s *Store) UpdateUserRole(_ context.Context, id int64, role domain.Role) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	u.Role = role
	s.users[id] = u
	return u, nil
}

func (s *Store) UpdateUserName(_ context.Context, id int64, fullName string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	u.FullName = fullName
	s.users[id] = u
	return u, nil
}

func (s *Store) CountUsers(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}

func (s *Store) CreateTopic(_ context.Context, topic domain.Topic) (domain.Topic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextTopicID++
	topic.ID = s.nextTopicID
	topic.CreatedAt = s.clock()
	questions := make([]domain.Question, len(topic.Questions))
	for i, q := range topic.Questions {
		s.nextQuestionID++
		q.ID = s.nextQuestionID
		q.TopicID = topic.ID
		q.Position = i
		questions[i] = q
	}
	topic.Questions = questions
	s.topics = append(s.topics, topic)
	return copyTopic(topic), nil
}

func (s *Store) ListPublishedTopics(_ context.Context) ([]domain.PublishedTopic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.PublishedTopic, 0, len(s.topics))
	for i := len(s.topics) - 1; i >= 0; i-- {
		t := s.topics[i]
		if t.Status != domain.TopicStatusPublished {
			continue
		}
		out = append(out, domain.PublishedTopic{Topic: copyTopic(t), TeacherName: s.users[t.TeacherID].FullName})
	}
	return out, nil
}

func (s *Store) ListTopicsByTeacher(_ context.Context, teacherID int64) ([]domain.Topic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Topic
	for i := len(s.topics) - 1; i >= 0; i-- {
		if s.topics[i].TeacherID == teacherID {
			out = append(out, copyTopic(s.topics[i]))
		}
	}
	return out, nil
}

// LoadAnswerKey satisfies AnswerKeyLoader.
func (s *Store) LoadAnswerKey(_ context.Context, topicID int64) (domain.AnswerKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.findTopicLocked(topicID)
	if !ok {
		return domain.AnswerKey{}, domain.ErrTopicNotFound
	}
	key := domain.AnswerKey{TopicID: t.ID, Title: t.Title, Status: t.Status, Entries: make([]domain.AnswerKeyItem, 0, len(t.Questions))}
	for _, q := range t.Questions {
		key.Entries = append(key.Entries, domain.AnswerKeyItem{QuestionID: q.ID, CorrectAnswer: q.CorrectAnswer})
	}
	return key, nil
}

func (s *Store) SaveResponses(_ context.Context, responses []domain.Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range responses {
		if _, dup := s.answered[responseKey{r.StudentID, r.QuestionID}]; dup {
			return domain.ErrAlreadySubmitted
		}
	}
	now := s.clock()
	for _, r := range responses {
		s.nextResponseID++
		r.ID = s.nextResponseID
		r.CreatedAt = now
		s.responses = append(s.responses, r)
		s.answered[responseKey{r.StudentID, r.QuestionID}] = struct{}{}
	}
	return nil
}

// Responses returns a copy of every stored response.
func (s *Store) Responses() []domain.Response {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Response(nil), s.responses...)
}

func (s *Store) ListResultsByStudent(_ context.Context, studentID int64) ([]domain.TopicResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byTopic := make(map[int64]*domain.TopicResult)
	var order []int64
	for _, r := range s.responses {
		if r.StudentID != studentID {
			continue
		}
		res, ok := byTopic[r.TopicID]
		if !ok {
			t, _ := s.findTopicLocked(r.TopicID)
			res = &domain.TopicResult{TopicID: r.TopicID, Title: t.Title, SubmittedAt: r.CreatedAt}
			byTopic[r.TopicID] = res
			order = append(order, r.TopicID)
		}
		res.Total++
		if r.IsCorrect {
			res.Correct++
		}
	}
	out := make([]domain.TopicResult, 0, len(order))
	for i := len(order) - 1; i >= 0; i-- {
		res := byTopic[order[i]]
		res.Score = domain.ScorePercent(res.Correct, res.Total)
		out = append(out, *res)
	}
	return out, nil
}

func (s *Store) CreateStudentQuestion(_ context.Context, q domain.StudentQuestion) (domain.StudentQuestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextInboxID++
	q.ID = s.nextInboxID
	q.Status = domain.InboxPending
	q.CreatedAt = s.clock()
	s.inbox[q.ID] = q
	return q, nil
}

func (s *Store) ListByStudent(_ context.Context, studentID int64) ([]domain.StudentQuestion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.StudentQuestion
	for _, q := range s.inbox {
		if q.StudentID == studentID {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Store) ListPending(_ context.Context) ([]domain.PendingQuestion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.PendingQuestion
	for _, q := range s.inbox {
		if q.Status != domain.InboxPending {
			continue
		}
		student := s.users[q.StudentID]
		out = append(out, domain.PendingQuestion{StudentQuestion: q, StudentName: student.FullName, StudentEmail: student.Email})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) AnswerPending(_ context.Context, id int64, response string, teacherID int64) (domain.StudentQuestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.inbox[id]
	if !ok {
		return domain.StudentQuestion{}, domain.ErrQuestionNotFound
	}
	if q.Status != domain.InboxPending {
		return domain.StudentQuestion{}, domain.ErrAlreadyAnswered
	}
	now := s.clock()
	q.Status = domain.InboxAnswered
	q.TeacherResponse = &response
	q.RespondedBy = &teacherID
	q.AnsweredAt = &now
	s.inbox[id] = q
	return q, nil
}

func (s *Store) findTopicLocked(id int64) (domain.Topic, bool) {
	for _, t := range s.topics {
		if t.ID == id {
			return t, true
		}
	}
	return domain.Topic{}, false
}

func copyTopic(t domain.Topic) domain.Topic {
	t.Questions = append([]domain.Question(nil), t.Questions...)
	return t
}
