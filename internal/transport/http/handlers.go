package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"gamified-lms/internal/app"
	"gamified-lms/internal/domain"
	"gamified-lms/internal/logger"
)

// Services groups the use cases served over HTTP.
type Services struct {
	Identity        *app.IdentityService
	Topics          *app.TopicService
	Scoring         *app.ScoringService
	Inbox           *app.InboxService
	Leaderboard     *app.LeaderboardService
	Recommendations *app.RecommendationService
}

type Handler struct {
	svc Services
	log *logger.Logger
}

func NewHandler(svc Services, log *logger.Logger) *Handler {
	return &Handler{svc: svc, log: log.With("component", "http")}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	respondError(w, r, h.log, err)
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Validation(name, "must be a positive integer")
	}
	return id, nil
}

// Identity

type registerRequest struct {
	FullName string      `json:"full_name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	u, err := h.svc.Identity.Register(r.Context(), app.Registration{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"user": u})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	u, token, err := h.svc.Identity.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"token": token, "user": u})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.Identity.Profile(r.Context(), ActorFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"user": u})
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FullName string `json:"full_name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	u, err := h.svc.Identity.UpdateProfile(r.Context(), ActorFromContext(r.Context()), req.FullName)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"user": u})
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.Identity.ListUsers(r.Context(), ActorFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (h *Handler) setRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "userId")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req struct {
		Role domain.Role `json:"role"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	u, err := h.svc.Identity.SetRole(r.Context(), ActorFromContext(r.Context()), id, req.Role)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"user": u})
}

// Topics and scoring

type questionRequest struct {
	Question      string           `json:"question"`
	OptionA       string           `json:"option_a"`
	OptionB       string           `json:"option_b"`
	OptionC       string           `json:"option_c"`
	OptionD       string           `json:"option_d"`
	CorrectAnswer domain.OptionKey `json:"correct_answer"`
}

type topicRequest struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Difficulty  domain.Difficulty `json:"difficulty"`
	Questions   []questionRequest `json:"questions"`
}

func (req topicRequest) draft() domain.TopicDraft {
	d := domain.TopicDraft{
		Title:       req.Title,
		Description: req.Description,
		Difficulty:  req.Difficulty,
		Questions:   make([]domain.QuestionDraft, 0, len(req.Questions)),
	}
	for _, q := range req.Questions {
		d.Questions = append(d.Questions, domain.QuestionDraft{
			Text:          q.Question,
			OptionA:       q.OptionA,
			OptionB:       q.OptionB,
			OptionC:       q.OptionC,
			OptionD:       q.OptionD,
			CorrectAnswer: q.CorrectAnswer,
		})
	}
	return d
}

func (h *Handler) createTopic(w http.ResponseWriter, r *http.Request) {
	var req topicRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	topic, err := h.svc.Topics.CreateTopic(r.Context(), ActorFromContext(r.Context()), req.draft())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"topic": topic})
}

func (h *Handler) listTopics(w http.ResponseWriter, r *http.Request) {
	topics, err := h.svc.Topics.ListPublishedTopics(r.Context(), ActorFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"topics": topics})
}

func (h *Handler) myTopics(w http.ResponseWriter, r *http.Request) {
	topics, err := h.svc.Topics.ListOwnTopics(r.Context(), ActorFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if topics == nil {
		topics = []domain.Topic{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"topics": topics})
}

func (h *Handler) submitResponses(w http.ResponseWriter, r *http.Request) {
	topicID, err := pathID(r, "topicId")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req struct {
		Responses []domain.OptionKey `json:"responses"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	summary, err := h.svc.Scoring.SubmitResponses(r.Context(), ActorFromContext(r.Context()), topicID, req.Responses)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func (h *Handler) myResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.svc.Scoring.MyResults(r.Context(), ActorFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"results": results})
}

// Q&A inbox

func (h *Handler) askQuestion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question     string  `json:"question"`
		TopicRequest *string `json:"topic_request"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	q, err := h.svc.Inbox.AskQuestion(r.Context(), ActorFromContext(r.Context()), req.Question, req.TopicRequest)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"question": q})
}

func (h *Handler) myQuestions(w http.ResponseWriter, r *http.Request) {
	qs, err := h.svc.Inbox.MyQuestions(r.Context(), ActorFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if qs == nil {
		qs = []domain.StudentQuestion{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"questions": qs})
}

func (h *Handler) pendingQuestions(w http.ResponseWriter, r *http.Request) {
	qs, err := h.svc.Inbox.PendingQuestions(r.Context(), ActorFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if qs == nil {
		qs = []domain.PendingQuestion{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"questions": qs})
}

func (h *Handler) respondToQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "questionId")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req struct {
		Response string `json:"response"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	q, err := h.svc.Inbox.RespondToQuestion(r.Context(), ActorFromContext(r.Context()), id, req.Response)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"message": "Response submitted", "question": q})
}

// Gamification

func (h *Handler) leaderboard(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	lb, err := h.svc.Leaderboard.Leaderboard(r.Context(), ActorFromContext(r.Context()), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, lb)
}

func (h *Handler) myStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Leaderboard.Stats(r.Context(), ActorFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// Recommendations

func (h *Handler) recommendations(w http.ResponseWriter, r *http.Request) {
	actor := ActorFromContext(r.Context())
	var req struct {
		UserStats *domain.UserStats `json:"userStats"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	// Without explicit stats, use the learner's own leaderboard standing.
	if req.UserStats == nil {
		stats, err := h.svc.Leaderboard.Stats(r.Context(), actor)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		req.UserStats = &domain.UserStats{TotalPoints: stats.TotalPoints, Level: stats.Level}
	}
	out, err := h.svc.Recommendations.Recommendations(r.Context(), actor, *req.UserStats)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *Handler) predict(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserStats map[string]any `json:"userStats"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	out, err := h.svc.Recommendations.PredictPerformance(r.Context(), ActorFromContext(r.Context()), chi.URLParam(r, "quizId"), req.UserStats)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *Handler) learnerProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		QuizHistory  []map[string]any `json:"quizHistory"`
		ActivityData []map[string]any `json:"activityData"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	out, err := h.svc.Recommendations.LearnerProfile(r.Context(), ActorFromContext(r.Context()), req.QuizHistory, req.ActivityData)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}
