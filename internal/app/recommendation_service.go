package app

import (
	"context"
	"strconv"
	"time"

	"gamified-lms/internal/domain"
	"gamified-lms/internal/logger"
	"gamified-lms/internal/resilience"
)

// Recommender is the external AI collaborator.
type Recommender interface {
	Recommend(ctx context.Context, req domain.RecommendationRequest) ([]domain.Recommendation, error)
	Predict(ctx context.Context, req domain.PredictionRequest) (domain.Prediction, error)
	AnalyzeProfile(ctx context.Context, req domain.ProfileRequest) (domain.LearnerProfile, error)
}

// Recommendations is the payload returned to callers; Fallback flags a static answer.
type Recommendations struct {
	Recommendations []domain.Recommendation `json:"recommendations"`
	Message         string                  `json:"message"`
	Fallback        bool                    `json:"fallback"`
}

type PredictionResult struct {
	domain.Prediction
	Fallback bool `json:"fallback"`
}

type ProfileResult struct {
	Profile  domain.LearnerProfile `json:"profile"`
	Fallback bool                  `json:"fallback"`
}

// RecommendationService proxies the AI collaborator and never propagates its failures.
type RecommendationService struct {
	ai      Recommender
	timeout time.Duration
	log     *logger.Logger
}

func NewRecommendationService(ai Recommender, timeout time.Duration, log *logger.Logger) *RecommendationService {
	return &RecommendationService{ai: ai, timeout: timeout, log: log.With("service", "RecommendationService")}
}

func (s *RecommendationService) Recommendations(ctx context.Context, actor domain.Actor, stats domain.UserStats) (Recommendations, error) {
	if err := domain.Authorize(actor.Role, domain.AnyRole...); err != nil {
		return Recommendations{}, err
	}
	level := stats.Level
	if level <= 0 {
		level = 1
	}
	req := domain.RecommendationRequest{
		UserID:      strconv.FormatInt(actor.UserID, 10),
		TotalPoints: stats.TotalPoints,
		Level:       level,
		Preferences: stats.Preferences,
	}
	res := resilience.CallWithFallback(ctx, s.timeout, FallbackRecommendations(), func(ctx context.Context) ([]domain.Recommendation, error) {
		return s.ai.Recommend(ctx, req)
	})
	if res.Fallback {
		s.log.Warn("recommendations fell back", "user_id", actor.UserID, "error", res.Err)
		return Recommendations{Recommendations: res.Value, Message: "AI unavailable, returning fallback recommendations", Fallback: true}, nil
	}
	return Recommendations{Recommendations: res.Value, Message: "Recommendations available"}, nil
}

func (s *RecommendationService) PredictPerformance(ctx context.Context, actor domain.Actor, quizID string, userStats map[string]any) (PredictionResult, error) {
	if err := domain.Authorize(actor.Role, domain.AnyRole...); err != nil {
		return PredictionResult{}, err
	}
	if userStats == nil {
		userStats = map[string]any{}
	}
	req := domain.PredictionRequest{UserID: strconv.FormatInt(actor.UserID, 10), QuizID: quizID, UserStats: userStats}
	res := resilience.CallWithFallback(ctx, s.timeout, FallbackPrediction(), func(ctx context.Context) (domain.Prediction, error) {
		return s.ai.Predict(ctx, req)
	})
	if res.Fallback {
		s.log.Warn("prediction fell back", "user_id", actor.UserID, "quiz_id", quizID, "error", res.Err)
	}
	return PredictionResult{Prediction: res.Value, Fallback: res.Fallback}, nil
}

func (s *RecommendationService) LearnerProfile(ctx context.Context, actor domain.Actor, quizHistory, activity []map[string]any) (ProfileResult, error) {
	if err := domain.Authorize(actor.Role, domain.AnyRole...); err != nil {
		return ProfileResult{}, err
	}
	if quizHistory == nil {
		quizHistory = []map[string]any{}
	}
	if activity == nil {
		activity = []map[string]any{}
	}
	req := domain.ProfileRequest{UserID: strconv.FormatInt(actor.UserID, 10), QuizHistory: quizHistory, ActivityData: activity}
	res := resilience.CallWithFallback(ctx, s.timeout, FallbackProfile(), func(ctx context.Context) (domain.LearnerProfile, error) {
		return s.ai.AnalyzeProfile(ctx, req)
	})
	if res.Fallback {
		s.log.Warn("learner profile fell back", "user_id", actor.UserID, "error", res.Err)
	}
	return ProfileResult{Profile: res.Value, Fallback: res.Fallback}, nil
}

// FallbackRecommendations is the static payload served when the AI service is unavailable.
func FallbackRecommendations() []domain.Recommendation {
	return []domain.Recommendation{
		{
			Type:        "quiz",
			Title:       "Practice Quiz - Beginner Level",
			Description: "Start with basic concepts",
			Difficulty:  "easy",
			Reason:      "Solid foundation starter",
		},
		{
			Type:        "lesson",
			Title:       "Introduction to Learning",
			Description: "Build your foundation",
			Difficulty:  "beginner",
			Reason:      "Recommended for consistent progress",
		},
	}
}

func FallbackPrediction() domain.Prediction {
	return domain.Prediction{
		PredictedScore: 0.7,
		Confidence:     0.6,
		Suggestions:    []string{"Review the lesson materials before taking the quiz"},
	}
}

func FallbackProfile() domain.LearnerProfile {
	return domain.LearnerProfile{
		LearningStyle:        "visual",
		DifficultyPreference: "moderate",
		EngagementLevel:      "medium",
		Strengths:            []string{"persistence"},
		AreasForImprovement:  []string{"time management"},
		RecommendedPace:      "average",
	}
}

// NoopRecommender always fails so every call resolves to its fallback.
type NoopRecommender struct{}

func (NoopRecommender) Recommend(context.Context, domain.RecommendationRequest) ([]domain.Recommendation, error) {
	return nil, domain.Dependency("recommendations", nil)
}

func (NoopRecommender) Predict(context.Context, domain.PredictionRequest) (domain.Prediction, error) {
	return domain.Prediction{}, domain.Dependency("prediction", nil)
}

func (NoopRecommender) AnalyzeProfile(context.Context, domain.ProfileRequest) (domain.LearnerProfile, error) {
	return domain.LearnerProfile{}, domain.Dependency("profile analysis", nil)
}
