package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"gamified-lms/internal/app"
	"gamified-lms/internal/domain"
	"gamified-lms/internal/logger"
)

type fakeRecommender struct {
	delay time.Duration
	err   error
	got   domain.RecommendationRequest
}

func (f *fakeRecommender) Recommend(ctx context.Context, req domain.RecommendationRequest) ([]domain.Recommendation, error) {
	f.got = req
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	return []domain.Recommendation{{Type: "quiz", Title: "Fractions"}}, nil
}

func (f *fakeRecommender) Predict(ctx context.Context, req domain.PredictionRequest) (domain.Prediction, error) {
	if err := f.wait(ctx); err != nil {
		return domain.Prediction{}, err
	}
	return domain.Prediction{PredictedScore: 0.9, Confidence: 0.8}, nil
}

func (f *fakeRecommender) AnalyzeProfile(ctx context.Context, req domain.ProfileRequest) (domain.LearnerProfile, error) {
	if err := f.wait(ctx); err != nil {
		return domain.LearnerProfile{}, err
	}
	return domain.LearnerProfile{LearningStyle: "reading"}, nil
}

func (f *fakeRecommender) wait(ctx context.Context) error {
	if f.err != nil {
		return f.err
	}
	select {
	case <-time.After(f.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestRecommendationsPassThrough(t *testing.T) {
	ai := &fakeRecommender{}
	svc := app.NewRecommendationService(ai, time.Second, logger.Nop())
	actor := domain.Actor{UserID: 7, Role: domain.RoleStudent}

	got, err := svc.Recommendations(context.Background(), actor, domain.UserStats{TotalPoints: 120})
	if err != nil {
		t.Fatalf("recommendations: %v", err)
	}
	if got.Fallback || len(got.Recommendations) != 1 || got.Recommendations[0].Title != "Fractions" {
		t.Fatalf("unexpected result %+v", got)
	}
	if ai.got.UserID != "7" || ai.got.Level != 1 || ai.got.TotalPoints != 120 {
		t.Fatalf("unexpected request %+v", ai.got)
	}
}

func TestRecommendationsFallBack(t *testing.T) {
	actor := domain.Actor{UserID: 7, Role: domain.RoleStudent}
	cases := []struct {
		name string
		ai   app.Recommender
	}{
		{"error", &fakeRecommender{err: errors.New("boom")}},
		{"timeout", &fakeRecommender{delay: time.Second}},
		{"no provider", app.NoopRecommender{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := app.NewRecommendationService(tc.ai, 20*time.Millisecond, logger.Nop())

			recs, err := svc.Recommendations(context.Background(), actor, domain.UserStats{})
			if err != nil {
				t.Fatalf("fallback must not surface errors: %v", err)
			}
			if !recs.Fallback || len(recs.Recommendations) != len(app.FallbackRecommendations()) {
				t.Fatalf("expected fallback recommendations, got %+v", recs)
			}

			pred, err := svc.PredictPerformance(context.Background(), actor, "quiz-1", nil)
			if err != nil || !pred.Fallback || pred.PredictedScore != app.FallbackPrediction().PredictedScore {
				t.Fatalf("expected fallback prediction, got %+v %v", pred, err)
			}

			profile, err := svc.LearnerProfile(context.Background(), actor, nil, nil)
			if err != nil || !profile.Fallback || profile.Profile.LearningStyle != "visual" {
				t.Fatalf("expected fallback profile, got %+v %v", profile, err)
			}
		})
	}
}

func TestRecommendationsRequireIdentity(t *testing.T) {
	svc := app.NewRecommendationService(app.NoopRecommender{}, time.Second, logger.Nop())
	if _, err := svc.Recommendations(context.Background(), domain.Actor{}, domain.UserStats{}); err != domain.ErrUnauthenticated {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
}
