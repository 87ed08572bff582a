package services

import (
	"context"
	"errors"
	"testing"

	domain "github.com/brand-er1/clothology-express-sub000/internal/domain"
)

func TestRecommendationServiceRecommendSize(t *testing.T) {
	t.Run("resolves from explicit height", func(t *testing.T) {
		svc, err := NewRecommendationService(RecommendationServiceDeps{})
		if err != nil {
			t.Fatalf("NewRecommendationService: %v", err)
		}
		rec, err := svc.RecommendSize(context.Background(), RecommendSizeCommand{
			ClothType: domain.GarmentHoodie,
			HeightCM:  176,
			Gender:    "male",
		})
		if err != nil {
			t.Fatalf("RecommendSize: %v", err)
		}
		if rec.Size != domain.ResolveSize(176, domain.GenderMen) {
			t.Fatalf("unexpected size %q", rec.Size)
		}
		if len(rec.Measurements) == 0 {
			t.Fatalf("expected measurement table")
		}
		if len(rec.MeasureKeys) == 0 || rec.MeasureKeys[0] != domain.MeasureLength {
			t.Fatalf("unexpected measure keys %#v", rec.MeasureKeys)
		}
	})

	t.Run("falls back to profile height and gender", func(t *testing.T) {
		profiles := &stubProfileRepo{profile: domain.UserProfile{ID: "u1", HeightCM: 162, Gender: string(domain.GenderWomen)}}
		svc, err := NewRecommendationService(RecommendationServiceDeps{Profiles: profiles})
		if err != nil {
			t.Fatalf("NewRecommendationService: %v", err)
		}
		rec, err := svc.RecommendSize(context.Background(), RecommendSizeCommand{
			UserID:    "u1",
			ClothType: domain.GarmentLongPants,
		})
		if err != nil {
			t.Fatalf("RecommendSize: %v", err)
		}
		if rec.Gender != domain.GenderWomen || rec.HeightCM != 162 {
			t.Fatalf("expected profile fallback, got %#v", rec)
		}
	})

	t.Run("errors without any height", func(t *testing.T) {
		svc, err := NewRecommendationService(RecommendationServiceDeps{})
		if err != nil {
			t.Fatalf("NewRecommendationService: %v", err)
		}
		if _, err := svc.RecommendSize(context.Background(), RecommendSizeCommand{ClothType: domain.GarmentHoodie}); !errors.Is(err, ErrRecommendationNoHeight) {
			t.Fatalf("expected ErrRecommendationNoHeight, got %v", err)
		}
	})

	t.Run("rejects unknown garment", func(t *testing.T) {
		svc, err := NewRecommendationService(RecommendationServiceDeps{})
		if err != nil {
			t.Fatalf("NewRecommendationService: %v", err)
		}
		if _, err := svc.RecommendSize(context.Background(), RecommendSizeCommand{ClothType: "cape", HeightCM: 170}); !errors.Is(err, ErrRecommendationInvalidInput) {
			t.Fatalf("expected ErrRecommendationInvalidInput, got %v", err)
		}
	})
}
