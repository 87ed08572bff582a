package services

import (
	"context"
	"errors"
	"strings"

	domain "github.com/brand-er1/clothology-express-sub000/internal/domain"
	"github.com/brand-er1/clothology-express-sub000/internal/repositories"
)

var (
	// ErrRecommendationInvalidInput signals the caller provided invalid data.
	ErrRecommendationInvalidInput = errors.New("recommendation: invalid input")
	// ErrRecommendationNoHeight indicates neither the request nor the profile
	// carried a usable height.
	ErrRecommendationNoHeight = errors.New("recommendation: height unavailable")
)

// RecommendationServiceDeps bundles collaborators for size recommendation.
type RecommendationServiceDeps struct {
	Profiles repositories.ProfileRepository
}

type recommendationService struct {
	profiles repositories.ProfileRepository
}

var _ RecommendationService = (*recommendationService)(nil)

// NewRecommendationService assembles the size recommendation service.
func NewRecommendationService(deps RecommendationServiceDeps) (RecommendationService, error) {
	return &recommendationService{profiles: deps.Profiles}, nil
}

// RecommendSize resolves a size from height and gender, falling back to the
// stored profile when the request omits them, and attaches the measurement
// table for the garment.
func (s *recommendationService) RecommendSize(ctx context.Context, cmd RecommendSizeCommand) (SizeRecommendation, error) {
	if cmd.ClothType == "" || !cmd.ClothType.Known() {
		return SizeRecommendation{}, ErrRecommendationInvalidInput
	}

	height := cmd.HeightCM
	genderRaw := strings.TrimSpace(cmd.Gender)
	if (height <= 0 || genderRaw == "") && s.profiles != nil {
		if uid := strings.TrimSpace(cmd.UserID); uid != "" {
			if profile, err := s.profiles.FindByID(ctx, uid); err == nil {
				if height <= 0 {
					height = profile.HeightCM
				}
				if genderRaw == "" {
					genderRaw = profile.Gender
				}
			}
		}
	}
	if height <= 0 {
		return SizeRecommendation{}, ErrRecommendationNoHeight
	}

	gender := domain.NormalizeGender(genderRaw)
	size := domain.ResolveSize(height, gender)

	recommendation := SizeRecommendation{
		Size:        size,
		Gender:      gender,
		HeightCM:    height,
		MeasureKeys: domain.MeasureKeysFor(cmd.ClothType),
	}
	measurements, ok := domain.LookupMeasurements(gender, cmd.ClothType, size)
	if !ok {
		recommendation.Fallback = true
		measurements, _ = domain.LookupMeasurements(gender, cmd.ClothType, domain.DefaultSize)
	}
	recommendation.Measurements = measurements
	return recommendation, nil
}
