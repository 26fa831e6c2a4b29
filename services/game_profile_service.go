package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Dosada05/swiss-tournaments/models"
	"github.com/Dosada05/swiss-tournaments/repositories"
	"github.com/Dosada05/swiss-tournaments/storage"
	"github.com/Dosada05/swiss-tournaments/utils"
)

type GameProfileService interface {
	Create(ctx context.Context, input CreateGameProfileInput) (*models.GameProfile, error)
	Update(ctx context.Context, id models.GameProfileID, input UpdateGameProfileInput) (*models.GameProfile, error)
	GetByID(ctx context.Context, id models.GameProfileID) (*models.GameProfile, error)
	GetBySlug(ctx context.Context, slug string) (*models.GameProfile, error)
	List(ctx context.Context) ([]*models.GameProfile, error)
	UploadBanner(ctx context.Context, id models.GameProfileID, contentType string, file io.Reader) (*models.GameProfile, error)
}

type CreateGameProfileInput struct {
	Name             string                  `json:"name"`
	Description      *string                 `json:"description,omitempty"`
	StatDefinitions  models.StatDefinitions  `json:"stat_definitions"`
	ScoringRules     models.ScoringRules     `json:"scoring_rules"`
	TiebreakerConfig models.TiebreakerConfig `json:"tiebreaker_config"`
	PairingConfig    models.PairingConfig    `json:"pairing_config"`
}

// UpdateGameProfileInput uses pointers so absent fields stay untouched.
type UpdateGameProfileInput struct {
	Name             *string                  `json:"name,omitempty"`
	Description      *string                  `json:"description,omitempty"`
	StatDefinitions  *models.StatDefinitions  `json:"stat_definitions,omitempty"`
	ScoringRules     *models.ScoringRules     `json:"scoring_rules,omitempty"`
	TiebreakerConfig *models.TiebreakerConfig `json:"tiebreaker_config,omitempty"`
	PairingConfig    *models.PairingConfig    `json:"pairing_config,omitempty"`
}

type gameProfileService struct {
	profileRepo repositories.GameProfileRepository
	uploader    storage.FileUploader
}

func NewGameProfileService(profileRepo repositories.GameProfileRepository, uploader storage.FileUploader) GameProfileService {
	return &gameProfileService{profileRepo: profileRepo, uploader: uploader}
}

func (s *gameProfileService) Create(ctx context.Context, input CreateGameProfileInput) (*models.GameProfile, error) {
	profile := &models.GameProfile{
		ID:               models.NewGameProfileID(),
		Name:             strings.TrimSpace(input.Name),
		Description:      input.Description,
		StatDefinitions:  input.StatDefinitions,
		ScoringRules:     input.ScoringRules,
		TiebreakerConfig: input.TiebreakerConfig,
		PairingConfig:    input.PairingConfig,
	}
	if profile.Name == "" {
		return nil, errors.New("game profile name must not be empty")
	}
	profile.Slug = utils.Slugify(profile.Name)
	applyPairingDefaults(&profile.PairingConfig)

	if err := profile.ValidateConfig(); err != nil {
		return nil, err
	}

	if err := s.profileRepo.Create(ctx, nil, profile); err != nil {
		if errors.Is(err, repositories.ErrGameProfileSlugConflict) {
			return nil, ErrSlugConflict
		}
		return nil, fmt.Errorf("failed to create game profile: %w", err)
	}
	return profile, nil
}

func (s *gameProfileService) Update(ctx context.Context, id models.GameProfileID, input UpdateGameProfileInput) (*models.GameProfile, error) {
	profile, err := s.getProfile(ctx, id)
	if err != nil {
		return nil, err
	}

	if profile.IsSystem {
		if input.Name != nil || input.StatDefinitions != nil || input.ScoringRules != nil ||
			input.TiebreakerConfig != nil || input.PairingConfig != nil {
			return nil, ErrSystemProfileImmutable
		}
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, errors.New("game profile name must not be empty")
		}
		profile.Name = name
	}
	if input.Description != nil {
		profile.Description = input.Description
	}
	if input.StatDefinitions != nil {
		profile.StatDefinitions = *input.StatDefinitions
	}
	if input.ScoringRules != nil {
		profile.ScoringRules = *input.ScoringRules
	}
	if input.TiebreakerConfig != nil {
		profile.TiebreakerConfig = *input.TiebreakerConfig
	}
	if input.PairingConfig != nil {
		profile.PairingConfig = *input.PairingConfig
		applyPairingDefaults(&profile.PairingConfig)
	}

	if err := profile.ValidateConfig(); err != nil {
		return nil, err
	}

	if err := s.profileRepo.Update(ctx, nil, profile); err != nil {
		if errors.Is(err, repositories.ErrGameProfileSlugConflict) {
			return nil, ErrSlugConflict
		}
		return nil, fmt.Errorf("failed to update game profile: %w", err)
	}
	s.resolveBannerURL(profile)
	return profile, nil
}

func (s *gameProfileService) GetByID(ctx context.Context, id models.GameProfileID) (*models.GameProfile, error) {
	profile, err := s.getProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	s.resolveBannerURL(profile)
	return profile, nil
}

func (s *gameProfileService) GetBySlug(ctx context.Context, slug string) (*models.GameProfile, error) {
	profile, err := s.profileRepo.GetBySlug(ctx, nil, slug)
	if err != nil {
		if errors.Is(err, repositories.ErrGameProfileNotFound) {
			return nil, ErrGameProfileNotFound
		}
		return nil, fmt.Errorf("failed to get game profile by slug: %w", err)
	}
	s.resolveBannerURL(profile)
	return profile, nil
}

func (s *gameProfileService) List(ctx context.Context) ([]*models.GameProfile, error) {
	profiles, err := s.profileRepo.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list game profiles: %w", err)
	}
	for _, p := range profiles {
		s.resolveBannerURL(p)
	}
	return profiles, nil
}

func (s *gameProfileService) UploadBanner(ctx context.Context, id models.GameProfileID, contentType string, file io.Reader) (*models.GameProfile, error) {
	if s.uploader == nil {
		return nil, ErrBannerStorageUnavailable
	}
	profile, err := s.getProfile(ctx, id)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("profiles/%s/banner", profile.ID)
	result, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return nil, fmt.Errorf("failed to upload profile banner: %w", err)
	}

	profile.BannerKey = &result.Key
	if err := s.profileRepo.Update(ctx, nil, profile); err != nil {
		return nil, fmt.Errorf("failed to save profile banner key: %w", err)
	}
	s.resolveBannerURL(profile)
	return profile, nil
}

func (s *gameProfileService) getProfile(ctx context.Context, id models.GameProfileID) (*models.GameProfile, error) {
	profile, err := s.profileRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrGameProfileNotFound) {
			return nil, ErrGameProfileNotFound
		}
		return nil, fmt.Errorf("failed to get game profile: %w", err)
	}
	return profile, nil
}

func (s *gameProfileService) resolveBannerURL(profile *models.GameProfile) {
	if s.uploader == nil || profile.BannerKey == nil {
		return
	}
	url := s.uploader.GetPublicURL(*profile.BannerKey)
	profile.BannerURL = &url
}

// applyPairingDefaults fills the optional pairing knobs so stored configs are
// always complete.
func applyPairingDefaults(cfg *models.PairingConfig) {
	if cfg.Method == "" {
		cfg.Method = models.PairingMethodSwiss
	}
	if cfg.SortBy == "" {
		cfg.SortBy = models.PairingSortByPoints
	}
	if cfg.MaxByesPerPlayer == 0 {
		cfg.MaxByesPerPlayer = 1
	}
	if cfg.ByeAssignment == "" {
		cfg.ByeAssignment = models.ByeAssignLowestRanked
	}
}
