package services

import (
	"context"
	"errors"
	"testing"

	"github.com/Dosada05/swiss-tournaments/models"
)

func validProfileInput() CreateGameProfileInput {
	win := models.OutcomeWin
	return CreateGameProfileInput{
		Name: "Chess",
		ScoringRules: models.ScoringRules{
			{Name: "win", Condition: models.RuleCondition{Type: models.ConditionResultEquals, ResultValue: &win}, Points: 1},
		},
		TiebreakerConfig: models.TiebreakerConfig{
			{Key: "buchholz", Name: "Buchholz", Type: models.TiebreakerBuchholz, Direction: models.SortDesc},
		},
	}
}

func TestCreateProfileAppliesPairingDefaults(t *testing.T) {
	repo := newFakeGameProfileRepo()
	svc := NewGameProfileService(repo, nil)

	profile, err := svc.Create(context.Background(), validProfileInput())
	if err != nil {
		t.Fatalf("create profile: %v", err)
	}
	if profile.Slug != "chess" {
		t.Fatalf("slug = %q, want chess", profile.Slug)
	}

	cfg := profile.PairingConfig
	if cfg.Method != models.PairingMethodSwiss || cfg.SortBy != models.PairingSortByPoints {
		t.Fatalf("pairing config = %+v, want swiss by points", cfg)
	}
	if cfg.MaxByesPerPlayer != 1 || cfg.ByeAssignment != models.ByeAssignLowestRanked {
		t.Fatalf("pairing config = %+v, want one bye assigned to the lowest ranked", cfg)
	}
}

func TestCreateProfileRejectsBrokenConfig(t *testing.T) {
	repo := newFakeGameProfileRepo()
	svc := NewGameProfileService(repo, nil)
	ctx := context.Background()

	input := validProfileInput()
	input.Name = "  "
	if _, err := svc.Create(ctx, input); err == nil {
		t.Fatal("expected empty name to be rejected")
	}

	stat := "kills"
	input = validProfileInput()
	input.ScoringRules = append(input.ScoringRules, models.ScoringRule{
		Name:      "frag bonus",
		Condition: models.RuleCondition{Type: models.ConditionStatComparison, Stat: &stat, Operator: opPtr(models.OperatorGt)},
	})
	if _, err := svc.Create(ctx, input); err == nil {
		t.Fatal("expected rule referencing an undefined stat to be rejected")
	}
}

func TestCreateProfileSlugConflict(t *testing.T) {
	repo := newFakeGameProfileRepo()
	svc := NewGameProfileService(repo, nil)
	ctx := context.Background()

	if _, err := svc.Create(ctx, validProfileInput()); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := svc.Create(ctx, validProfileInput()); !errors.Is(err, ErrSlugConflict) {
		t.Fatalf("error = %v, want ErrSlugConflict", err)
	}
}

func TestUpdateSystemProfile(t *testing.T) {
	repo := newFakeGameProfileRepo()
	svc := NewGameProfileService(repo, nil)
	ctx := context.Background()

	profile, err := svc.Create(ctx, validProfileInput())
	if err != nil {
		t.Fatalf("create profile: %v", err)
	}
	repo.profiles[profile.ID].IsSystem = true

	name := "House Chess"
	if _, err := svc.Update(ctx, profile.ID, UpdateGameProfileInput{Name: &name}); !errors.Is(err, ErrSystemProfileImmutable) {
		t.Fatalf("rename error = %v, want ErrSystemProfileImmutable", err)
	}

	rules := models.ScoringRules{}
	if _, err := svc.Update(ctx, profile.ID, UpdateGameProfileInput{ScoringRules: &rules}); !errors.Is(err, ErrSystemProfileImmutable) {
		t.Fatalf("rules edit error = %v, want ErrSystemProfileImmutable", err)
	}

	desc := "The built-in chess ruleset."
	updated, err := svc.Update(ctx, profile.ID, UpdateGameProfileInput{Description: &desc})
	if err != nil {
		t.Fatalf("description edit: %v", err)
	}
	if updated.Description == nil || *updated.Description != desc {
		t.Fatalf("description = %v, want %q", updated.Description, desc)
	}
}

func TestUpdateProfileRevalidates(t *testing.T) {
	repo := newFakeGameProfileRepo()
	svc := NewGameProfileService(repo, nil)
	ctx := context.Background()

	profile, err := svc.Create(ctx, validProfileInput())
	if err != nil {
		t.Fatalf("create profile: %v", err)
	}

	empty := models.ScoringRules{}
	if _, err := svc.Update(ctx, profile.ID, UpdateGameProfileInput{ScoringRules: &empty}); err == nil {
		t.Fatal("expected empty scoring rules to be rejected")
	}
}

func TestProfileBannerWithoutStorage(t *testing.T) {
	repo := newFakeGameProfileRepo()
	svc := NewGameProfileService(repo, nil)

	profile, err := svc.Create(context.Background(), validProfileInput())
	if err != nil {
		t.Fatalf("create profile: %v", err)
	}
	if _, err := svc.UploadBanner(context.Background(), profile.ID, "image/png", nil); !errors.Is(err, ErrBannerStorageUnavailable) {
		t.Fatalf("error = %v, want ErrBannerStorageUnavailable", err)
	}
}

func opPtr(op models.CompareOperator) *models.CompareOperator { return &op }
