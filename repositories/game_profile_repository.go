package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/Dosada05/swiss-tournaments/models"
)

var (
	ErrGameProfileNotFound     = errors.New("game profile not found")
	ErrGameProfileSlugConflict = errors.New("game profile slug is already in use")
)

type GameProfileRepository interface {
	Create(ctx context.Context, exec SQLExecutor, profile *models.GameProfile) error
	Update(ctx context.Context, exec SQLExecutor, profile *models.GameProfile) error
	GetByID(ctx context.Context, exec SQLExecutor, id models.GameProfileID) (*models.GameProfile, error)
	GetBySlug(ctx context.Context, exec SQLExecutor, slug string) (*models.GameProfile, error)
	List(ctx context.Context, exec SQLExecutor) ([]*models.GameProfile, error)
}

type postgresGameProfileRepository struct {
	db *sql.DB
}

func NewPostgresGameProfileRepository(db *sql.DB) GameProfileRepository {
	return &postgresGameProfileRepository{db: db}
}

func (r *postgresGameProfileRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const gameProfileColumns = `
	id, name, slug, description, stat_definitions, scoring_rules,
	tiebreaker_config, pairing_config, is_system, banner_key, created_at, updated_at`

func (r *postgresGameProfileRepository) scanProfile(row interface{ Scan(...interface{}) error }) (*models.GameProfile, error) {
	var p models.GameProfile
	err := row.Scan(
		&p.ID, &p.Name, &p.Slug, &p.Description, &p.StatDefinitions, &p.ScoringRules,
		&p.TiebreakerConfig, &p.PairingConfig, &p.IsSystem, &p.BannerKey, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameProfileNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *postgresGameProfileRepository) Create(ctx context.Context, exec SQLExecutor, p *models.GameProfile) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO game_profiles (
			id, name, slug, description, stat_definitions, scoring_rules,
			tiebreaker_config, pairing_config, is_system, banner_key, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := executor.ExecContext(ctx, query,
		p.ID, p.Name, p.Slug, p.Description, p.StatDefinitions, p.ScoringRules,
		p.TiebreakerConfig, p.PairingConfig, p.IsSystem, p.BannerKey, p.CreatedAt, p.UpdatedAt,
	)
	return handleGameProfileError(err)
}

func (r *postgresGameProfileRepository) Update(ctx context.Context, exec SQLExecutor, p *models.GameProfile) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE game_profiles SET
			name = $1, slug = $2, description = $3, stat_definitions = $4,
			scoring_rules = $5, tiebreaker_config = $6, pairing_config = $7,
			banner_key = $8, updated_at = $9
		WHERE id = $10`
	result, err := executor.ExecContext(ctx, query,
		p.Name, p.Slug, p.Description, p.StatDefinitions,
		p.ScoringRules, p.TiebreakerConfig, p.PairingConfig,
		p.BannerKey, p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		return handleGameProfileError(err)
	}
	return checkAffectedRows(result, ErrGameProfileNotFound)
}

func (r *postgresGameProfileRepository) GetByID(ctx context.Context, exec SQLExecutor, id models.GameProfileID) (*models.GameProfile, error) {
	executor := r.getExecutor(exec)
	row := executor.QueryRowContext(ctx, `SELECT`+gameProfileColumns+` FROM game_profiles WHERE id = $1`, id)
	return r.scanProfile(row)
}

func (r *postgresGameProfileRepository) GetBySlug(ctx context.Context, exec SQLExecutor, slug string) (*models.GameProfile, error) {
	executor := r.getExecutor(exec)
	row := executor.QueryRowContext(ctx, `SELECT`+gameProfileColumns+` FROM game_profiles WHERE slug = $1`, slug)
	return r.scanProfile(row)
}

func (r *postgresGameProfileRepository) List(ctx context.Context, exec SQLExecutor) ([]*models.GameProfile, error) {
	executor := r.getExecutor(exec)
	rows, err := executor.QueryContext(ctx, `SELECT`+gameProfileColumns+` FROM game_profiles ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profiles := make([]*models.GameProfile, 0)
	for rows.Next() {
		p, scanErr := r.scanProfile(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func handleGameProfileError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrGameProfileSlugConflict
	}
	return err
}
