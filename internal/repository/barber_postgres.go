package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"barberapp/internal/domain"
)

type BarberRepo struct {
	db *pgxpool.Pool
}

func NewBarberRepository(db *pgxpool.Pool) *BarberRepo {
	return &BarberRepo{db: db}
}

const barberColumns = `
	id, user_id, name, shop_name, shop_address, profile_image, rating, total_reviews,
	skills, services, working_hours, is_active, created_at, updated_at`

func scanBarber(row pgx.Row) (*domain.Barber, error) {
	var b domain.Barber
	err := row.Scan(
		&b.ID,
		&b.UserID,
		&b.Name,
		&b.ShopName,
		&b.ShopAddress,
		&b.ProfileImage,
		&b.Rating,
		&b.TotalReviews,
		&b.Skills,
		&b.Services,
		&b.WorkingHours,
		&b.IsActive,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BarberRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Barber, error) {
	b, err := scanBarber(r.db.QueryRow(ctx, `SELECT `+barberColumns+` FROM barbers WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBarberNotFound
		}
		return nil, fmt.Errorf("ошибка получения барбера: %w", err)
	}
	return b, nil
}

func (r *BarberRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Barber, error) {
	b, err := scanBarber(r.db.QueryRow(ctx, `SELECT `+barberColumns+` FROM barbers WHERE user_id = $1`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBarberNotFound
		}
		return nil, fmt.Errorf("ошибка получения профиля барбера: %w", err)
	}
	return b, nil
}

func (r *BarberRepo) List(ctx context.Context, onlyActive bool) ([]domain.Barber, error) {
	query := `SELECT ` + barberColumns + ` FROM barbers`
	if onlyActive {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY rating DESC, name ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка барберов: %w", err)
	}
	defer rows.Close()

	var barbers []domain.Barber
	for rows.Next() {
		b, err := scanBarber(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования барбера: %w", err)
		}
		barbers = append(barbers, *b)
	}

	return barbers, rows.Err()
}

func (r *BarberRepo) UpdateWorkingHours(ctx context.Context, id uuid.UUID, hours []domain.WorkingHours) error {
	return r.updateColumn(ctx, id, "working_hours", hours)
}

func (r *BarberRepo) UpdateServices(ctx context.Context, id uuid.UUID, services []domain.Service) error {
	return r.updateColumn(ctx, id, "services", services)
}

func (r *BarberRepo) UpdateProfileImage(ctx context.Context, id uuid.UUID, url string) error {
	return r.updateColumn(ctx, id, "profile_image", url)
}

// column is always one of the constants above, never user input.
func (r *BarberRepo) updateColumn(ctx context.Context, id uuid.UUID, column string, value any) error {
	query := fmt.Sprintf(`UPDATE barbers SET %s = $2, updated_at = $3 WHERE id = $1`, column)

	tag, err := r.db.Exec(ctx, query, id, value, time.Now())
	if err != nil {
		return fmt.Errorf("ошибка обновления барбера (%s): %w", column, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBarberNotFound
	}
	return nil
}
