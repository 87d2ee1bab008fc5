package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"barberapp/internal/domain"
	"barberapp/internal/repository"
	"barberapp/internal/storage"
)

type BarberServiceImpl struct {
	repo    repository.BarberRepository
	storage storage.FileStorage
	logger  *zap.Logger
}

func NewBarberService(repo repository.BarberRepository, fileStorage storage.FileStorage, logger *zap.Logger) *BarberServiceImpl {
	return &BarberServiceImpl{
		repo:    repo,
		storage: fileStorage,
		logger:  logger,
	}
}

func (s *BarberServiceImpl) List(ctx context.Context) ([]domain.Barber, error) {
	barbers, err := s.repo.List(ctx, true)
	if err != nil {
		return nil, err
	}
	if barbers == nil {
		barbers = []domain.Barber{}
	}
	return barbers, nil
}

func (s *BarberServiceImpl) GetByID(ctx context.Context, id uuid.UUID) (*domain.Barber, error) {
	return s.repo.GetByID(ctx, id)
}

// GetForUser returns the barber profile owned by a user account.
func (s *BarberServiceImpl) GetForUser(ctx context.Context, userID uuid.UUID) (*domain.Barber, error) {
	barber, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrBarberOnly
		}
		return nil, err
	}
	return barber, nil
}

// UpdateWorkingHours replaces the caller's weekly template.
func (s *BarberServiceImpl) UpdateWorkingHours(ctx context.Context, principal domain.Principal, hours []domain.WorkingHours) (*domain.Barber, error) {
	barber, err := s.GetForUser(ctx, principal.UserID)
	if err != nil {
		return nil, err
	}

	normalized := make([]domain.WorkingHours, len(hours))
	for i, wh := range hours {
		wh.Day = domain.Weekday(strings.ToLower(strings.TrimSpace(string(wh.Day))))
		normalized[i] = wh
	}

	if err := domain.ValidateWorkingHours(normalized); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateWorkingHours(ctx, barber.ID, normalized); err != nil {
		return nil, err
	}

	s.logger.Info("working hours updated", zap.String("barber_id", barber.ID.String()))

	barber.WorkingHours = normalized
	return barber, nil
}

// UpdateServices replaces the caller's service list. Existing appointments
// keep the snapshot taken when they were booked.
func (s *BarberServiceImpl) UpdateServices(ctx context.Context, principal domain.Principal, services []domain.Service) (*domain.Barber, error) {
	barber, err := s.GetForUser(ctx, principal.UserID)
	if err != nil {
		return nil, err
	}

	normalized := make([]domain.Service, len(services))
	for i, svc := range services {
		svc.Name = strings.TrimSpace(svc.Name)
		normalized[i] = svc
	}

	if err := domain.ValidateServices(normalized); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateServices(ctx, barber.ID, normalized); err != nil {
		return nil, err
	}

	s.logger.Info("services updated", zap.String("barber_id", barber.ID.String()), zap.Int("count", len(normalized)))

	barber.Services = normalized
	return barber, nil
}

func (s *BarberServiceImpl) UploadPhoto(ctx context.Context, principal domain.Principal, data []byte, filename string) (*domain.Barber, error) {
	if s.storage == nil {
		return nil, domain.ErrStorageNotAvailable
	}

	barber, err := s.GetForUser(ctx, principal.UserID)
	if err != nil {
		return nil, err
	}

	url, err := s.storage.UploadFile(ctx, data, filename)
	if err != nil {
		if errors.Is(err, storage.ErrNotImage) || errors.Is(err, storage.ErrEmptyFile) {
			return nil, domain.NewValidationError("INVALID_IMAGE", err.Error())
		}
		return nil, fmt.Errorf("upload photo: %w", err)
	}

	if err := s.repo.UpdateProfileImage(ctx, barber.ID, url); err != nil {
		return nil, err
	}

	if barber.ProfileImage != "" {
		if err := s.storage.DeleteFile(ctx, barber.ProfileImage); err != nil {
			s.logger.Warn("failed to delete previous photo", zap.String("url", barber.ProfileImage), zap.Error(err))
		}
	}

	barber.ProfileImage = url
	return barber, nil
}
