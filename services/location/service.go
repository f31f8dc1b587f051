package location

import (
	"context"
	"errors"
	"strings"

	locationRepo "slotbook/database/repository/location"
	"slotbook/models"
	"slotbook/services/apperr"

	"go.uber.org/zap"
)

type LocationService interface {
	Create(ctx context.Context, actor models.Actor, input models.LocationInput) (*models.Location, error)
	List(ctx context.Context, actor models.Actor, includeDeleted bool) ([]models.Location, error)
	UpdateDisplay(ctx context.Context, actor models.Actor, id string, input models.LocationInput) (*models.Location, error)
	Delete(ctx context.Context, actor models.Actor, id string) error
}

type DefaultLocationService struct {
	Repo   locationRepo.LocationRepository
	Logger *zap.Logger
}

func validateInput(input *models.LocationInput) error {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return apperr.Validationf("name is required")
	}
	if (input.Latitude == nil) != (input.Longitude == nil) {
		return apperr.Validationf("latitude and longitude must be given together")
	}
	if input.Latitude != nil && (*input.Latitude < -90 || *input.Latitude > 90) {
		return apperr.Validationf("latitude %.6f out of range", *input.Latitude)
	}
	if input.Longitude != nil && (*input.Longitude < -180 || *input.Longitude > 180) {
		return apperr.Validationf("longitude %.6f out of range", *input.Longitude)
	}
	return nil
}

func (s *DefaultLocationService) Create(ctx context.Context, actor models.Actor, input models.LocationInput) (*models.Location, error) {
	if !actor.IsAdmin() {
		return nil, apperr.Forbidden("creating locations")
	}
	if err := validateInput(&input); err != nil {
		return nil, err
	}
	loc := &models.Location{Name: input.Name, Latitude: input.Latitude, Longitude: input.Longitude}
	if err := s.Repo.Create(ctx, loc); err != nil {
		return nil, apperr.Wrap(apperr.PersistenceFailure, err, "could not create location")
	}
	s.Logger.Info("Location created", zap.String("locationID", loc.ID), zap.String("name", loc.Name))
	return loc, nil
}

// List returns active locations. Only administrators may see soft-deleted ones.
func (s *DefaultLocationService) List(ctx context.Context, actor models.Actor, includeDeleted bool) ([]models.Location, error) {
	if includeDeleted && !actor.IsAdmin() {
		return nil, apperr.Forbidden("listing deleted locations")
	}
	locs, err := s.Repo.List(ctx, includeDeleted)
	if err != nil {
		return nil, apperr.Wrap(apperr.PersistenceFailure, err, "could not list locations")
	}
	if locs == nil {
		locs = []models.Location{}
	}
	return locs, nil
}

func (s *DefaultLocationService) UpdateDisplay(ctx context.Context, actor models.Actor, id string, input models.LocationInput) (*models.Location, error) {
	if !actor.IsAdmin() {
		return nil, apperr.Forbidden("editing locations")
	}
	if err := validateInput(&input); err != nil {
		return nil, err
	}
	loc, err := s.Repo.UpdateDisplay(ctx, id, input)
	if errors.Is(err, locationRepo.ErrNotFound) {
		return nil, apperr.New(apperr.NotFound, "location %s not found", id)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.PersistenceFailure, err, "could not update location")
	}
	return loc, nil
}

// Delete is a soft delete; existing slots and bookings keep their reference.
func (s *DefaultLocationService) Delete(ctx context.Context, actor models.Actor, id string) error {
	if !actor.IsAdmin() {
		return apperr.Forbidden("deleting locations")
	}
	err := s.Repo.SoftDelete(ctx, id)
	if errors.Is(err, locationRepo.ErrNotFound) {
		return apperr.New(apperr.NotFound, "location %s not found", id)
	}
	if err != nil {
		return apperr.Wrap(apperr.PersistenceFailure, err, "could not delete location")
	}
	s.Logger.Info("Location deleted", zap.String("locationID", id), zap.String("actor", actor.ID))
	return nil
}
