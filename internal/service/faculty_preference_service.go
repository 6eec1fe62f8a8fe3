package service

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-api/internal/models"
	appErrors "github.com/noah-isme/sma-adp-api/pkg/errors"
)

type facultyPreferenceRepo interface {
	ListByDepartment(ctx context.Context, department string) ([]models.FacultyPreference, error)
	GetByFaculty(ctx context.Context, faculty string) (*models.FacultyPreference, error)
	Upsert(ctx context.Context, pref *models.FacultyPreference) error
}

// UpsertFacultyPreferenceRequest captures payload to store a faculty
// member's day and time bias, validated against the canonical time-grid
// labels but never consulted for placement.
type UpsertFacultyPreferenceRequest struct {
	PreferredDays []string `json:"preferredDays" validate:"omitempty,dive,oneof=Monday Tuesday Wednesday Thursday Friday"`
	PreferredTime []string `json:"preferredTime"`
}

// FacultyPreferenceService handles faculty preference CRUD.
type FacultyPreferenceService struct {
	repo      facultyPreferenceRepo
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFacultyPreferenceService builds the service.
func NewFacultyPreferenceService(repo facultyPreferenceRepo, validate *validator.Validate, logger *zap.Logger) *FacultyPreferenceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FacultyPreferenceService{repo: repo, validator: validate, logger: logger}
}

// Get returns stored preferences for a faculty member, or an empty default.
func (s *FacultyPreferenceService) Get(ctx context.Context, faculty string) (*models.FacultyPreference, error) {
	pref, err := s.repo.GetByFaculty(ctx, faculty)
	if err != nil {
		if err == sql.ErrNoRows {
			return &models.FacultyPreference{
				Faculty:       faculty,
				PreferredDays: types.JSONText("[]"),
				PreferredTime: types.JSONText("[]"),
			}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty preferences")
	}
	return pref, nil
}

// Upsert stores a faculty member's preference bias.
func (s *FacultyPreferenceService) Upsert(ctx context.Context, faculty string, req UpsertFacultyPreferenceRequest) (*models.FacultyPreference, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid preference payload")
	}
	for _, t := range req.PreferredTime {
		if !isCanonicalTimeSlot(t) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "preferredTime entries must be canonical time-grid labels")
		}
	}

	daysJSON, err := marshalOrEmptyArray(req.PreferredDays)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid preferredDays payload")
	}
	timeJSON, err := marshalOrEmptyArray(req.PreferredTime)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid preferredTime payload")
	}

	payload := &models.FacultyPreference{
		Faculty:       faculty,
		PreferredDays: daysJSON,
		PreferredTime: timeJSON,
	}

	existing, err := s.repo.GetByFaculty(ctx, faculty)
	if err != nil && err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty preferences")
	}
	if existing != nil {
		payload.ID = existing.ID
		payload.CreatedAt = existing.CreatedAt
	}

	if err := s.repo.Upsert(ctx, payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to upsert faculty preferences")
	}
	return payload, nil
}

func marshalOrEmptyArray(values []string) (types.JSONText, error) {
	if len(values) == 0 {
		return types.JSONText("[]"), nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	return types.JSONText(data), nil
}
