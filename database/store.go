package database

import (
	"context"
	"errors"
	"fmt"

	"servicehub/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// Store is the postgres-backed registry and audit store. It is safe for
// concurrent use; the pool does its own connection checkout.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// GetService looks up the registry row for a service id.
func (s *Store) GetService(ctx context.Context, id int32) (*models.Service, error) {
	var svc models.Service
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&svc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("service %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("service %d lookup failed: %w", id, err)
	}
	return &svc, nil
}

// SaveRequest writes the request audit row.
func (s *Store) SaveRequest(ctx context.Context, req *models.Request) error {
	row, err := models.NewApplicationRequest(req)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Create(row).Error
}

// ClaimResponse inserts the terminal outcome for the response's
// serhub_request_id. It reports false without error when another writer
// already claimed that id.
func (s *Store) ClaimResponse(ctx context.Context, resp *models.ServiceResponse) (bool, error) {
	row, err := models.NewApplicationResponse(resp)
	if err != nil {
		return false, err
	}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "serhub_request_id"}},
			DoNothing: true,
		}).
		Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// SaveFailure appends a fail-table row.
func (s *Store) SaveFailure(ctx context.Context, e *models.MappedError) error {
	row, err := models.NewFailRecord(e)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Create(row).Error
}

// GetResponse returns the terminal outcome recorded for a request.
func (s *Store) GetResponse(ctx context.Context, serhubRequestID uuid.UUID) (*models.ApplicationResponse, error) {
	var row models.ApplicationResponse
	err := s.db.WithContext(ctx).Where("serhub_request_id = ?", serhubRequestID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// GetOperator loads a status API account by name.
func (s *Store) GetOperator(ctx context.Context, name string) (*models.Operator, error) {
	var op models.Operator
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&op).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &op, nil
}

// SaveOperator creates the account or replaces its password.
func (s *Store) SaveOperator(ctx context.Context, op *models.Operator) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"password"}),
		}).
		Create(op).Error
}
