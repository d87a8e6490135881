package database

import (
	"context"
	"fmt"
	"sync"

	"servicehub/models"

	"github.com/google/uuid"
)

// MemoryStore keeps everything in maps. It mirrors the claim semantics of
// Store, first writer per serhub_request_id wins, and is used by tests.
type MemoryStore struct {
	mu        sync.Mutex
	services  map[int32]models.Service
	requests  []*models.ApplicationRequest
	responses map[uuid.UUID]*models.ApplicationResponse
	failures  []*models.FailRecord
	operators map[string]models.Operator

	// Fail* make the matching write return the given error.
	FailSaveRequest error
	FailClaim       error
	FailSaveFailure error
	serviceLookups  int
}

func NewMemoryStore(services ...models.Service) *MemoryStore {
	m := &MemoryStore{
		services:  make(map[int32]models.Service),
		responses: make(map[uuid.UUID]*models.ApplicationResponse),
		operators: make(map[string]models.Operator),
	}
	for _, svc := range services {
		m.services[svc.ID] = svc
	}
	return m
}

func (m *MemoryStore) GetService(_ context.Context, id int32) (*models.Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.serviceLookups++
	svc, ok := m.services[id]
	if !ok {
		return nil, fmt.Errorf("service %d: %w", id, ErrNotFound)
	}
	return &svc, nil
}

func (m *MemoryStore) SaveRequest(_ context.Context, req *models.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSaveRequest != nil {
		return m.FailSaveRequest
	}
	row, err := models.NewApplicationRequest(req)
	if err != nil {
		return err
	}
	m.requests = append(m.requests, row)
	return nil
}

func (m *MemoryStore) ClaimResponse(_ context.Context, resp *models.ServiceResponse) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailClaim != nil {
		return false, m.FailClaim
	}
	row, err := models.NewApplicationResponse(resp)
	if err != nil {
		return false, err
	}
	if _, exists := m.responses[row.SerhubRequestID]; exists {
		return false, nil
	}
	m.responses[row.SerhubRequestID] = row
	return true, nil
}

func (m *MemoryStore) SaveFailure(_ context.Context, e *models.MappedError) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSaveFailure != nil {
		return m.FailSaveFailure
	}
	row, err := models.NewFailRecord(e)
	if err != nil {
		return err
	}
	m.failures = append(m.failures, row)
	return nil
}

func (m *MemoryStore) GetResponse(_ context.Context, serhubRequestID uuid.UUID) (*models.ApplicationResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.responses[serhubRequestID]
	if !ok {
		return nil, ErrNotFound
	}
	return row, nil
}

func (m *MemoryStore) ServiceLookups() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.serviceLookups
}

func (m *MemoryStore) Requests() []*models.ApplicationRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.ApplicationRequest(nil), m.requests...)
}

func (m *MemoryStore) Responses() []*models.ApplicationResponse {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.ApplicationResponse, 0, len(m.responses))
	for _, row := range m.responses {
		out = append(out, row)
	}
	return out
}

func (m *MemoryStore) Failures() []*models.FailRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.FailRecord(nil), m.failures...)
}

func (m *MemoryStore) GetOperator(_ context.Context, name string) (*models.Operator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	op, ok := m.operators[name]
	if !ok {
		return nil, ErrNotFound
	}
	return &op, nil
}

func (m *MemoryStore) SaveOperator(_ context.Context, op *models.Operator) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.operators[op.Name]; ok {
		existing.Password = op.Password
		m.operators[op.Name] = existing
		return nil
	}
	if op.Id == "" {
		op.Id = uuid.NewString()
	}
	m.operators[op.Name] = *op
	return nil
}
