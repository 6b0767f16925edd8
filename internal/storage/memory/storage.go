package memory

import (
	"context"
	"sync"

	"github.com/samber/lo"

	"github.com/Yuqi1124/TownRecord/internal/model"
	"github.com/Yuqi1124/TownRecord/internal/services/town"
	"github.com/Yuqi1124/TownRecord/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	towns map[model.TownID]*town.Controller
	order []model.TownID
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		towns: make(map[model.TownID]*town.Controller),
	}
}

// Ensure Storage implements the interface
var _ storage.TownStore = (*Storage)(nil)

func (s *Storage) SaveTown(ctx context.Context, controller *town.Controller) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.towns[controller.ID()]; !exists {
		s.order = append(s.order, controller.ID())
	}
	s.towns[controller.ID()] = controller
	return nil
}

func (s *Storage) GetTown(ctx context.Context, id model.TownID) (*town.Controller, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	controller, ok := s.towns[id]
	if !ok {
		return nil, model.ErrTownNotFound
	}
	return controller, nil
}

func (s *Storage) DeleteTown(ctx context.Context, id model.TownID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.towns, id)
	s.order = lo.Without(s.order, id)
	return nil
}

func (s *Storage) TownExists(ctx context.Context, id model.TownID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.towns[id]
	return ok, nil
}

func (s *Storage) ListTowns(ctx context.Context) ([]*town.Controller, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.Map(s.order, func(id model.TownID, _ int) *town.Controller {
		return s.towns[id]
	}), nil
}
