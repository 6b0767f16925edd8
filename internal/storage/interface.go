package storage

import (
	"context"

	"github.com/Yuqi1124/TownRecord/internal/model"
	"github.com/Yuqi1124/TownRecord/internal/services/town"
)

// TownStore holds the live town controllers of this process
type TownStore interface {
	SaveTown(ctx context.Context, controller *town.Controller) error
	GetTown(ctx context.Context, id model.TownID) (*town.Controller, error)
	DeleteTown(ctx context.Context, id model.TownID) error
	TownExists(ctx context.Context, id model.TownID) (bool, error)
	// ListTowns returns every town in creation order
	ListTowns(ctx context.Context) ([]*town.Controller, error)
}
