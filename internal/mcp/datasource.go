package mcp

import (
	"context"

	"github.com/meltforce/flexlog/internal/food"
	"github.com/meltforce/flexlog/internal/localstore"
	"github.com/meltforce/flexlog/internal/models"
	"github.com/meltforce/flexlog/internal/storage"
)

// DataSource abstracts where a device's state comes from. *storage.DB
// (server snapshots), *localstore.Store (this machine) and HTTPClient
// (remote via REST API) satisfy this interface. LoadState returns nil when
// the device has no state.
type DataSource interface {
	LoadState(ctx context.Context, deviceID string) (*models.StoreState, error)
}

// FoodSource looks up foods. Both *food.Service and HTTPClient satisfy it.
type FoodSource interface {
	Search(ctx context.Context, q string) []models.FoodResult
	Barcode(ctx context.Context, code string) *models.FoodResult
}

// Compile-time checks.
var (
	_ DataSource = (*storage.DB)(nil)
	_ DataSource = (*localstore.Store)(nil)
	_ DataSource = (*HTTPClient)(nil)
	_ FoodSource = (*food.Service)(nil)
	_ FoodSource = (*HTTPClient)(nil)
)
