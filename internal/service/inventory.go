package service

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/meditrade/storefront/internal/api"
	"github.com/meditrade/storefront/internal/model"
)

// Inventory covers distributor stock records, including the bulk endpoints
// used by the spreadsheet-import screens.
type Inventory struct {
	api Doer
	ep  api.Endpoints
}

func NewInventory(api Doer, ep api.Endpoints) *Inventory {
	return &Inventory{api: api, ep: ep}
}

func (i *Inventory) List(ctx context.Context) ([]model.InventoryRecord, error) {
	return getList[model.InventoryRecord](ctx, i.api, i.ep.Inventory())
}

// RecordInput is a create/update payload.
type RecordInput struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

func (i *Inventory) Create(ctx context.Context, in RecordInput) (*model.InventoryRecord, error) {
	var out model.InventoryRecord
	if err := i.api.Post(ctx, i.ep.Inventory(), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (i *Inventory) Update(ctx context.Context, id int64, in RecordInput) (*model.InventoryRecord, error) {
	var out model.InventoryRecord
	if err := i.api.Put(ctx, i.ep.InventoryRecord(id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (i *Inventory) Delete(ctx context.Context, id int64) error {
	return i.api.Delete(ctx, i.ep.InventoryRecord(id), nil)
}

// BulkCreate inserts many records in one request.
func (i *Inventory) BulkCreate(ctx context.Context, in []RecordInput) ([]model.InventoryRecord, error) {
	var out []model.InventoryRecord
	if err := i.api.Post(ctx, i.ep.InventoryBulkCreate(), in, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// BulkDelete removes records by id in one request; ids travel as a query
// parameter because DELETE bodies are dropped by some proxies.
func (i *Inventory) BulkDelete(ctx context.Context, ids []int64) error {
	parts := make([]string, len(ids))
	for n, id := range ids {
		parts[n] = strconv.FormatInt(id, 10)
	}
	v := url.Values{}
	v.Set("ids", strings.Join(parts, ","))
	return i.api.Delete(ctx, api.WithQuery(i.ep.InventoryBulkDelete(), v), nil)
}

// LowStock lists records under the restock threshold.
func (i *Inventory) LowStock(ctx context.Context) ([]model.InventoryRecord, error) {
	return getList[model.InventoryRecord](ctx, i.api, i.ep.InventoryLowStock())
}
