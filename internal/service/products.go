package service

import (
	"context"
	"net/url"
	"strconv"

	"github.com/meditrade/storefront/internal/api"
	"github.com/meditrade/storefront/internal/model"
)

// Products covers the catalogue: public browsing, distributor management,
// and admin approval.
type Products struct {
	api Doer
	ep  api.Endpoints
}

func NewProducts(api Doer, ep api.Endpoints) *Products {
	return &Products{api: api, ep: ep}
}

// ProductFilter narrows a catalogue listing; zero values are omitted.
type ProductFilter struct {
	Query    string
	Category string
	MinPrice float64
	MaxPrice float64
}

func (f ProductFilter) values() url.Values {
	v := url.Values{}
	if f.Query != "" {
		v.Set("q", f.Query)
	}
	if f.Category != "" {
		v.Set("category", f.Category)
	}
	if f.MinPrice > 0 {
		v.Set("min_price", strconv.FormatFloat(f.MinPrice, 'f', -1, 64))
	}
	if f.MaxPrice > 0 {
		v.Set("max_price", strconv.FormatFloat(f.MaxPrice, 'f', -1, 64))
	}
	return v
}

// List returns catalogue products matching the filter.
func (p *Products) List(ctx context.Context, f ProductFilter) ([]model.Product, error) {
	return getList[model.Product](ctx, p.api, api.WithQuery(p.ep.Products(), f.values()))
}

// Get fetches a single product.
func (p *Products) Get(ctx context.Context, id int64) (*model.Product, error) {
	var out model.Product
	if err := p.api.Get(ctx, p.ep.Product(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ProductInput is a create/update payload (distributor).
type ProductInput struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Category    string  `json:"category,omitempty"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
}

func (p *Products) Create(ctx context.Context, in ProductInput) (*model.Product, error) {
	var out model.Product
	if err := p.api.Post(ctx, p.ep.Products(), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *Products) Update(ctx context.Context, id int64, in ProductInput) (*model.Product, error) {
	var out model.Product
	if err := p.api.Put(ctx, p.ep.Product(id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *Products) Delete(ctx context.Context, id int64) error {
	return p.api.Delete(ctx, p.ep.Product(id), nil)
}

// UploadImage attaches an image to a product via multipart form.
func (p *Products) UploadImage(ctx context.Context, id int64, img api.NamedReader, m Multiparter) (*model.Product, error) {
	var out model.Product
	err := m.PostMultipart(ctx, p.ep.Product(id), nil, map[string]api.NamedReader{"image": img}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// MyProducts lists the calling distributor's own products.
func (p *Products) MyProducts(ctx context.Context) ([]model.Product, error) {
	return getList[model.Product](ctx, p.api, p.ep.MyProducts())
}

// Approve marks a product sellable (admin).
func (p *Products) Approve(ctx context.Context, id int64) error {
	return p.api.Post(ctx, p.ep.ProductApprove(id), struct{}{}, nil)
}

// Unapprove withdraws approval (admin).
func (p *Products) Unapprove(ctx context.Context, id int64) error {
	return p.api.Post(ctx, p.ep.ProductUnapprove(id), struct{}{}, nil)
}

// Categories lists the catalogue categories (public).
func (p *Products) Categories(ctx context.Context) ([]model.Category, error) {
	return getList[model.Category](ctx, p.api, p.ep.Categories())
}

// InventoryStatus reports per-product stock levels for the distributor dashboard.
func (p *Products) InventoryStatus(ctx context.Context) ([]model.InventoryRecord, error) {
	return getList[model.InventoryRecord](ctx, p.api, p.ep.InventoryStatus())
}

// Multiparter is the upload slice of the authenticated surface.
type Multiparter interface {
	PostMultipart(ctx context.Context, url string, fields map[string]string, files map[string]api.NamedReader, out any, opts ...api.ReqOption) error
}
