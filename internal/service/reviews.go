package service

import (
	"context"

	"github.com/meditrade/storefront/internal/api"
	"github.com/meditrade/storefront/internal/model"
)

// Reviews covers product reviews and distributor replies.
type Reviews struct {
	api Doer
	ep  api.Endpoints
}

func NewReviews(api Doer, ep api.Endpoints) *Reviews {
	return &Reviews{api: api, ep: ep}
}

func (r *Reviews) List(ctx context.Context) ([]model.Review, error) {
	return getList[model.Review](ctx, r.api, r.ep.Reviews())
}

// ByProduct lists the reviews for one product.
func (r *Reviews) ByProduct(ctx context.Context, productID int64) ([]model.Review, error) {
	return getList[model.Review](ctx, r.api, r.ep.ProductReviews(productID))
}

// ReviewInput is a create/update payload.
type ReviewInput struct {
	ProductID int64  `json:"product"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment,omitempty"`
}

func (r *Reviews) Create(ctx context.Context, in ReviewInput) (*model.Review, error) {
	var out model.Review
	if err := r.api.Post(ctx, r.ep.Reviews(), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Reviews) Update(ctx context.Context, id int64, in ReviewInput) (*model.Review, error) {
	var out model.Review
	if err := r.api.Put(ctx, r.ep.Review(id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Reviews) Delete(ctx context.Context, id int64) error {
	return r.api.Delete(ctx, r.ep.Review(id), nil)
}

// Reply posts a distributor response under a review.
func (r *Reviews) Reply(ctx context.Context, reviewID int64, reply string) (*model.ReviewReply, error) {
	in := struct {
		ReviewID int64  `json:"review"`
		Reply    string `json:"reply"`
	}{reviewID, reply}
	var out model.ReviewReply
	if err := r.api.Post(ctx, r.ep.ReviewReplies(), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
