package service

import (
	"context"

	"github.com/meditrade/storefront/internal/api"
	"github.com/meditrade/storefront/internal/model"
)

// Notifications lists server-pushed messages and marks them read.
type Notifications struct {
	api Doer
	ep  api.Endpoints
}

func NewNotifications(api Doer, ep api.Endpoints) *Notifications {
	return &Notifications{api: api, ep: ep}
}

func (n *Notifications) List(ctx context.Context) ([]model.Notification, error) {
	return getList[model.Notification](ctx, n.api, n.ep.Notifications())
}

func (n *Notifications) MarkAsRead(ctx context.Context, id int64) error {
	return n.api.Post(ctx, n.ep.NotificationMarkAsRead(id), struct{}{}, nil)
}
