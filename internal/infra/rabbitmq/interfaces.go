package rabbitmq

import "context"

type PublisherInterface interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

var _ PublisherInterface = (*Publisher)(nil)
