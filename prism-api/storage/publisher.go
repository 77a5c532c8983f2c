package storage

import (
	"context"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"prism-todo/prism-api/domain"
)

// RedisPublisher broadcasts task events on a Redis pub/sub channel.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedisPublisher creates a publisher for the given channel.
func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	if client == nil {
		panic("storage.NewRedisPublisher: redis client is nil")
	}
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) Name() string { return "redis:" + p.channel }

// Publish sends ev to the channel.
func (p *RedisPublisher) Publish(ctx context.Context, ev domain.TaskEvent) error {
	data, err := sonic.Marshal(ev)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, p.channel, data).Err()
}

// QueuePublisher appends task events to an Azure Storage queue.
type QueuePublisher struct {
	queue *azqueue.QueueClient
	name  string
}

// NewQueuePublisher creates a publisher for the named queue.
func NewQueuePublisher(connStr, queueName string) (*QueuePublisher, error) {
	queueClientOptions := azqueue.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    5,
				TryTimeout:    time.Minute * 5,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 60,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	q, err := azqueue.NewQueueClientFromConnectionString(connStr, queueName, &queueClientOptions)
	if err != nil {
		return nil, err
	}
	return &QueuePublisher{queue: q, name: queueName}, nil
}

func (p *QueuePublisher) Name() string { return "queue:" + p.name }

// Publish enqueues ev as a JSON message.
func (p *QueuePublisher) Publish(ctx context.Context, ev domain.TaskEvent) error {
	data, err := sonic.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = p.queue.EnqueueMessage(ctx, string(data), nil)
	return err
}
