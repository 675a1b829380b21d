package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	ChannelJobUpdates = "job_updates"
)

// JobUpdateMessage 任务状态更新消息
type JobUpdateMessage struct {
	Type           string     `json:"type"`
	JobID          string     `json:"job_id"`
	Number         string     `json:"number,omitempty"`
	RecordTypeName string     `json:"record_type_name"`
	StatusName     string     `json:"status_name"`
	Stage          string     `json:"stage"`
	ChangedAt      *time.Time `json:"changed_at,omitempty"`
}

// Publisher Redis 发布者
type Publisher struct {
	client *redis.Client
}

// NewPublisher 创建发布者
func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

// PublishJobUpdate 发布任务更新消息
func (p *Publisher) PublishJobUpdate(ctx context.Context, msg *JobUpdateMessage) error {
	msg.Type = "job_update"

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal job update message: %w", err)
	}

	return p.client.Publish(ctx, ChannelJobUpdates, data).Err()
}

// Subscriber Redis 订阅者
type Subscriber struct {
	client *redis.Client
}

// NewSubscriber 创建订阅者
func NewSubscriber(client *redis.Client) *Subscriber {
	return &Subscriber{client: client}
}

// Subscribe 订阅任务更新消息
func (s *Subscriber) Subscribe(ctx context.Context, handler func(*JobUpdateMessage)) error {
	pubsub := s.client.Subscribe(ctx, ChannelJobUpdates)
	defer pubsub.Close()

	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var update JobUpdateMessage
			if err := json.Unmarshal([]byte(msg.Payload), &update); err != nil {
				continue // 忽略解析错误
			}

			handler(&update)
		}
	}
}
