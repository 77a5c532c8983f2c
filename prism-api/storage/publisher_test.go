package storage

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"prism-todo/prism-api/domain"
)

func TestRedisPublisherPublishesEvent(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	pubsub := client.Subscribe(ctx, "task-events")
	defer pubsub.Close()
	if _, err := pubsub.Receive(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	done := make(chan string, 1)
	go func() {
		msg := <-pubsub.Channel()
		done <- msg.Payload
	}()

	task := domain.Task{ID: "t1", Text: "a", CreatedAt: time.Unix(1, 0).UTC(), UpdatedAt: time.Unix(1, 0).UTC()}
	ev := domain.NewTaskEvent(domain.TaskCreated, task.ID, &task, time.Unix(2, 0))
	pub := NewRedisPublisher(client, "task-events")
	if err := pub.Publish(ctx, ev); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case payload := <-done:
		var got domain.TaskEvent
		if err := sonic.Unmarshal([]byte(payload), &got); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if got.Type != domain.TaskCreated || got.TaskID != "t1" || got.Task == nil || got.Task.Text != "a" {
			t.Fatalf("unexpected event: %#v", got)
		}
	case <-time.After(time.Second):
		t.Fatalf("no message received")
	}
	if pub.Name() != "redis:task-events" {
		t.Fatalf("unexpected name %q", pub.Name())
	}
}

func TestRedisPublisherReportsConnectionErrors(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	pub := NewRedisPublisher(client, "task-events")
	if err := pub.Publish(context.Background(), domain.TaskEvent{Type: domain.TaskDeleted, TaskID: "t1"}); err == nil {
		t.Fatalf("expected publish to fail once redis is gone")
	}
}
