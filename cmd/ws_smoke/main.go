package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"task_manager/internal/client"
	"task_manager/internal/domain"
)

// ws_smoke checks the live event stream of a running server: it opens the
// stream, creates and deletes a task, and expects both events.
func main() {
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}
	// use 127.0.0.1 to prefer IPv4 (avoid resolving to [::1])
	base := fmt.Sprintf("http://127.0.0.1:%s", port)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	c := client.New(base)
	email := fmt.Sprintf("smoke+%d@example.com", time.Now().UnixNano())
	if _, err := c.Register(ctx, email, "smoke-pass", "smoke"); err != nil {
		log.Fatalf("register: %v", err)
	}

	events := make(chan domain.TaskEvent, 8)
	watchErr := make(chan error, 1)
	go func() {
		watchErr <- c.Watch(ctx, func(ev domain.TaskEvent) { events <- ev })
	}()

	// give the server a moment to register the connection
	time.Sleep(300 * time.Millisecond)

	task, err := c.CreateTask(ctx, "smoke task", "")
	if err != nil {
		log.Fatalf("create task: %v", err)
	}
	expect(ctx, events, watchErr, domain.EventTaskCreated, task.ID)

	if err := c.DeleteTask(ctx, task.ID); err != nil {
		log.Fatalf("delete task: %v", err)
	}
	expect(ctx, events, watchErr, domain.EventTaskDeleted, task.ID)

	if err := c.Logout(ctx); err != nil {
		log.Printf("logout: %v", err)
	}
	log.Println("ws smoke OK")
}

func expect(ctx context.Context, events <-chan domain.TaskEvent, watchErr <-chan error, typ string, id int64) {
	for {
		select {
		case ev := <-events:
			if ev.Type == typ && ev.TaskID == id {
				log.Printf("got %s for task %d", typ, id)
				return
			}
		case err := <-watchErr:
			if err == nil {
				err = errors.New("stream closed")
			}
			log.Fatalf("event stream: %v", err)
		case <-ctx.Done():
			log.Fatalf("timed out waiting for %s", typ)
		}
	}
}
