package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/otikamyid/kajian-hadir-app-sub000/internal/config"
	"github.com/otikamyid/kajian-hadir-app-sub000/internal/queue"
	"github.com/otikamyid/kajian-hadir-app-sub000/internal/store"
)

// Worker consumes check-in messages and keeps per-session attendance
// counters in Redis for the stats endpoint.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "kajian:checkins")
	}

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for check-in messages...")
	for msg := range messages {
		if msg.Type != "checkin" {
			continue
		}

		sessionID := string(msg.Body)
		key := "kajian:sessions:" + sessionID + ":checkins"
		if err := redisClient.Client.Incr(ctx, key).Err(); err != nil {
			log.Printf("counter update for session %s failed: %v", sessionID, err)
			continue
		}
		log.Printf("session %s counter updated", sessionID)
	}

	log.Println("worker stopped")
}
