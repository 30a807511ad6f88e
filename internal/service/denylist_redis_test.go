package service

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
)

// Integration-style test: runs only if REDIS_ADDR env is set.
func TestRedisDenylistIntegration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set; skipping integration test")
	}
	db := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			db = n
		}
	}

	d, err := NewRedisDenylist(addr, os.Getenv("REDIS_PASSWORD"), db)
	if err != nil {
		t.Fatalf("connect redis: %v", err)
	}
	defer d.Close()

	ctx := context.Background()
	jti := uuid.NewString()

	revoked, err := d.Revoked(ctx, jti)
	if err != nil || revoked {
		t.Fatalf("fresh jti: revoked=%v err=%v", revoked, err)
	}

	if err := d.Revoke(ctx, jti, time.Now().Add(2*time.Second)); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	revoked, err = d.Revoked(ctx, jti)
	if err != nil || !revoked {
		t.Fatalf("after revoke: revoked=%v err=%v", revoked, err)
	}

	// already-expired tokens are not stored
	past := uuid.NewString()
	if err := d.Revoke(ctx, past, time.Now().Add(-time.Second)); err != nil {
		t.Fatalf("revoke past: %v", err)
	}
	if revoked, _ := d.Revoked(ctx, past); revoked {
		t.Fatalf("expired token should not be stored")
	}
}
