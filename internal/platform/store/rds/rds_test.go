package rds

import (
	"context"
	"testing"
	"time"
)

func TestOpen_EmptyAddr(t *testing.T) {
	t.Parallel()

	if _, err := Open(context.Background(), Config{}); err == nil {
		t.Fatalf("Open with empty addr should fail")
	}
}

func TestOpen_Unreachable(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	// port 1 is reserved and nothing listens there
	if _, err := Open(ctx, Config{Addr: "127.0.0.1:1"}); err == nil {
		t.Fatalf("Open against a closed port should fail")
	}
}
