package main

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestServeDrainsWhenListenerFails(t *testing.T) {
	srv := &http.Server{Addr: "127.0.0.1:-1", Handler: http.NotFoundHandler()}

	drained := false
	err := serve(context.Background(), srv, zap.NewNop(), func() { drained = true })
	require.Error(t, err)
	assert.True(t, drained, "cron and pending notifications are stopped on a listener error")
}

func TestServeDrainsOnShutdown(t *testing.T) {
	srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	drained := make(chan struct{})
	go func() {
		done <- serve(ctx, srv, zap.NewNop(), func() { close(drained) })
	}()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancellation")
	}
	select {
	case <-drained:
	default:
		t.Fatal("drain did not run")
	}
}
