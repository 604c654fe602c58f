package utils

import (
	"context"
	"net"
	"testing"
	"time"

	"gotest.tools/v3/assert"
)

func TestExtractFromDBURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"postgresql://user:pw@dbhost:5433/pitstrategy", "dbhost:5433"},
		{"postgresql://user:pw@dbhost/pitstrategy", "dbhost:5432"},
		{"postgres://user@localhost/pitstrategy?sslmode=disable", "localhost:5432"},
		{"postgres://localhost:6432/pitstrategy", "localhost:6432"},
		{"plans.db", ""},
		{"file:/data/plans.db", ""},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractFromDBURL(tt.url))
		})
	}
}

func TestExtractFromNatsURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"nats://localhost:4222", "localhost:4222"},
		{"nats://nats", "nats:4222"},
		{"nats://user:pw@broker:4223", "broker:4223"},
		{"tls://broker", "broker:4222"},
		{"nats://a:4222,nats://b:4222", "a:4222"},
		{"localhost:4222", ""},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractFromNatsURL(tt.url))
		})
	}
}

func TestWaitForTCP(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	assert.NilError(t, err)
	defer l.Close()
	assert.NilError(t, WaitForTCP(context.Background(), l.Addr().String(), time.Second))

	addr := l.Addr().String()
	l.Close()
	err = WaitForTCP(context.Background(), addr, 300*time.Millisecond)
	assert.ErrorContains(t, err, "could not be reached")
}
