package milvus

import (
	"context"
	"fmt"
	"sync"

	"github.com/milvus-io/milvus-sdk-go/v2/client"

	"docuchat/internal/config"
)

var (
	instance *Client
	once     sync.Once
	initErr  error
)

// Client holds the Milvus connection and its configuration.
type Client struct {
	Conn   client.Client
	Config *config.MilvusConfig
}

// GetClient initializes and returns the singleton Milvus client. The
// connection is established once for the lifetime of the process.
func GetClient(ctx context.Context, cfg *config.MilvusConfig) (*Client, error) {
	once.Do(func() {
		c, err := client.NewClient(ctx, client.Config{Address: cfg.Address})
		if err != nil {
			initErr = fmt.Errorf("failed to connect to milvus: %w", err)
			return
		}
		instance = &Client{Conn: c, Config: cfg}
	})
	return instance, initErr
}

// Close safely closes the Milvus connection.
func (c *Client) Close() {
	if c.Conn != nil {
		c.Conn.Close()
	}
}

// HealthCheck verifies the Milvus connection.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.Conn == nil {
		return fmt.Errorf("milvus client is not initialized")
	}
	if _, err := c.Conn.ListCollections(ctx); err != nil {
		return fmt.Errorf("milvus health check failed: %w", err)
	}
	return nil
}
