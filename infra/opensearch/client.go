package opensearch

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/mstgnz/nepalpay/infra/config"
	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
)

const (
	// SystemIndex receives structured system log entries
	SystemIndex = "nepalpay-system-logs"
	// EventIndex receives payment lifecycle events
	EventIndex = "nepalpay-events"
)

// Client wraps the OpenSearch client
type Client struct {
	client *opensearch.Client
	config *config.AppConfig
}

// NewClient creates a new OpenSearch client and makes sure the log indices exist
func NewClient(cfg *config.AppConfig, providers ...string) (*Client, error) {
	opensearchConfig := opensearch.Config{
		Addresses: []string{cfg.OpenSearchURL},
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: cfg.OpenSearchInsecure,
			},
		},
		MaxRetries:    3,
		RetryOnStatus: []int{502, 503, 504, 429},
		RetryBackoff: func(i int) time.Duration {
			return time.Duration(i) * 100 * time.Millisecond
		},
	}

	if cfg.OpenSearchUser != "" && cfg.OpenSearchPass != "" {
		opensearchConfig.Username = cfg.OpenSearchUser
		opensearchConfig.Password = cfg.OpenSearchPass
	}

	client, err := opensearch.NewClient(opensearchConfig)
	if err != nil {
		return nil, fmt.Errorf("opensearch: create client: %w", err)
	}

	osClient := &Client{
		client: client,
		config: cfg,
	}

	if cfg.EnableLogging {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := osClient.setupIndices(ctx, providers); err != nil {
			log.Printf("Warning: Failed to setup OpenSearch indices: %v", err)
		}
	}

	return osClient, nil
}

// GetClient returns the underlying OpenSearch client
func (c *Client) GetClient() *opensearch.Client {
	return c.client
}

// setupIndices creates the system, event and per-provider payment log indices
func (c *Client) setupIndices(ctx context.Context, providers []string) error {
	indices := map[string]string{
		SystemIndex: systemMapping,
		EventIndex:  eventMapping,
	}
	for _, provider := range providers {
		indices[c.GetLogIndexName(provider)] = paymentMapping
	}

	var failed []string
	for indexName, mapping := range indices {
		exists, err := c.indexExists(ctx, indexName)
		if err != nil {
			failed = append(failed, indexName)
			continue
		}
		if exists {
			continue
		}
		if err := c.createIndex(ctx, indexName, mapping); err != nil {
			failed = append(failed, indexName)
			continue
		}
		log.Printf("Created OpenSearch index: %s", indexName)
	}

	if len(failed) > 0 {
		return fmt.Errorf("could not prepare indices: %s", strings.Join(failed, ", "))
	}
	return nil
}

func (c *Client) indexExists(ctx context.Context, indexName string) (bool, error) {
	req := opensearchapi.IndicesExistsRequest{
		Index: []string{indexName},
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return false, err
	}
	defer res.Body.Close()

	return res.StatusCode == http.StatusOK, nil
}

func (c *Client) createIndex(ctx context.Context, indexName, mapping string) error {
	req := opensearchapi.IndicesCreateRequest{
		Index: indexName,
		Body:  strings.NewReader(mapping),
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index creation error: %s", res.String())
	}
	return nil
}

// GetLogIndexName returns the payment log index of a provider
func (c *Client) GetLogIndexName(provider string) string {
	return "nepalpay-" + provider + "-logs"
}

// IsEnabled returns whether OpenSearch logging is enabled
func (c *Client) IsEnabled() bool {
	return c != nil && c.config != nil && c.config.EnableLogging
}

const paymentMapping = `{
	"mappings": {
		"properties": {
			"timestamp": {"type": "date", "format": "strict_date_optional_time||epoch_millis"},
			"provider": {"type": "keyword"},
			"operation": {"type": "keyword"},
			"request_id": {"type": "keyword"},
			"transaction_id": {"type": "keyword"},
			"request": {
				"type": "object",
				"properties": {
					"body": {"type": "text"}
				}
			},
			"response": {
				"type": "object",
				"properties": {
					"body": {"type": "text"},
					"processing_time_ms": {"type": "integer"}
				}
			},
			"payment_info": {
				"type": "object",
				"properties": {
					"amount": {"type": "keyword"},
					"currency": {"type": "keyword"},
					"status": {"type": "keyword"},
					"reference_id": {"type": "keyword"},
					"redirect_url": {"type": "keyword"}
				}
			},
			"error": {
				"type": "object",
				"properties": {
					"code": {"type": "keyword"},
					"message": {"type": "text"}
				}
			}
		}
	},
	"settings": {"number_of_shards": 1, "number_of_replicas": 0}
}`

const systemMapping = `{
	"mappings": {
		"properties": {
			"timestamp": {"type": "date"},
			"level": {"type": "keyword"},
			"message": {"type": "text"},
			"component": {"type": "keyword"},
			"provider": {"type": "keyword"},
			"request_id": {"type": "keyword"},
			"transaction_id": {"type": "keyword"},
			"service": {"type": "keyword"},
			"environment": {"type": "keyword"}
		}
	},
	"settings": {"number_of_shards": 1, "number_of_replicas": 0}
}`

const eventMapping = `{
	"mappings": {
		"properties": {
			"name": {"type": "keyword"},
			"provider": {"type": "keyword"},
			"transaction_id": {"type": "keyword"},
			"status": {"type": "keyword"},
			"request_id": {"type": "keyword"},
			"occurred_at": {"type": "date"},
			"payload": {"type": "object", "enabled": false}
		}
	},
	"settings": {"number_of_shards": 1, "number_of_replicas": 0}
}`
