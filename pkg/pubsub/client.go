// Package pubsub connects to Google Cloud Pub/Sub for the ledger event
// stream. Setting PUBSUB_EMULATOR_HOST points the client at the emulator.
package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/earnpro/rewards-backend/pkg/config"
	"github.com/earnpro/rewards-backend/pkg/logger"
)

var (
	errProjectIDRequired = errors.New("gcp project id is required")
	errTopicRequired     = errors.New("pubsub ledger topic is required")
	errNotInitialized    = errors.New("pubsub client not initialized")
)

type Client struct {
	api         *pubsub.Client
	projectID   string
	ledgerTopic string
}

// NewClient dials Pub/Sub and checks the ledger topic. A missing topic is
// fatal unless cfg.CreateTopic is set.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, logg *logger.Logger) (*Client, error) {
	projectID := strings.TrimSpace(gcp.ProjectID)
	if projectID == "" {
		return nil, errProjectIDRequired
	}
	topic := TopicResourceName(projectID, cfg.LedgerTopic)
	if topic == "" {
		return nil, errTopicRequired
	}

	api, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("dial pubsub: %w", err)
	}
	c := &Client{api: api, projectID: projectID, ledgerTopic: topic}

	err = c.checkTopic(ctx, topic)
	if status.Code(err) == codes.NotFound && cfg.CreateTopic {
		err = c.createTopic(ctx, topic)
	}
	if err != nil {
		_ = api.Close()
		return nil, err
	}

	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"project": projectID,
			"topic":   topic,
		}), "pubsub connected")
	}
	return c, nil
}

// checkTopic wraps the gRPC error so callers can inspect its status code.
func (c *Client) checkTopic(ctx context.Context, topic string) error {
	if _, err := c.api.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: topic}); err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("topic %s does not exist: %w", topic, err)
		}
		return fmt.Errorf("get topic %s: %w", topic, err)
	}
	return nil
}

func (c *Client) createTopic(ctx context.Context, topic string) error {
	_, err := c.api.TopicAdminClient.CreateTopic(ctx, &pubsubpb.Topic{Name: topic})
	if err != nil && status.Code(err) != codes.AlreadyExists {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	return nil
}

// Publisher accepts a topic id or full resource name. It returns nil on a
// nil client or an empty name.
func (c *Client) Publisher(name string) *pubsub.Publisher {
	if c == nil || c.api == nil {
		return nil
	}
	topic := TopicResourceName(c.projectID, name)
	if topic == "" {
		return nil
	}
	return c.api.Publisher(topic)
}

// Ping confirms the ledger topic is still reachable.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.api == nil {
		return errNotInitialized
	}
	return c.checkTopic(ctx, c.ledgerTopic)
}

func (c *Client) Close() error {
	if c == nil || c.api == nil {
		return nil
	}
	return c.api.Close()
}

// TopicResourceName expands a bare topic id to projects/<p>/topics/<id>.
// Full names pass through; an empty name or project yields "".
func TopicResourceName(projectID, name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if strings.HasPrefix(name, "projects/") && strings.Contains(name, "/topics/") {
		return name
	}
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return ""
	}
	return "projects/" + projectID + "/topics/" + name
}
