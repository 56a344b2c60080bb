// Package pubsub connects to Google Cloud Pub/Sub for wallet event fan-out.
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

	"github.com/angelmondragon/wealthguardian-backend/pkg/config"
	"github.com/angelmondragon/wealthguardian-backend/pkg/logger"
)

var (
	errProjectIDRequired = errors.New("gcp project id is required")
	errTopicRequired     = errors.New("pubsub wallet events topic is required")
	errNotConnected      = errors.New("pubsub client not initialized")
)

type kind string

const (
	topics        kind = "topics"
	subscriptions kind = "subscriptions"
)

// Client holds the Pub/Sub connection plus the wallet event resources it
// was started against.
type Client struct {
	conn         *pubsub.Client
	project      string
	topic        string
	subscription string
}

func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, logg *logger.Logger) (*Client, error) {
	project := strings.TrimSpace(gcp.ProjectID)
	if project == "" {
		return nil, errProjectIDRequired
	}
	c := &Client{
		project:      project,
		topic:        qualify(project, topics, cfg.WalletEventsTopic),
		subscription: qualify(project, subscriptions, cfg.WalletEventsSubscription),
	}
	if c.topic == "" {
		return nil, errTopicRequired
	}

	conn, err := pubsub.NewClient(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("pubsub connect: %w", err)
	}
	c.conn = conn
	if err := c.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "topic", c.topic), "pubsub.connected")
	}
	return c, nil
}

// Ping confirms the wallet events topic, and the subscription when one is
// configured, still exist.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.conn == nil {
		return errNotConnected
	}
	_, err := c.conn.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: c.topic})
	if err := describe(err, topics, c.topic); err != nil {
		return err
	}
	if c.subscription == "" {
		return nil
	}
	_, err = c.conn.SubscriptionAdminClient.GetSubscription(ctx, &pubsubpb.GetSubscriptionRequest{Subscription: c.subscription})
	return describe(err, subscriptions, c.subscription)
}

func describe(err error, k kind, name string) error {
	switch {
	case err == nil:
		return nil
	case status.Code(err) == codes.NotFound:
		return fmt.Errorf("%s %q does not exist", strings.TrimSuffix(string(k), "s"), name)
	default:
		return fmt.Errorf("lookup %s: %w", name, err)
	}
}

// Publisher returns a handle for a topic id or full resource name. Nil when
// the client is not connected or name is blank.
func (c *Client) Publisher(name string) *pubsub.Publisher {
	if c == nil || c.conn == nil {
		return nil
	}
	full := qualify(c.project, topics, name)
	if full == "" {
		return nil
	}
	return c.conn.Publisher(full)
}

func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// qualify expands a short id to projects/<project>/<kind>/<id>. Names that
// are already qualified pass through.
func qualify(project string, k kind, name string) string {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return ""
	case strings.HasPrefix(name, "projects/") && strings.Contains(name, "/"+string(k)+"/"):
		return name
	case project == "":
		return ""
	}
	return "projects/" + project + "/" + string(k) + "/" + name
}
