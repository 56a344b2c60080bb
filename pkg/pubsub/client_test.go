package pubsub

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/angelmondragon/wealthguardian-backend/pkg/config"
)

func TestQualify(t *testing.T) {
	cases := []struct {
		project string
		kind    kind
		name    string
		want    string
	}{
		{"p1", topics, " wg-wallet-events ", "projects/p1/topics/wg-wallet-events"},
		{"p1", topics, "projects/other/topics/t", "projects/other/topics/t"},
		{"p1", subscriptions, "s", "projects/p1/subscriptions/s"},
		{"", topics, "t", ""},
		{"p1", topics, "", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, qualify(tc.project, tc.kind, tc.name), "%s %s", tc.kind, tc.name)
	}
}

func TestNewClientValidatesConfig(t *testing.T) {
	ctx := context.Background()
	_, err := NewClient(ctx, config.GCPConfig{}, config.PubSubConfig{WalletEventsTopic: "t"}, nil)
	assert.ErrorIs(t, err, errProjectIDRequired)

	_, err = NewClient(ctx, config.GCPConfig{ProjectID: "p1"}, config.PubSubConfig{}, nil)
	assert.ErrorIs(t, err, errTopicRequired)
}

func TestDescribe(t *testing.T) {
	assert.NoError(t, describe(nil, topics, "x"))
	assert.EqualError(t, describe(status.Error(codes.NotFound, "gone"), topics, "projects/p/topics/t"),
		`topic "projects/p/topics/t" does not exist`)

	cause := errors.New("deadline")
	assert.ErrorIs(t, describe(cause, subscriptions, "s"), cause)
}

func TestNilClientIsSafe(t *testing.T) {
	var c *Client
	assert.Nil(t, c.Publisher("t"))
	assert.NoError(t, c.Close())
	assert.ErrorIs(t, c.Ping(context.Background()), errNotConnected)
}
