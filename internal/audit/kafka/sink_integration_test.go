//go:build integration

package kafka_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"idlink/internal/audit"
	"idlink/internal/audit/kafka"
	"idlink/pkg/testutil/containers"
)

func TestSinkPublishesToTopic(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	redpanda := containers.NewRedpandaContainer(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	const topic = "idlink.audit.test"
	sink, err := kafka.NewSink(ctx, []string{redpanda.Broker}, topic, logger)
	require.NoError(t, err)
	defer sink.Close()

	event := audit.Event{
		ID:               "evt-1",
		Action:           audit.ActionIdentityMerged,
		Timestamp:        time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
		PrimaryContactID: 7,
		MergedPrimaryIDs: []int64{3},
	}
	require.NoError(t, sink.Publish(ctx, event))

	// Events without a primary contact fall back to the event ID as key.
	unkeyed := audit.Event{
		ID:        "evt-2",
		Action:    audit.ActionRateLimitExceeded,
		Timestamp: time.Date(2024, 5, 1, 9, 1, 0, 0, time.UTC),
		Reason:    "ip request rate exceeded",
	}
	require.NoError(t, sink.Publish(ctx, unkeyed))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(redpanda.Broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	records := fetchRecords(t, ctx, consumer, 2)

	require.Equal(t, "7", string(records[0].Key))
	var got audit.Event
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	require.Equal(t, event.ID, got.ID)
	require.Equal(t, event.Action, got.Action)
	require.Equal(t, event.MergedPrimaryIDs, got.MergedPrimaryIDs)

	require.Equal(t, "evt-2", string(records[1].Key))
}

func TestNewSinkFailsFast(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	_, err := kafka.NewSink(ctx, []string{"127.0.0.1:1"}, "idlink.audit", logger)
	require.Error(t, err)
}

func fetchRecords(t *testing.T, ctx context.Context, consumer *kgo.Client, want int) []*kgo.Record {
	t.Helper()

	var records []*kgo.Record
	for len(records) < want {
		fetches := consumer.PollFetches(ctx)
		require.NoError(t, fetches.Err())
		fetches.EachRecord(func(r *kgo.Record) {
			records = append(records, r)
		})
	}
	return records
}
