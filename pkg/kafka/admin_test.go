package kafka

import (
	"context"
	"errors"
	"testing"

	cKafka "github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/utxo-turnover/pkg/kafka/testutils"
)

type mockAdmin struct {
	mock.Mock
}

func (m *mockAdmin) GetMetadata(topic *string, allTopics bool, timeoutMs int) (*cKafka.Metadata, error) {
	args := m.Called(*topic, allTopics, timeoutMs)
	md, _ := args.Get(0).(*cKafka.Metadata)
	return md, args.Error(1)
}

func (m *mockAdmin) CreateTopics(ctx context.Context, topics []cKafka.TopicSpecification, _ ...cKafka.CreateTopicsAdminOption) ([]cKafka.TopicResult, error) {
	args := m.Called(ctx, topics)
	res, _ := args.Get(0).([]cKafka.TopicResult)
	return res, args.Error(1)
}

func (m *mockAdmin) CreatePartitions(ctx context.Context, partitions []cKafka.PartitionsSpecification, _ ...cKafka.CreatePartitionsAdminOption) ([]cKafka.TopicResult, error) {
	args := m.Called(ctx, partitions)
	res, _ := args.Get(0).([]cKafka.TopicResult)
	return res, args.Error(1)
}

func metadataWith(topic string, partitions, replicas int) *cKafka.Metadata {
	tm := cKafka.TopicMetadata{Topic: topic}
	for i := 0; i < partitions; i++ {
		tm.Partitions = append(tm.Partitions, cKafka.PartitionMetadata{
			ID:       int32(i),
			Replicas: make([]int32, replicas),
		})
	}
	return &cKafka.Metadata{Topics: map[string]cKafka.TopicMetadata{topic: tm}}
}

func TestEventTopic(t *testing.T) {
	t.Parallel()
	tc := EventTopic("utxo-events", 3)
	assert.Equal(t, TopicConfig{Name: "utxo-events", NumPartitions: 1, ReplicationFactor: 3}, tc)
	require.NoError(t, tc.Validate())
}

func TestTopicConfig_Validate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		config  TopicConfig
		wantErr string
	}{
		{name: "valid", config: TopicConfig{Name: "t", NumPartitions: 1, ReplicationFactor: 1}},
		{name: "empty name", config: TopicConfig{NumPartitions: 1, ReplicationFactor: 1}, wantErr: "topic name cannot be empty"},
		{name: "zero partitions", config: TopicConfig{Name: "t", ReplicationFactor: 1}, wantErr: "number of partitions"},
		{name: "zero replication", config: TopicConfig{Name: "t", NumPartitions: 1}, wantErr: "replication factor"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.config.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestEnsureTopic_CreatesMissingTopic(t *testing.T) {
	t.Parallel()
	admin := &mockAdmin{}
	admin.On("GetMetadata", "utxo-events", false, mock.Anything).
		Return(&cKafka.Metadata{Topics: map[string]cKafka.TopicMetadata{}}, nil)
	admin.On("CreateTopics", mock.Anything, []cKafka.TopicSpecification{
		{Topic: "utxo-events", NumPartitions: 1, ReplicationFactor: 1},
	}).Return([]cKafka.TopicResult{{Topic: "utxo-events"}}, nil)

	err := EnsureTopic(t.Context(), admin, EventTopic("utxo-events", 1), testutils.NewTestLogger(t))
	require.NoError(t, err)
	admin.AssertExpectations(t)
}

func TestEnsureTopic_AlreadyExistsRace(t *testing.T) {
	t.Parallel()
	admin := &mockAdmin{}
	admin.On("GetMetadata", "t", false, mock.Anything).
		Return(&cKafka.Metadata{Topics: map[string]cKafka.TopicMetadata{}}, nil)
	admin.On("CreateTopics", mock.Anything, mock.Anything).Return([]cKafka.TopicResult{{
		Topic: "t",
		Error: cKafka.NewError(cKafka.ErrTopicAlreadyExists, "exists", false),
	}}, nil)

	require.NoError(t, EnsureTopic(t.Context(), admin, EventTopic("t", 1), testutils.NewTestLogger(t)))
}

func TestEnsureTopic_ExistingTopic(t *testing.T) {
	t.Parallel()
	admin := &mockAdmin{}
	admin.On("GetMetadata", "t", false, mock.Anything).Return(metadataWith("t", 1, 3), nil)

	// A differing replication factor is only logged.
	require.NoError(t, EnsureTopic(t.Context(), admin, EventTopic("t", 1), testutils.NewTestLogger(t)))
	admin.AssertNotCalled(t, "CreateTopics", mock.Anything, mock.Anything)
	admin.AssertNotCalled(t, "CreatePartitions", mock.Anything, mock.Anything)
}

func TestEnsureTopic_TooManyPartitions(t *testing.T) {
	t.Parallel()
	admin := &mockAdmin{}
	admin.On("GetMetadata", "t", false, mock.Anything).Return(metadataWith("t", 4, 1), nil)

	err := EnsureTopic(t.Context(), admin, EventTopic("t", 1), testutils.NewTestLogger(t))
	require.ErrorIs(t, err, ErrTooManyPartitions)
}

func TestEnsureTopic_IncreasesPartitions(t *testing.T) {
	t.Parallel()
	admin := &mockAdmin{}
	admin.On("GetMetadata", "t", false, mock.Anything).Return(metadataWith("t", 1, 1), nil)
	admin.On("CreatePartitions", mock.Anything, []cKafka.PartitionsSpecification{{Topic: "t", IncreaseTo: 2}}).
		Return([]cKafka.TopicResult{{Topic: "t"}}, nil)

	cfg := TopicConfig{Name: "t", NumPartitions: 2, ReplicationFactor: 1}
	require.NoError(t, EnsureTopic(t.Context(), admin, cfg, testutils.NewTestLogger(t)))
	admin.AssertExpectations(t)
}

func TestEnsureTopic_MetadataError(t *testing.T) {
	t.Parallel()
	admin := &mockAdmin{}
	admin.On("GetMetadata", "t", false, mock.Anything).Return(nil, errors.New("broker down"))

	err := EnsureTopic(t.Context(), admin, EventTopic("t", 1), testutils.NewTestLogger(t))
	require.ErrorContains(t, err, "broker down")
}

func TestTopicExists_TopicError(t *testing.T) {
	t.Parallel()
	md := metadataWith("t", 1, 1)
	tm := md.Topics["t"]
	tm.Error = cKafka.NewError(cKafka.ErrTopicAuthorizationFailed, "denied", false)
	md.Topics["t"] = tm

	admin := &mockAdmin{}
	admin.On("GetMetadata", "t", false, mock.Anything).Return(md, nil)

	_, err := TopicExists(admin, "t")
	require.ErrorContains(t, err, "has error")
}
