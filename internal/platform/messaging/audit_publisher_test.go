package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockKafkaWriter mocks KafkaWriter interface
type MockKafkaWriter struct {
	mock.Mock
}

func (m *MockKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *MockKafkaWriter) Close() error {
	args := m.Called()
	return args.Error(0)
}

func TestKafkaAuditPublisher_Publish(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	topic := "test-audit-events"
	ctx := context.Background()

	t.Run("SuccessfulPublish", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		publisher := &KafkaAuditPublisher{
			logger: logger,
			writer: mockWriter,
			topic:  topic,
		}

		event := AuditEvent{
			TransactionID: uuid.New(),
			Operation:     "BILL_PAYMENT",
			Status:        "SUCCESS",
			Payload:       map[string]any{"biller_id": "MAHA00000NATDL"},
			Timestamp:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		}
		expectedJSONValue, _ := json.Marshal(event)

		mockWriter.On("WriteMessages", ctx, mock.MatchedBy(func(msgs []kafka.Message) bool {
			if len(msgs) != 1 {
				return false
			}
			msg := msgs[0]
			return string(msg.Key) == event.TransactionID.String() && string(msg.Value) == string(expectedJSONValue)
		})).Return(nil).Once()

		err := publisher.Publish(ctx, event)
		require.NoError(t, err)
		mockWriter.AssertExpectations(t)
	})

	t.Run("FillsZeroTimestamp", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		publisher := &KafkaAuditPublisher{
			logger: logger,
			writer: mockWriter,
			topic:  topic,
		}

		event := AuditEvent{
			TransactionID: uuid.New(),
			Operation:     "BILL_VALIDATION",
			Status:        "FAILED",
		}

		mockWriter.On("WriteMessages", ctx, mock.MatchedBy(func(msgs []kafka.Message) bool {
			if len(msgs) != 1 {
				return false
			}
			var published AuditEvent
			if err := json.Unmarshal(msgs[0].Value, &published); err != nil {
				return false
			}
			return !published.Timestamp.IsZero()
		})).Return(nil).Once()

		err := publisher.Publish(ctx, event)
		require.NoError(t, err)
		mockWriter.AssertExpectations(t)
	})

	t.Run("PublishReturnsErrorOnWriterError", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		publisher := &KafkaAuditPublisher{
			logger: logger,
			writer: mockWriter,
			topic:  topic,
		}

		writerError := errors.New("kafka write error")
		mockWriter.On("WriteMessages", ctx, mock.AnythingOfType("[]kafka.Message")).Return(writerError).Once()

		err := publisher.Publish(ctx, AuditEvent{TransactionID: uuid.New(), Operation: "BILL_PAYMENT", Status: "PENDING"})
		require.Error(t, err)
		assert.ErrorIs(t, err, writerError)
		mockWriter.AssertExpectations(t)
	})
}

func TestKafkaAuditPublisher_Close(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	t.Run("SuccessfulClose", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		publisher := &KafkaAuditPublisher{logger: logger, writer: mockWriter, topic: "test-audit-events"}

		mockWriter.On("Close").Return(nil).Once()
		require.NoError(t, publisher.Close())
		mockWriter.AssertExpectations(t)
	})

	t.Run("CloseReturnsErrorOnWriterError", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		publisher := &KafkaAuditPublisher{logger: logger, writer: mockWriter, topic: "test-audit-events"}

		closeErr := errors.New("close failed")
		mockWriter.On("Close").Return(closeErr).Once()
		err := publisher.Close()
		require.Error(t, err)
		assert.ErrorIs(t, err, closeErr)
		mockWriter.AssertExpectations(t)
	})
}
