package messaging

import (
	"context"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type captureWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (w *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func TestKafkaPublishLeavesMessageTopicEmpty(t *testing.T) {
	writer := &captureWriter{}
	client := &kafkaClient{
		writer: writer,
		topic:  "storefront.order.events",
		logger: zap.NewNop(),
	}

	require.NoError(t, client.Publish(context.Background(), []byte("order-42"), []byte(`{"order_id":42}`)))

	require.Len(t, writer.msgs, 1)
	msg := writer.msgs[0]
	assert.Empty(t, msg.Topic, "the writer owns topic routing; setting it per message makes kafka-go reject the write")
	assert.Equal(t, []byte("order-42"), msg.Key)
	assert.Equal(t, []byte(`{"order_id":42}`), msg.Value)
}

func TestKafkaPublishPropagatesWriterError(t *testing.T) {
	writer := &captureWriter{err: context.DeadlineExceeded}
	client := &kafkaClient{
		writer: writer,
		topic:  "storefront.order.events",
		logger: zap.NewNop(),
	}

	err := client.Publish(context.Background(), nil, []byte("{}"))

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTopic(t *testing.T) {
	client := &kafkaClient{topic: "storefront.order.events"}
	assert.Equal(t, "storefront.order.events", client.Topic())
}
