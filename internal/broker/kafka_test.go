package broker

import (
	"context"
	"errors"
	"testing"

	"scm-analytics/internal/util"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedReader hands out queued messages, then blocks until ctx is done
type scriptedReader struct {
	queue     []kafka.Message
	committed []int64
}

func (r *scriptedReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.queue) == 0 {
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	msg := r.queue[0]
	r.queue = r.queue[1:]
	return msg, nil
}

func (r *scriptedReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *scriptedReader) Close() error { return nil }

func TestStartConsumingSkipsCommitOnHandlerError(t *testing.T) {
	reader := &scriptedReader{queue: []kafka.Message{{Offset: 1}, {Offset: 2}, {Offset: 3}}}
	consumer := &Consumer{reader: reader, topic: "prediction-requests-test"}
	before := testutil.ToFloat64(util.ConsumerHandlerFailuresTotal.WithLabelValues("prediction-requests-test"))

	ctx, cancel := context.WithCancel(context.Background())
	handled := 0
	err := consumer.StartConsuming(ctx, func(_ context.Context, msg kafka.Message) error {
		handled++
		if handled == 3 {
			defer cancel()
		}
		if msg.Offset == 2 {
			return errors.New("store unavailable")
		}
		return nil
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 3, handled)
	assert.Equal(t, []int64{1, 3}, reader.committed)
	assert.Equal(t, before+1,
		testutil.ToFloat64(util.ConsumerHandlerFailuresTotal.WithLabelValues("prediction-requests-test")))
}
