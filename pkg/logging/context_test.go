package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetLogFields(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetLogFields(ctx))

	ctx = WithServiceName(ctx, "rule-engine")
	ctx = WithTopic(ctx, "iPrefix/abc")
	ctx = WithTopicID(ctx, "abc")

	assert.Equal(t, []interface{}{
		"topic", "iPrefix/abc",
		"topic_id", "abc",
		"service_name", "rule-engine",
	}, GetLogFields(ctx))

	ctx = WithTraceID(ctx, "4bf92f3577b34da6a3ce929d0e0e4736")
	fields := GetLogFields(ctx)
	assert.Equal(t, "trace_id", fields[0])
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", fields[1])
}

func TestGetters(t *testing.T) {
	ctx := WithTopicID(context.Background(), "x")
	assert.Equal(t, "x", GetTopicID(ctx))
	assert.Equal(t, "", GetServiceName(ctx))
	assert.Equal(t, "", GetTraceID(ctx))
	assert.Equal(t, "", GetTopic(ctx))
}
