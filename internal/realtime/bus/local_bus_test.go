package bus

import (
	"context"
	"testing"

	"github.com/yungbote/traitforge-backend/internal/realtime"
)

func TestLocalBusForwards(t *testing.T) {
	b := NewLocalBus()
	if err := b.Publish(context.Background(), realtime.SSEMessage{Channel: "x"}); err != nil {
		t.Fatalf("publish before forwarder: %v", err)
	}
	var got []realtime.SSEMessage
	if err := b.StartForwarder(context.Background(), func(m realtime.SSEMessage) { got = append(got, m) }); err != nil {
		t.Fatalf("StartForwarder: %v", err)
	}
	if err := b.Publish(context.Background(), realtime.SSEMessage{Channel: "run:1", Event: realtime.SSEEventGenerationDone}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(got) != 1 || got[0].Event != realtime.SSEEventGenerationDone {
		t.Fatalf("forwarded: %+v", got)
	}
	if err := b.StartForwarder(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil callback")
	}
}
