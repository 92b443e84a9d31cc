package broadcast

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kendfrey/saigo/internal/domain/game"
	saigoerr "github.com/kendfrey/saigo/internal/errors"
)

func TestTopicDeliversLatest(t *testing.T) {
	topic := NewTopic[int]()
	sub := topic.Subscribe()
	defer sub.Close()

	// A slow subscriber skips intermediate values and sees the newest.
	topic.Publish(1)
	topic.Publish(2)
	topic.Publish(3)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	got, err := sub.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if got != 3 {
		t.Errorf("got %d, want latest value 3", got)
	}
}

func TestTopicBlocksUntilPublish(t *testing.T) {
	topic := NewTopic[string]()
	sub := topic.Subscribe()
	defer sub.Close()

	done := make(chan string, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		v, err := sub.Next(ctx)
		if err != nil {
			done <- "error: " + err.Error()
			return
		}
		done <- v
	}()

	time.Sleep(10 * time.Millisecond)
	topic.Publish("hello")

	select {
	case v := <-done:
		if v != "hello" {
			t.Errorf("got %q", v)
		}
	case <-time.After(time.Second):
		t.Fatalf("subscriber never woke up")
	}
}

func TestTopicContextCancellation(t *testing.T) {
	topic := NewTopic[int]()
	sub := topic.Subscribe()
	defer sub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	if _, err := sub.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestTopicSubscriberCount(t *testing.T) {
	topic := NewTopic[int]()
	if topic.HasSubscribers() {
		t.Errorf("fresh topic should have no subscribers")
	}
	sub := topic.Subscribe()
	if !topic.HasSubscribers() {
		t.Errorf("topic should report its subscriber")
	}
	sub.Close()
	sub.Close() // double close is a no-op
	if topic.HasSubscribers() {
		t.Errorf("closed subscription should be unregistered")
	}
}

func TestTopicLatest(t *testing.T) {
	topic := NewTopic[int]()
	if _, ok := topic.Latest(); ok {
		t.Errorf("fresh topic has no latest value")
	}
	topic.Publish(42)
	v, ok := topic.Latest()
	if !ok || v != 42 {
		t.Errorf("Latest() = %d, %v", v, ok)
	}
}

func TestTopicProductionOrder(t *testing.T) {
	topic := NewTopic[int]()
	sub := topic.Subscribe()
	defer sub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	last := 0
	for i := 1; i <= 5; i++ {
		topic.Publish(i)
		v, err := sub.Next(ctx)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if v <= last {
			t.Fatalf("value %d arrived after %d", v, last)
		}
		last = v
	}
}

func TestControlChannelExclusive(t *testing.T) {
	fabric := NewFabric()

	token, err := fabric.ClaimControl()
	if err != nil {
		t.Fatalf("first claim failed: %v", err)
	}
	if _, err := fabric.ClaimControl(); !errors.Is(err, saigoerr.ErrControlChannelBusy) {
		t.Errorf("second claim should fail with ErrControlChannelBusy, got %v", err)
	}

	// A stale token must not release a newer claim.
	fabric.ReleaseControl("not-the-token")
	if _, err := fabric.ClaimControl(); err == nil {
		t.Errorf("stale release should not free the channel")
	}

	fabric.ReleaseControl(token)
	if _, err := fabric.ClaimControl(); err != nil {
		t.Errorf("claim after release failed: %v", err)
	}
}

func TestControlMailbox(t *testing.T) {
	fabric := NewFabric()
	if cmds := fabric.DrainCommands(); len(cmds) != 0 {
		t.Fatalf("fresh mailbox should be empty")
	}

	fabric.SendCommand(game.ControlCommand{Type: game.CommandReset})
	fabric.SendCommand(game.ControlCommand{Type: game.CommandNewTrainingPattern})

	cmds := fabric.DrainCommands()
	if len(cmds) != 2 {
		t.Fatalf("drained %d commands, want 2", len(cmds))
	}
	if cmds[0].Type != game.CommandReset || cmds[1].Type != game.CommandNewTrainingPattern {
		t.Errorf("commands out of order: %v", cmds)
	}

	// Overflow drops instead of blocking.
	for i := 0; i < controlMailboxSize; i++ {
		if !fabric.SendCommand(game.ControlCommand{Type: game.CommandReset}) {
			t.Fatalf("send %d should fit", i)
		}
	}
	if fabric.SendCommand(game.ControlCommand{Type: game.CommandReset}) {
		t.Errorf("overflowing send should report a drop")
	}
}
