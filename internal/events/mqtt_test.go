package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type fakeToken struct {
	done chan struct{}
	err  error
}

func newFakeToken(err error, complete bool) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	if complete {
		close(t.done)
	}
	return t
}

func (t *fakeToken) Wait() bool                     { <-t.done; return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

type fakeClient struct {
	mu           sync.Mutex
	open         bool
	err          error
	hang         bool
	messages     []published
	disconnected bool
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, published{topic, qos, retained, payload.([]byte)})
	return newFakeToken(c.err, !c.hang)
}

func (c *fakeClient) IsConnectionOpen() bool { return c.open }
func (c *fakeClient) Disconnect(uint)        { c.disconnected = true }

func TestMQTTPublisher_Topics(t *testing.T) {
	fc := &fakeClient{open: true}
	p := newMQTTPublisher(MQTTConfig{TopicPrefix: "gym", QoS: 1}, fc)

	at := time.Date(2026, 5, 1, 7, 30, 0, 0, time.UTC)
	if err := p.PublishRep(context.Background(), RepMessage{WorkoutID: "w1", Exercise: "squat", Number: 2, Depth: 78.5, Feedback: "Good form!", At: at}); err != nil {
		t.Fatalf("PublishRep() error = %v", err)
	}
	if err := p.PublishWorkout(context.Background(), WorkoutMessage{WorkoutID: "w1", Status: "finished", Reps: 2, At: at}); err != nil {
		t.Fatalf("PublishWorkout() error = %v", err)
	}

	if len(fc.messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(fc.messages))
	}

	rep := fc.messages[0]
	if rep.topic != "gym/workouts/w1/reps" || rep.qos != 1 || rep.retained {
		t.Errorf("unexpected rep publish: %+v", rep)
	}
	var got RepMessage
	if err := json.Unmarshal(rep.payload, &got); err != nil {
		t.Fatalf("rep payload is not JSON: %v", err)
	}
	if got.Number != 2 || got.Depth != 78.5 || got.Feedback != "Good form!" || !got.At.Equal(at) {
		t.Errorf("unexpected rep payload: %+v", got)
	}

	status := fc.messages[1]
	if status.topic != "gym/workouts/w1/status" || !status.retained {
		t.Errorf("unexpected status publish: %+v", status)
	}

	stats := p.Stats()
	if stats.Published["gym/workouts/w1/reps"] != 1 || stats.Published["gym/workouts/w1/status"] != 1 || stats.Errors != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestMQTTPublisher_Defaults(t *testing.T) {
	p := newMQTTPublisher(MQTTConfig{}, &fakeClient{open: true})

	if p.RepTopic("x") != "formcoach/workouts/x/reps" {
		t.Errorf("RepTopic() = %q", p.RepTopic("x"))
	}
	if p.cfg.ClientID == "" || p.cfg.PublishTimeout != 2*time.Second {
		t.Errorf("defaults not applied: %+v", p.cfg)
	}
}

func TestMQTTPublisher_Errors(t *testing.T) {
	t.Run("not connected", func(t *testing.T) {
		p := newMQTTPublisher(MQTTConfig{}, &fakeClient{open: false})
		if err := p.PublishRep(context.Background(), RepMessage{WorkoutID: "w"}); !errors.Is(err, ErrNotConnected) {
			t.Errorf("error = %v, want ErrNotConnected", err)
		}
		if p.Stats().Errors != 1 {
			t.Errorf("expected error to be counted")
		}
	})

	t.Run("broker error", func(t *testing.T) {
		brokerErr := errors.New("not authorized")
		p := newMQTTPublisher(MQTTConfig{}, &fakeClient{open: true, err: brokerErr})
		if err := p.PublishRep(context.Background(), RepMessage{WorkoutID: "w"}); !errors.Is(err, brokerErr) {
			t.Errorf("error = %v, want %v", err, brokerErr)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		p := newMQTTPublisher(MQTTConfig{PublishTimeout: 10 * time.Millisecond}, &fakeClient{open: true, hang: true})
		if err := p.PublishRep(context.Background(), RepMessage{WorkoutID: "w"}); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("error = %v, want deadline exceeded", err)
		}
	})
}

func TestMQTTPublisher_Close(t *testing.T) {
	fc := &fakeClient{open: true}
	p := newMQTTPublisher(MQTTConfig{}, fc)
	if err := p.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !fc.disconnected {
		t.Error("expected client to be disconnected")
	}
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	if err := p.PublishRep(context.Background(), RepMessage{}); err != nil {
		t.Error(err)
	}
	if err := p.PublishWorkout(context.Background(), WorkoutMessage{}); err != nil {
		t.Error(err)
	}
	if err := p.Close(); err != nil {
		t.Error(err)
	}
}
