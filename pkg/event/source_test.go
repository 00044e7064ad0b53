package event

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/go-drift/stencil/pkg/errors"
)

func TestPublishInSubscriptionOrder(t *testing.T) {
	var s Source[string]
	var got []string
	s.Subscribe(func(p string) error { got = append(got, "a:"+p); return nil })
	s.Subscribe(func(p string) error { got = append(got, "b:"+p); return nil })

	if err := s.Publish("x"); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(got) != 2 || got[0] != "a:x" || got[1] != "b:x" {
		t.Errorf("dispatch order = %v, want [a:x b:x]", got)
	}
}

func TestUnsubscribeDuringDispatch(t *testing.T) {
	var s Source[int]
	var h1Calls, h2Calls int
	var reg2 *Registration

	s.Subscribe(func(int) error {
		h1Calls++
		if reg2.Active() {
			if err := s.Unsubscribe(reg2); err != nil {
				t.Errorf("Unsubscribe during dispatch: %v", err)
			}
		}
		return nil
	})
	reg2 = s.Subscribe(func(int) error {
		h2Calls++
		return nil
	})

	for i := 0; i < 3; i++ {
		if err := s.Publish(i); err != nil {
			t.Fatalf("Publish(%d): %v", i, err)
		}
	}

	if h1Calls != 3 {
		t.Errorf("h1 called %d times, want 3", h1Calls)
	}
	if h2Calls != 0 {
		t.Errorf("h2 called %d times, want 0", h2Calls)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1 after compaction", s.Len())
	}
}

func TestSelfUnsubscribeAndResubscribeDuringDispatch(t *testing.T) {
	var s Source[int]
	var calls []string
	var reg1 *Registration

	reg1 = s.Subscribe(func(int) error {
		calls = append(calls, "h1")
		reg1.Dispose()
		s.Subscribe(func(int) error {
			calls = append(calls, "late")
			return nil
		})
		return nil
	})
	s.Subscribe(func(int) error {
		calls = append(calls, "h2")
		return nil
	})

	_ = s.Publish(1)
	_ = s.Publish(2)
	_ = s.Publish(3)

	want := []string{"h1", "h2", "h2", "late", "h2", "late"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", calls, want)
		}
	}
}

func TestNestedPublishCompactsOnce(t *testing.T) {
	var s Source[int]
	var inner *Registration
	depthSeen := 0

	s.Subscribe(func(n int) error {
		if n == 0 {
			depthSeen++
			return s.Publish(1)
		}
		if inner.Active() {
			inner.Dispose()
		}
		return nil
	})
	inner = s.Subscribe(func(int) error { return nil })

	if err := s.Publish(0); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if depthSeen != 1 {
		t.Errorf("outer handler ran %d times, want 1", depthSeen)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestUnsubscribeUnknownIsMisuse(t *testing.T) {
	var s, other Source[int]
	reg := other.Subscribe(func(int) error { return nil })

	err := s.Unsubscribe(reg)
	if !stderrors.Is(err, errors.ErrMisuse) {
		t.Fatalf("Unsubscribe(foreign) = %v, want misuse error", err)
	}

	own := s.Subscribe(func(int) error { return nil })
	if err := s.Unsubscribe(own); err != nil {
		t.Fatalf("Unsubscribe: %v", err)
	}
	if err := s.Unsubscribe(own); !stderrors.Is(err, errors.ErrMisuse) {
		t.Errorf("second Unsubscribe = %v, want misuse error", err)
	}
}

func TestDisposeIsIdempotent(t *testing.T) {
	var s Source[int]
	reg := s.Subscribe(func(int) error { return nil })
	reg.Dispose()
	reg.Dispose()
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
	if reg.Active() {
		t.Error("expected registration to be inactive")
	}
}

func TestHandlerErrorStopsDispatch(t *testing.T) {
	var s Source[int]
	boom := stderrors.New("boom")
	var later bool
	s.Subscribe(func(int) error { return boom })
	s.Subscribe(func(int) error { later = true; return nil })

	if err := s.Publish(1); err != boom {
		t.Errorf("Publish = %v, want %v", err, boom)
	}
	if later {
		t.Error("handler after the failing one should not run")
	}
}

func TestPublishAsyncWaitsForHandlers(t *testing.T) {
	var s Source[string]
	done := make(chan struct{})
	var finished bool

	s.SubscribeAsync(func(ctx context.Context, p string) <-chan error {
		ch := make(chan error, 1)
		go func() {
			<-done
			finished = true
			ch <- nil
		}()
		return ch
	})
	s.SubscribeAsync(func(ctx context.Context, p string) <-chan error {
		return nil
	})

	go func() {
		time.Sleep(10 * time.Millisecond)
		close(done)
	}()

	if err := s.PublishAsync(context.Background(), "go"); err != nil {
		t.Fatalf("PublishAsync: %v", err)
	}
	if !finished {
		t.Error("PublishAsync returned before the async handler completed")
	}
}

func TestPublishAsyncReturnsHandlerError(t *testing.T) {
	var s Source[int]
	boom := stderrors.New("async boom")
	s.SubscribeAsync(func(ctx context.Context, _ int) <-chan error {
		ch := make(chan error, 1)
		ch <- boom
		return ch
	})

	if err := s.PublishAsync(context.Background(), 1); err != boom {
		t.Errorf("PublishAsync = %v, want %v", err, boom)
	}
}

func TestPublishAsyncHonoursContext(t *testing.T) {
	var s Source[int]
	s.SubscribeAsync(func(ctx context.Context, _ int) <-chan error {
		return make(chan error)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := s.PublishAsync(ctx, 1); !stderrors.Is(err, context.DeadlineExceeded) {
		t.Errorf("PublishAsync = %v, want deadline exceeded", err)
	}
}
