package core

import (
	"testing"
	"time"
)

func TestInterruptEngineSuspendResumeRoundTrip(t *testing.T) {
	engine := NewInterruptEngine()

	go func() {
		req, ok := engine.Next()
		if !ok {
			t.Errorf("expected a request, got closed channel")
			return
		}
		if req.Kind != InvokeTransfer {
			t.Errorf("kind=%v want InvokeTransfer", req.Kind)
		}
		if req.CorrelationID.String() == "" {
			t.Errorf("expected Suspend to stamp a correlation id")
		}
		engine.Resume(InvokeResponse{CorrelationID: req.CorrelationID, Success: true, NewBalance: Amount(42)})
	}()

	resp := engine.Suspend(InvokeRequest{Kind: InvokeTransfer, Amount: Amount(10)})
	if !resp.Success || resp.NewBalance != Amount(42) {
		t.Fatalf("unexpected response: %+v", resp)
	}
	engine.Close()
}

func TestInterruptEngineNextFalseAfterClose(t *testing.T) {
	engine := NewInterruptEngine()
	engine.Close()

	_, ok := engine.Next()
	if ok {
		t.Fatalf("expected Next to report closed channel")
	}
}

func TestInterruptEngineMultipleRequestsInOrder(t *testing.T) {
	engine := NewInterruptEngine()
	done := make(chan struct{})

	go func() {
		defer close(done)
		for i := 0; i < 2; i++ {
			req, ok := engine.Next()
			if !ok {
				t.Errorf("expected request %d, got closed channel", i)
				return
			}
			engine.Resume(InvokeResponse{CorrelationID: req.CorrelationID, Success: true})
		}
		engine.Close()
	}()

	for i := 0; i < 2; i++ {
		resp := engine.Suspend(InvokeRequest{Kind: InvokeCall})
		if !resp.Success {
			t.Fatalf("request %d: expected success", i)
		}
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("driver goroutine did not finish in time")
	}
}
