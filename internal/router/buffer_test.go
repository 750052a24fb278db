package router

import (
	"sync"
	"testing"
	"time"
)

func TestGrowableBuffer_SendReceive(t *testing.T) {
	b := NewGrowableBuffer[int](4)

	for i := 0; i < 3; i++ {
		if !b.Send(i) {
			t.Fatalf("Send(%d) returned false", i)
		}
	}

	for i := 0; i < 3; i++ {
		got, ok := b.Receive()
		if !ok {
			t.Fatalf("Receive %d returned closed", i)
		}
		if got != i {
			t.Errorf("Receive = %d, want %d (FIFO order)", got, i)
		}
	}
}

func TestGrowableBuffer_GrowsPastInitialCapacity(t *testing.T) {
	b := NewGrowableBuffer[int](2)

	const n = 100
	for i := 0; i < n; i++ {
		if !b.Send(i) {
			t.Fatalf("Send(%d) returned false", i)
		}
	}

	if b.Len() != n {
		t.Errorf("Len = %d, want %d", b.Len(), n)
	}

	for i := 0; i < n; i++ {
		got, ok := b.TryReceive()
		if !ok || got != i {
			t.Fatalf("TryReceive %d = (%d, %v)", i, got, ok)
		}
	}
}

func TestGrowableBuffer_TryReceiveEmpty(t *testing.T) {
	b := NewGrowableBuffer[string](4)

	if _, ok := b.TryReceive(); ok {
		t.Error("TryReceive on empty buffer returned ok")
	}
}

func TestGrowableBuffer_Drain(t *testing.T) {
	b := NewGrowableBuffer[string](4)
	b.Send("a")
	b.Send("b")
	b.Send("c")

	got := b.Drain()
	if len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Errorf("Drain = %v", got)
	}
	if b.Len() != 0 {
		t.Errorf("Len after Drain = %d, want 0", b.Len())
	}
	if b.Drain() != nil {
		t.Error("Drain on empty buffer should return nil")
	}
}

func TestGrowableBuffer_Close(t *testing.T) {
	b := NewGrowableBuffer[int](4)
	b.Send(1)
	b.Close()

	if b.Send(2) {
		t.Error("Send after Close returned true")
	}

	// Remaining items still drain
	got, ok := b.Receive()
	if !ok || got != 1 {
		t.Errorf("Receive after Close = (%d, %v), want (1, true)", got, ok)
	}

	if _, ok := b.Receive(); ok {
		t.Error("Receive on closed empty buffer returned ok")
	}
}

func TestGrowableBuffer_BlockingReceive(t *testing.T) {
	b := NewGrowableBuffer[int](4)

	var wg sync.WaitGroup
	wg.Add(1)
	var got int
	var ok bool
	go func() {
		defer wg.Done()
		got, ok = b.Receive()
	}()

	time.Sleep(20 * time.Millisecond)
	b.Send(42)
	wg.Wait()

	if !ok || got != 42 {
		t.Errorf("blocked Receive = (%d, %v), want (42, true)", got, ok)
	}
}
