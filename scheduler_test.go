package autofill

import (
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var testEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestVirtualClock_Order(t *testing.T) {
	clock := NewVirtualClock(testEpoch)
	var got []string
	clock.AfterFunc(300*time.Millisecond, func() { got = append(got, "c") })
	clock.AfterFunc(100*time.Millisecond, func() { got = append(got, "a") })
	clock.AfterFunc(100*time.Millisecond, func() { got = append(got, "b") })

	clock.Advance(200 * time.Millisecond)
	if diff := cmp.Diff([]string{"a", "b"}, got); diff != "" {
		t.Errorf("(-shouldBe +got)\n%v", diff)
	}
	if clock.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", clock.Pending())
	}

	clock.Advance(100 * time.Millisecond)
	if diff := cmp.Diff([]string{"a", "b", "c"}, got); diff != "" {
		t.Errorf("(-shouldBe +got)\n%v", diff)
	}
	if want := testEpoch.Add(300 * time.Millisecond); !clock.Now().Equal(want) {
		t.Errorf("Now() = %v, want %v", clock.Now(), want)
	}
}

func TestVirtualClock_NestedAndStop(t *testing.T) {
	clock := NewVirtualClock(testEpoch)
	var fired []time.Duration
	var tick func()
	tick = func() {
		fired = append(fired, clock.Now().Sub(testEpoch))
		if len(fired) < 3 {
			clock.AfterFunc(100*time.Millisecond, tick)
		}
	}
	clock.AfterFunc(100*time.Millisecond, tick)

	stopped := clock.AfterFunc(150*time.Millisecond, func() { t.Error("stopped timer fired") })
	if !stopped.Stop() {
		t.Error("Stop() = false for a pending timer")
	}
	if stopped.Stop() {
		t.Error("second Stop() = true")
	}

	clock.Advance(time.Second)
	shouldBe := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond}
	if diff := cmp.Diff(shouldBe, fired); diff != "" {
		t.Errorf("(-shouldBe +got)\n%v", diff)
	}
	if clock.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", clock.Pending())
	}
}

func TestEventLoop_Serializes(t *testing.T) {
	loop := NewEventLoop()
	var (
		wg      sync.WaitGroup
		running int
		overlap bool
		count   int
	)
	body := func() {
		running++
		if running > 1 {
			overlap = true
		}
		time.Sleep(time.Millisecond)
		count++
		running--
		wg.Done()
	}
	for i := 0; i < 10; i++ {
		wg.Add(2)
		loop.AfterFunc(time.Duration(i%3)*time.Millisecond, body)
		go loop.Post(body)
	}
	wg.Wait()

	var gotOverlap bool
	var gotCount int
	loop.Post(func() {
		gotOverlap = overlap
		gotCount = count
	})
	if gotOverlap {
		t.Error("callbacks overlapped")
	}
	if gotCount != 20 {
		t.Errorf("count = %d, want 20", gotCount)
	}
}
