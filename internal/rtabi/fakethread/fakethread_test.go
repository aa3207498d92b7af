package fakethread

import "testing"

func TestTLSRoundTrips(t *testing.T) {
	r := NewRuntime()
	if _, ok := r.TLSGet(3); ok {
		t.Fatal("unset slot should report not-ok")
	}
	r.TLSSet(3, 0x42)
	v, ok := r.TLSGet(3)
	if !ok || v != 0x42 {
		t.Fatalf("TLSGet(3) = (%d, %v), want (0x42, true)", v, ok)
	}
}

func TestMonitorEnterExitDoesNotDeadlockAcrossObjects(t *testing.T) {
	r := NewRuntime()
	r.MonitorEnter(1)
	r.MonitorEnter(2)
	r.MonitorExit(1)
	r.MonitorExit(2)
}

func TestBarrierReleasesAfterCount(t *testing.T) {
	r := NewRuntime()
	b := r.NewBarrier(2)
	done := make(chan struct{})
	go func() {
		b.Wait()
		close(done)
	}()
	b.Done()
	b.Done()
	<-done
}
