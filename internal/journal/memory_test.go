package journal

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNewMemoryJournal(t *testing.T) {
	j := NewMemoryJournal(0)
	if j == nil {
		t.Fatal("NewMemoryJournal() = nil")
	}
	if j.capacity != DefaultCapacity {
		t.Errorf("capacity = %d, want %d", j.capacity, DefaultCapacity)
	}

	records, err := j.Records()
	if err != nil {
		t.Fatalf("Records() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Records() = %v items, want 0", len(records))
	}
}

func TestMemoryJournal_AppendAssignsSeq(t *testing.T) {
	j := NewMemoryJournal(10)

	first, _ := j.Append(Record{Key: "a", Pathname: "/a", NavigationType: "PUSH"})
	second, _ := j.Append(Record{Key: "b", Pathname: "/b", NavigationType: "PUSH"})

	if first.Seq != 1 || second.Seq != 2 {
		t.Errorf("Seq = %d, %d; want 1, 2", first.Seq, second.Seq)
	}

	records, _ := j.Records()
	if len(records) != 2 {
		t.Fatalf("Records() = %v items, want 2", len(records))
	}
	if records[0].Key != "a" || records[1].Key != "b" {
		t.Errorf("Records() order = %q, %q; want a, b", records[0].Key, records[1].Key)
	}
}

func TestMemoryJournal_Lookup(t *testing.T) {
	j := NewMemoryJournal(10)

	j.Append(Record{Key: "a", Pathname: "/a", NavigationType: "PUSH"})
	j.Append(Record{Key: "b", Pathname: "/b", NavigationType: "PUSH"})
	j.Append(Record{Key: "a", Pathname: "/a", NavigationType: "POP"})

	rec, ok, err := j.Lookup("a")
	if err != nil || !ok {
		t.Fatalf("Lookup(a) = %v, %v; want found", ok, err)
	}
	if rec.NavigationType != "POP" || rec.Seq != 3 {
		t.Errorf("Lookup(a) = %+v, want most recent POP record", rec)
	}

	if _, ok, _ := j.Lookup("missing"); ok {
		t.Error("Lookup(missing) found a record")
	}
}

func TestMemoryJournal_EvictsOldest(t *testing.T) {
	j := NewMemoryJournal(2)

	j.Append(Record{Key: "a"})
	j.Append(Record{Key: "b"})
	j.Append(Record{Key: "c"})

	records, _ := j.Records()
	if len(records) != 2 {
		t.Fatalf("Records() = %v items, want 2", len(records))
	}
	if records[0].Key != "b" || records[1].Seq != 3 {
		t.Errorf("Records() = %+v, want b then c(seq 3)", records)
	}
	if _, ok, _ := j.Lookup("a"); ok {
		t.Error("Lookup(a) should miss after eviction")
	}
}

func TestMemoryJournal_EvictionKeepsNewerKey(t *testing.T) {
	j := NewMemoryJournal(2)

	j.Append(Record{Key: "a", NavigationType: "PUSH"})
	j.Append(Record{Key: "a", NavigationType: "POP"})
	j.Append(Record{Key: "b", NavigationType: "PUSH"})

	rec, ok, _ := j.Lookup("a")
	if !ok {
		t.Fatal("Lookup(a) should still find the newer record")
	}
	if rec.Seq != 2 {
		t.Errorf("Lookup(a).Seq = %d, want 2", rec.Seq)
	}
}

func TestMemoryJournal_Subscribe(t *testing.T) {
	j := NewMemoryJournal(10)

	ch := j.Subscribe()

	go func() {
		j.Append(Record{Key: "k", Pathname: "/home", State: json.RawMessage(`{"the":"state"}`)})
	}()

	select {
	case rec := <-ch:
		if rec.Pathname != "/home" {
			t.Errorf("received Pathname = %v, want /home", rec.Pathname)
		}
		if string(rec.State) != `{"the":"state"}` {
			t.Errorf("received State = %s", rec.State)
		}
	case <-time.After(1 * time.Second):
		t.Error("Subscribe() channel did not receive record")
	}
}

func TestMemoryJournal_UnsubscribeIdempotent(t *testing.T) {
	j := NewMemoryJournal(10)

	ch := j.Subscribe()
	j.Unsubscribe(ch)
	j.Unsubscribe(ch) // must not panic on double close

	if _, ok := <-ch; ok {
		t.Error("Unsubscribe() channel should be closed")
	}
}

func TestMemoryJournal_SlowSubscriberDoesNotBlock(t *testing.T) {
	j := NewMemoryJournal(500)
	_ = j.Subscribe() // never drained

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*2; i++ {
			j.Append(Record{Key: "k"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Append() blocked on a full subscriber")
	}
}

func TestMemoryJournal_CloseClosesSubscribers(t *testing.T) {
	j := NewMemoryJournal(10)
	ch := j.Subscribe()

	if err := j.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, ok := <-ch; ok {
		t.Error("Close() should close subscriber channels")
	}
	j.Unsubscribe(ch) // already removed, no-op
}
