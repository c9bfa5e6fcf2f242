package debate

import (
	"testing"
	"time"
)

func TestSubscriber_CutOffWhenFarBehind(t *testing.T) {
	s := newSubscriber()

	accepted := 0
	for i := 1; i <= maxPendingRecords+500; i++ {
		if !s.push(Record{Seq: i}) {
			break
		}
		accepted++
	}
	if accepted < maxPendingRecords || accepted >= maxPendingRecords+500 {
		t.Fatalf("Expected the subscriber cut off after about %d records, accepted %d", maxPendingRecords, accepted)
	}
	if s.push(Record{Seq: accepted + 2}) {
		t.Error("Expected push to keep failing after the cut-off")
	}

	n := 0
	for r := range s.out {
		n++
		if r.Seq != n {
			t.Fatalf("Expected seq %d, got %d", n, r.Seq)
		}
	}
	if n != accepted {
		t.Errorf("Expected every accepted record delivered, got %d of %d", n, accepted)
	}
}

func TestSubscriber_FinishAndCancel(t *testing.T) {
	s := newSubscriber()
	for i := 1; i <= 3; i++ {
		s.push(Record{Seq: i})
	}
	s.finish()
	var got []int
	for r := range s.out {
		got = append(got, r.Seq)
	}
	if len(got) != 3 {
		t.Errorf("Expected 3 records before close, got %v", got)
	}

	c := newSubscriber()
	c.push(Record{Seq: 1})
	c.cancel()
	c.cancel()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, open := <-c.out:
			if !open {
				return
			}
		case <-deadline:
			t.Fatal("Expected the channel closed after cancel")
		}
	}
}
