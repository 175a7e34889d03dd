package decision

import (
	"fmt"
	"testing"
)

func TestProcessedSet_TrimKeepsMostRecent(t *testing.T) {
	s := NewProcessedSet(10, 5)

	for i := 0; i < 11; i++ {
		s.Add(fmt.Sprintf("s%d", i))
	}

	if s.Len() != 5 {
		t.Fatalf("expected 5 entries, got %d", s.Len())
	}
	for i := 0; i < 6; i++ {
		if s.Contains(fmt.Sprintf("s%d", i)) {
			t.Errorf("s%d should have been evicted", i)
		}
	}
	for i := 6; i < 11; i++ {
		if !s.Contains(fmt.Sprintf("s%d", i)) {
			t.Errorf("s%d should be retained", i)
		}
	}
}

func TestProcessedSet_AtCapacityNotTrimmed(t *testing.T) {
	s := NewProcessedSet(10, 5)

	for i := 0; i < 10; i++ {
		s.Add(fmt.Sprintf("s%d", i))
	}

	if s.Len() != 10 {
		t.Errorf("expected 10 entries, got %d", s.Len())
	}
}

func TestProcessedSet_DuplicateDoesNotRefresh(t *testing.T) {
	s := NewProcessedSet(3, 2)

	s.Add("a")
	s.Add("b")
	s.Add("a")
	s.Add("c")
	s.Add("d") // exceeds capacity: keep c, d

	if s.Contains("a") || s.Contains("b") {
		t.Error("a and b should be evicted")
	}
	if !s.Contains("c") || !s.Contains("d") {
		t.Error("c and d should be retained")
	}
}

func TestProcessedSet_RepeatedTrims(t *testing.T) {
	s := NewProcessedSet(DefaultProcessedCapacity, DefaultProcessedRetain)

	for i := 0; i < 3*DefaultProcessedCapacity; i++ {
		s.Add(fmt.Sprintf("sig-%d", i))
		if s.Len() > DefaultProcessedCapacity {
			t.Fatalf("set exceeded capacity after add %d: %d", i, s.Len())
		}
	}
	if !s.Contains(fmt.Sprintf("sig-%d", 3*DefaultProcessedCapacity-1)) {
		t.Error("latest signature should be retained")
	}
}
