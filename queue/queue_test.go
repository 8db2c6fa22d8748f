package queue

import "testing"

func TestFIFOOrderWithDuplicates(t *testing.T) {
	q := NewPending()
	q.Push("alice")
	q.Push("bob")
	q.Push("alice") // duplicates are kept; each command is one queue entry

	if q.Len() != 3 {
		t.Fatalf("Len = %d, want 3", q.Len())
	}
	want := []string{"alice", "bob", "alice"}
	for i, w := range want {
		got, ok := q.Pop()
		if !ok || got != w {
			t.Fatalf("Pop %d = (%q, %v), want (%q, true)", i, got, ok, w)
		}
	}
	if _, ok := q.Pop(); ok {
		t.Fatal("Pop on empty queue must report empty")
	}
	if q.Len() != 0 {
		t.Fatalf("Len after drain = %d, want 0", q.Len())
	}
}

func TestPopEmpty(t *testing.T) {
	q := NewPending()
	if user, ok := q.Pop(); ok || user != "" {
		t.Fatalf("Pop = (%q, %v), want (\"\", false)", user, ok)
	}
}
