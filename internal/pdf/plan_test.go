package pdf

import "testing"

func TestPlanModes(t *testing.T) {
	if p := NewPlan(10, 0, false); p.Mode != ModePerChapter {
		t.Errorf("default mode = %v, want per-chapter", p.Mode)
	}
	if p := NewPlan(10, 4, false); p.Mode != ModeBatch {
		t.Errorf("join_every mode = %v, want batch", p.Mode)
	}
	if p := NewPlan(10, 4, true); p.Mode != ModeSingle {
		t.Errorf("one_file must win over join_every, got %v", p.Mode)
	}
}

func TestBatchesPerChapter(t *testing.T) {
	b := NewPlan(3, 0, false).Batches()

	if len(b) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(b))
	}
	for i, batch := range b {
		if batch.Start != i+1 || batch.End != i+1 {
			t.Errorf("batch %d = %+v", i, batch)
		}
	}
}

func TestBatchesRemainder(t *testing.T) {
	// 23 chapters in batches of 10 -> ceil(23/10) = 3 files,
	// the last holding the remainder.
	b := NewPlan(23, 10, false).Batches()

	if len(b) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(b))
	}

	want := []Batch{{1, 10}, {11, 20}, {21, 23}}
	for i := range want {
		if b[i] != want[i] {
			t.Errorf("batch %d = %+v, want %+v", i, b[i], want[i])
		}
	}

	if b[0].Name() != "1-10.pdf" || b[2].Name() != "21-23.pdf" {
		t.Errorf("unexpected names: %s, %s", b[0].Name(), b[2].Name())
	}
}

func TestBatchesExactDivision(t *testing.T) {
	b := NewPlan(6, 2, false).Batches()

	if len(b) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(b))
	}
	if b[2] != (Batch{5, 6}) {
		t.Errorf("last batch = %+v, want {5 6}", b[2])
	}
}

func TestBatchesSingle(t *testing.T) {
	b := NewPlan(42, 5, true).Batches()

	if len(b) != 1 || b[0].Start != 1 || b[0].End != 42 {
		t.Fatalf("single mode batches = %+v", b)
	}
}

func TestBatchesEmpty(t *testing.T) {
	if b := NewPlan(0, 5, false).Batches(); b != nil {
		t.Errorf("expected nil for empty plan, got %+v", b)
	}
}
