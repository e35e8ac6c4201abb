package pdf

import "fmt"

type Mode int

const (
	// ModePerChapter writes one PDF per chapter into the result folder.
	ModePerChapter Mode = iota
	// ModeBatch merges every N consecutive chapters into one PDF.
	ModeBatch
	// ModeSingle merges the whole manga into one PDF.
	ModeSingle
)

// Plan decides how chapter PDFs map to output files. Exactly one mode is
// active per run; one_file wins over join_every.
type Plan struct {
	Mode      Mode
	BatchSize int
	Total     int
}

func NewPlan(total, joinEvery int, oneFile bool) Plan {
	switch {
	case oneFile:
		return Plan{Mode: ModeSingle, Total: total}
	case joinEvery > 0:
		return Plan{Mode: ModeBatch, BatchSize: joinEvery, Total: total}
	default:
		return Plan{Mode: ModePerChapter, Total: total}
	}
}

// Batch is an inclusive 1-based chapter range.
type Batch struct {
	Start, End int
}

func (b Batch) Name() string {
	return fmt.Sprintf("%d-%d.pdf", b.Start, b.End)
}

// Batches returns the output ranges in chapter order. A batch size that
// does not divide the total leaves the remainder in the last batch.
func (p Plan) Batches() []Batch {
	if p.Total <= 0 {
		return nil
	}

	switch p.Mode {
	case ModeSingle:
		return []Batch{{Start: 1, End: p.Total}}

	case ModeBatch:
		out := make([]Batch, 0, (p.Total+p.BatchSize-1)/p.BatchSize)
		for start := 1; start <= p.Total; start += p.BatchSize {
			end := start + p.BatchSize - 1
			if end > p.Total {
				end = p.Total
			}
			out = append(out, Batch{Start: start, End: end})
		}
		return out

	default:
		out := make([]Batch, 0, p.Total)
		for i := 1; i <= p.Total; i++ {
			out = append(out, Batch{Start: i, End: i})
		}
		return out
	}
}
