package pdf

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

type Merger struct {
	conf *model.Configuration
	log  interface {
		Infof(string, ...any)
		Warnf(string, ...any)
	}
}

func NewMerger(log interface {
	Infof(string, ...any)
	Warnf(string, ...any)
}) *Merger {
	return &Merger{conf: model.NewDefaultConfiguration(), log: log}
}

// Run turns per-chapter PDFs into the planned output files. chapterPDFs
// maps chapter index to the intermediate PDF path; chapters whose download
// failed are simply absent. Returns the written output paths in order.
func (m *Merger) Run(plan Plan, chapterPDFs map[int]string, resultFolder, resultPDF string) ([]string, error) {
	var outputs []string

	for _, b := range plan.Batches() {
		members := make([]string, 0, b.End-b.Start+1)
		for i := b.Start; i <= b.End; i++ {
			if p, ok := chapterPDFs[i]; ok {
				members = append(members, p)
			}
		}

		if len(members) == 0 {
			m.log.Warnf("No chapters available for %s, skipping", b.Name())
			continue
		}

		var out string
		switch plan.Mode {
		case ModeSingle:
			out = resultPDF
		case ModeBatch:
			out = filepath.Join(resultFolder, b.Name())
		default:
			out = filepath.Join(resultFolder, fmt.Sprintf("%d.pdf", b.Start))
		}

		if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
			return outputs, err
		}

		if plan.Mode == ModePerChapter {
			// A single chapter needs no merge pass.
			if err := copyFile(members[0], out); err != nil {
				return outputs, fmt.Errorf("writing %s: %w", out, err)
			}
		} else {
			if err := api.MergeCreateFile(members, out, false, m.conf); err != nil {
				return outputs, fmt.Errorf("merging %s: %w", out, err)
			}
		}

		m.log.Infof("Wrote %s (%d chapters)", out, len(members))
		outputs = append(outputs, out)
	}

	return outputs, nil
}

func copyFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		_ = in.Close()
	}()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	_, err = io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}

	return err
}
