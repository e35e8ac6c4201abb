// Package pdf renders chapter images into PDFs and merges them according
// to the output plan. Merging is structural, images are never re-encoded.
package pdf

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// RenderError means an image file could not be read or decoded while
// building a PDF page.
type RenderError struct {
	Path string
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("cannot render %s: %v", e.Path, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

type Assembler struct {
	resolution float64 // DPI used to map pixels to page points
	skipBroken bool
	conf       *model.Configuration
	log        interface {
		Debugf(string, ...any)
		Warnf(string, ...any)
	}
}

func NewAssembler(resolution float64, skipBroken bool, log interface {
	Debugf(string, ...any)
	Warnf(string, ...any)
}) *Assembler {
	if resolution <= 0 {
		resolution = 100.0
	}

	return &Assembler{
		resolution: resolution,
		skipBroken: skipBroken,
		conf:       model.NewDefaultConfiguration(),
		log:        log,
	}
}

// AssembleChapter renders the ordered image files into a single PDF at
// outPath, one page per image. Page dimensions are derived from the image's
// pixel size at the configured DPI, so the aspect ratio is preserved
// exactly. Intermediate one-page PDFs are written next to outPath.
func (a *Assembler) AssembleChapter(images []string, outPath string) (skipped []string, err error) {
	if len(images) == 0 {
		return nil, fmt.Errorf("chapter has no images to assemble")
	}

	workDir := filepath.Dir(outPath)
	base := filepath.Base(outPath)

	var pagePDFs []string
	defer func() {
		for _, p := range pagePDFs {
			_ = os.Remove(p)
		}
	}()

	for i, img := range images {
		pagePath := filepath.Join(workDir, fmt.Sprintf(".%s.page%03d.pdf", base, i+1))

		if rerr := a.renderPage(img, pagePath); rerr != nil {
			if !a.skipBroken {
				return nil, rerr
			}

			a.log.Warnf("%v", rerr)
			skipped = append(skipped, img)
			continue
		}

		pagePDFs = append(pagePDFs, pagePath)
	}

	if len(pagePDFs) == 0 {
		return skipped, fmt.Errorf("all %d images of %s were unreadable", len(images), base)
	}

	if err := api.MergeCreateFile(pagePDFs, outPath, false, a.conf); err != nil {
		return skipped, fmt.Errorf("merging pages of %s: %w", base, err)
	}

	a.log.Debugf("Assembled %s (%d pages)", outPath, len(pagePDFs))

	return skipped, nil
}

func (a *Assembler) renderPage(imgPath, outPath string) error {
	w, h, err := a.pageDims(imgPath)
	if err != nil {
		return &RenderError{Path: imgPath, Err: err}
	}

	// The page dims already carry the image aspect ratio, so a centered
	// image at full relative scale fills the page edge to edge. position:full
	// would discard the dims and fall back to the pixel size.
	desc := fmt.Sprintf("dimensions:%.2f %.2f, pos:c, scalefactor:1.0 rel", w, h)
	imp, err := api.Import(desc, types.POINTS)
	if err != nil {
		return &RenderError{Path: imgPath, Err: err}
	}

	if err := api.ImportImagesFile([]string{imgPath}, outPath, imp, a.conf); err != nil {
		return &RenderError{Path: imgPath, Err: err}
	}

	return nil
}

// pageDims converts image pixel dimensions to page points at the
// configured DPI (1 pt = 1/72 inch).
func (a *Assembler) pageDims(imgPath string) (w, h float64, err error) {
	f, err := os.Open(imgPath)
	if err != nil {
		return 0, 0, err
	}
	defer func() {
		_ = f.Close()
	}()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, 0, fmt.Errorf("degenerate image %dx%d", cfg.Width, cfg.Height)
	}

	scale := 72.0 / a.resolution

	return float64(cfg.Width) * scale, float64(cfg.Height) * scale, nil
}
