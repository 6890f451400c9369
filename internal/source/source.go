// Package source opens raster media referenced by timeline items:
// still images, data URIs and PDF pages.
package source

import (
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

// Source is a paged raster medium. Still images have a single page.
type Source interface {
	PageCount() int
	PageSize(index int) (width, height float64, err error)
	RenderPage(index int, dpi int) (image.Image, error)
	Close() error
}

// PDFSource rasterizes PDF pages through MuPDF.
type PDFSource struct {
	doc  *fitz.Document
	data []byte
}

func NewPDFSource(data []byte) (*PDFSource, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	return &PDFSource{doc: doc, data: data}, nil
}

func (p *PDFSource) PageCount() int {
	return p.doc.NumPage()
}

func (p *PDFSource) PageSize(index int) (float64, float64, error) {
	rect, err := p.doc.Bound(index)
	if err != nil {
		return 0, 0, err
	}
	return float64(rect.Dx()), float64(rect.Dy()), nil
}

// RenderPage opens a private document per call: a fitz.Document must not
// be shared between goroutines.
func (p *PDFSource) RenderPage(index int, dpi int) (image.Image, error) {
	if index < 0 || index >= p.PageCount() {
		return nil, fmt.Errorf("page %d out of range [0, %d)", index, p.PageCount())
	}
	workerDoc, err := fitz.NewFromMemory(p.data)
	if err != nil {
		return nil, err
	}
	defer workerDoc.Close()
	return workerDoc.ImageDPI(index, float64(dpi))
}

func (p *PDFSource) Close() error {
	return p.doc.Close()
}
