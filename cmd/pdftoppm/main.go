// pdftoppm - PDF page to PNG renderer
package main

import (
	"flag"
	"fmt"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/novvoo/go-pdffixture/pkg/fixture"
	"github.com/novvoo/go-pdffixture/pkg/pdf"
)

// maxResolution keeps a letter page well inside pdf.MaxRenderPixels
const maxResolution = 1200

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("pdftoppm", flag.ContinueOnError)
	flags.SetOutput(stderr)
	page := flags.Int("f", 1, "page to render")
	resolution := flags.Float64("r", 150, "resolution in DPI")
	output := flags.String("o", "", "output PNG file (default <PDF-file>-<page>.png)")
	quiet := flags.Bool("q", false, "don't print any messages")

	flags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: pdftoppm [options] [<PDF-file>]\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		return 2
	}

	if *resolution <= 0 || *resolution > maxResolution {
		fmt.Fprintf(stderr, "Error: resolution %g out of range (must be > 0 and <= %d)\n", *resolution, maxResolution)
		return 1
	}

	pdfFile := fixture.FileName
	if flags.NArg() > 0 {
		pdfFile = flags.Arg(0)
	}
	outFile := *output
	if outFile == "" {
		outFile = fmt.Sprintf("%s-%d.png", strings.TrimSuffix(filepath.Base(pdfFile), ".pdf"), *page)
	}

	if err := render(pdfFile, outFile, *page, *resolution); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if !*quiet {
		fmt.Fprintf(stdout, "Wrote %s\n", outFile)
	}
	return 0
}

func render(pdfFile, outFile string, pageNum int, dpi float64) (err error) {
	doc, err := pdf.Open(pdfFile)
	if err != nil {
		return err
	}
	defer doc.Close()

	page, err := doc.GetPage(pageNum)
	if err != nil {
		return err
	}

	opts := pdf.DefaultRenderOptions()
	opts.DPI = dpi
	img, err := pdf.RenderPage(page, opts)
	if err != nil {
		return fmt.Errorf("rendering page %d: %w", pageNum, err)
	}

	f, err := os.Create(outFile)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return png.Encode(f, img)
}
