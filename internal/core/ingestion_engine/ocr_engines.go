package ingestion_engine

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// PdftoppmRasterizer shells out to poppler's pdftoppm.
type PdftoppmRasterizer struct {
	Bin string
}

func (r PdftoppmRasterizer) Rasterize(ctx context.Context, pdfPath, outDir string, dpi int) error {
	bin := r.Bin
	if bin == "" {
		bin = "pdftoppm"
	}
	cmd := exec.CommandContext(ctx, bin, "-r", strconv.Itoa(dpi), "-png", pdfPath, filepath.Join(outDir, "page"))
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w: %s", bin, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
