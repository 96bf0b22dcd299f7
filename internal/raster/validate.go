package raster

import (
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/sarabun/docflow/internal/faults"
)

// ValidateSourceFile checks that path names a readable PDF within the size
// limit before any bytes are loaded. Validation failures are input errors;
// an unparsable document is a render error, matching Open.
func ValidateSourceFile(path string, maxFileSize int64) error {
	if path == "" {
		return faults.Input("raster.validate", "path cannot be empty")
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return faults.Input("raster.validate", "file does not exist: %s", path)
	}
	if err != nil {
		return faults.Wrap(faults.KindStorage, "raster.validate", err, "cannot access file %s", path)
	}
	if info.IsDir() {
		return faults.Input("raster.validate", "path is a directory, not a file: %s", path)
	}
	if !strings.HasSuffix(strings.ToLower(path), ".pdf") {
		return faults.Input("raster.validate", "file is not a PDF: %s", path)
	}
	if info.Size() == 0 {
		return faults.Input("raster.validate", "file is empty: %s", path)
	}
	if maxFileSize > 0 && info.Size() > maxFileSize {
		return faults.Input("raster.validate", "file too large: %d bytes (max: %d bytes)", info.Size(), maxFileSize)
	}

	f, _, err := pdf.Open(path)
	if err != nil {
		return faults.Wrap(faults.KindRender, "raster.validate", err, "invalid PDF file: %s", path)
	}
	defer f.Close()

	return nil
}
