package render

import (
	"fmt"
	"path/filepath"

	"github.com/banshee-data/drawin/internal/fsutil"
	"github.com/banshee-data/drawin/internal/monitoring"
	"github.com/banshee-data/drawin/internal/sketch"
	"github.com/banshee-data/drawin/internal/timeutil"
)

// FilenameTimeLayout formats the timestamp part of export file names.
const FilenameTimeLayout = "20060102-150405"

// Exporter saves rendered pictures as PNG files in Dir.
type Exporter struct {
	FS    fsutil.FileSystem
	Clock timeutil.Clock
	Dir   string
}

// NewExporter creates an exporter writing to dir on the real filesystem.
func NewExporter(dir string) *Exporter {
	return &Exporter{FS: fsutil.OSFileSystem{}, Clock: timeutil.RealClock{}, Dir: dir}
}

// Filename returns the export name for cat at the current time, for
// example Drawin_sun_20240501-093000.png.
func (e *Exporter) Filename(cat sketch.Category) string {
	return fmt.Sprintf("Drawin_%s_%s.png", cat, e.Clock.Now().Format(FilenameTimeLayout))
}

// Save renders cat and writes it to Dir, creating the directory if needed.
// It returns the path written.
func (e *Exporter) Save(cat sketch.Category) (string, error) {
	if !HasRenderer(cat) {
		return "", fmt.Errorf("%w %s", ErrNoRenderer, cat)
	}
	if err := e.FS.MkdirAll(e.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	path := filepath.Join(e.Dir, e.Filename(cat))
	f, err := e.FS.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(f, cat, FormatPNG); err != nil {
		f.Close()
		e.discard(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		e.discard(path)
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	monitoring.Opsf("exported %s to %s", cat, path)
	return path, nil
}

// discard removes a partially written export.
func (e *Exporter) discard(path string) {
	if err := e.FS.Remove(path); err != nil {
		monitoring.Opsf("failed to remove partial export %s: %v", path, err)
	}
}
