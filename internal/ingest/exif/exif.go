package exif

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	goexif "github.com/rwcarlsen/goexif/exif"

	"github.com/bryanbarcelona/brybox/internal/ingest/common"
)

// exifTimeLayout is the timestamp format used by EXIF date fields.
const exifTimeLayout = "2006:01:02 15:04:05"

var (
	currentGOOS = runtime.GOOS
	lookPathFn  = exec.LookPath
)

// Candidates returns the exiftool executable names probed on a platform.
func Candidates(goos string) []string {
	if goos == "windows" {
		return []string{"exiftool", "exiftool.exe", "exiftool(-k).exe"}
	}
	return []string{"exiftool"}
}

// Resolve locates the exiftool executable in PATH.
func Resolve() (string, error) {
	candidates := Candidates(currentGOOS)
	for _, candidate := range candidates {
		if resolved, err := lookPathFn(candidate); err == nil {
			return resolved, nil
		}
	}

	return "", fmt.Errorf("exiftool executable not found in PATH (tried: %s)", strings.Join(candidates, ", "))
}

// Runner executes one exiftool invocation and returns its combined output.
type Runner func(ctx context.Context, args []string) (string, error)

// Tool reads and writes EXIF capture timestamps. JPEG reads are served by an
// in-process decoder when possible; everything else (HEIC in particular)
// goes through exiftool.
type Tool struct {
	binary string
	run    Runner
}

// NewTool creates a timestamp tool using the exiftool binary at binPath, or
// the first match in PATH when binPath is empty.
func NewTool(binPath string) (*Tool, error) {
	var resolved string
	var err error

	if binPath == "" {
		resolved, err = Resolve()
		if err != nil {
			return nil, err
		}
	} else {
		resolved, err = lookPathFn(binPath)
		if err != nil {
			return nil, fmt.Errorf("configured exiftool %q not usable: %w", binPath, err)
		}
	}

	t := &Tool{binary: resolved}
	t.run = t.execRun
	return t, nil
}

// ReadDateTimeOriginal returns the capture timestamp of path. A file without
// a DateTimeOriginal field fails with an error wrapping
// common.ErrNoTimestamp.
func (t *Tool) ReadDateTimeOriginal(ctx context.Context, path string) (time.Time, error) {
	if isJPEG(path) {
		if ts, err := readEmbedded(path); err == nil {
			return ts, nil
		}
		// The embedded decoder rejects some real-world EXIF blocks, so a
		// failed fast path still consults exiftool.
	}

	output, err := t.run(ctx, []string{"-DateTimeOriginal", "-s", "-s", "-s", path})
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read EXIF from %s: %w", path, err)
	}

	dateStr := strings.TrimSpace(output)
	if dateStr == "" {
		return time.Time{}, fmt.Errorf("%w: %s", common.ErrNoTimestamp, path)
	}

	ts, err := time.ParseInLocation(exifTimeLayout, dateStr, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q in %s: %w", dateStr, path, err)
	}
	return ts, nil
}

// WriteAllDates rewrites DateTimeOriginal, CreateDate and ModifyDate of path
// to ts in a single exiftool invocation.
func (t *Tool) WriteAllDates(ctx context.Context, path string, ts time.Time) error {
	formatted := ts.Format(exifTimeLayout)
	args := []string{
		"-DateTimeOriginal=" + formatted,
		"-CreateDate=" + formatted,
		"-ModifyDate=" + formatted,
		"-overwrite_original",
		path,
	}

	output, err := t.run(ctx, args)
	if err != nil {
		return fmt.Errorf("could not write dates for %s\nerror: %w\noutput: %s", path, err, strings.TrimSpace(output))
	}
	return nil
}

func (t *Tool) execRun(ctx context.Context, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, t.binary, args...)
	data, err := cmd.CombinedOutput()
	return string(data), err
}

// readEmbedded parses the EXIF block in-process.
func readEmbedded(path string) (time.Time, error) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, err
	}
	defer f.Close()

	x, err := goexif.Decode(f)
	if err != nil {
		return time.Time{}, err
	}

	tag, err := x.Get(goexif.DateTimeOriginal)
	if err != nil {
		return time.Time{}, err
	}
	val, err := tag.StringVal()
	if err != nil {
		return time.Time{}, err
	}

	return time.ParseInLocation(exifTimeLayout, strings.TrimSpace(val), time.Local)
}

func isJPEG(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return true
	default:
		return false
	}
}
