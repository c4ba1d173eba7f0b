package osm

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/rotisserie/eris"
)

// CommandRunner runs an external program to completion.
type CommandRunner interface {
	Run(ctx context.Context, dir, name string, args ...string) error
}

// ExecRunner runs commands with os/exec. Stderr is captured into the error.
type ExecRunner struct{}

// Run implements CommandRunner.
func (ExecRunner) Run(ctx context.Context, dir, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return eris.Wrapf(err, "osm: %s %s failed: %s", name, strings.Join(args, " "), strings.TrimSpace(stderr.String()))
	}
	return nil
}

// WgetDownloader fetches files with the wget command line tool.
type WgetDownloader struct {
	runner  CommandRunner
	binPath string
}

// NewWgetDownloader creates a WgetDownloader. If binPath is empty, "wget" is used.
func NewWgetDownloader(runner CommandRunner, binPath string) *WgetDownloader {
	if binPath == "" {
		binPath = "wget"
	}
	return &WgetDownloader{runner: runner, binPath: binPath}
}

// DownloadToFile runs wget -q -O path.part url and renames the result to
// path. A failed download leaves neither file behind.
func (w *WgetDownloader) DownloadToFile(ctx context.Context, url, path string) (int64, error) {
	part := path + ".part"
	if err := w.runner.Run(ctx, "", w.binPath, "-q", "-O", part, url); err != nil {
		_ = os.Remove(part)
		return 0, err
	}
	info, err := os.Stat(part)
	if err != nil {
		return 0, eris.Wrapf(err, "osm: stat %s", part)
	}
	if err := os.Rename(part, path); err != nil {
		_ = os.Remove(part)
		return 0, eris.Wrapf(err, "osm: rename %s", part)
	}
	return info.Size(), nil
}
