package everest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"
)

// badFilenameChars are replaced with '_' by sanitize; they are invalid or
// problematic on at least one common filesystem.
var badFilenameChars = regexp.MustCompile(`[/\\*?:;]`)

var filenameWhitespaceRun = regexp.MustCompile(`\s+`)

// sanitize derives a safe archive filename stem from a registry mod name:
// strip CR/LF/NUL, trim surrounding whitespace, drop one leading '.',
// collapse internal whitespace runs to a single space, replace the
// filesystem-hostile character set with '_', and cap the result at 255
// bytes. An empty result falls back to "unnamed".
func sanitize(name string) string {
	replacer := strings.NewReplacer("\r", "", "\n", "", "\x00", "")
	stripped := replacer.Replace(name)

	trimmed := strings.TrimSpace(stripped)
	trimmed = strings.TrimPrefix(trimmed, ".")

	fields := strings.Fields(trimmed)
	collapsed := strings.Join(fields, " ")

	cleaned := badFilenameChars.ReplaceAllString(collapsed, "_")

	if len(cleaned) > 255 {
		cleaned = cleaned[:255]
	}
	if cleaned == "" {
		return "unnamed"
	}
	return cleaned
}

// InstallPath returns the destination path a newly installed mod's archive
// is written to, given the mods directory. A WorkItem that carries a Local
// mod is written over that mod's existing archive instead.
func InstallPath(modsDir string, mod RemoteMod) string {
	return filepath.Join(modsDir, sanitize(mod.Name)+".zip")
}

// ProgressFunc is called with the number of newly-read bytes as a download
// streams, so a caller can drive a progress bar. It may be nil.
type ProgressFunc func(name string, deltaBytes int64)

// Downloader drives bounded-concurrency, mirror-failover downloads.
type Downloader struct {
	Client    *http.Client
	ModsDir   string
	MirrorIDs []MirrorID
	Jobs      int
	OnProgress ProgressFunc
	Logf      func(format string, args ...any)
}

// Run attempts every item concurrently, bounded by d.Jobs (clamped to
// [1,6]), and returns a slice with one entry per item, in item order: nil
// where that item installed successfully, its error otherwise. Partial
// successes are never rolled back.
func (d *Downloader) Run(ctx context.Context, items []WorkItem) []error {
	logf := d.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}
	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}

	jobs := d.Jobs
	if jobs < 1 {
		jobs = 1
	}
	if jobs > 6 {
		jobs = 6
	}

	errs := make([]error, len(items))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(jobs)

	for i, item := range items {
		eg.Go(func() error {
			errs[i] = d.downloadOne(egCtx, client, item, logf)
			return nil
		})
	}
	_ = eg.Wait()

	return errs
}

func (d *Downloader) downloadOne(ctx context.Context, client *http.Client, item WorkItem, logf func(string, ...any)) error {
	mirrorURLs := ExpandMirrorURLs(item.Mod.URL, d.MirrorIDs)
	dest := InstallPath(d.ModsDir, item.Mod)
	if item.Local != nil {
		dest = item.Local.Path
	}

	var lastErr error
	for _, url := range mirrorURLs {
		if err := d.attemptMirror(ctx, client, url, dest, item.Mod); err != nil {
			logf("mirror %s failed for %s: %v", url, item.Mod.Name, err)
			lastErr = err
			continue
		}
		return nil
	}
	return &DownloadFailedError{Name: item.Mod.Name, Err: lastErr}
}

func (d *Downloader) attemptMirror(ctx context.Context, client *http.Client, url, dest string, mod RemoteMod) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("requesting %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".everest-download-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	removeTemp := true
	defer func() {
		_ = tmp.Close()
		if removeTemp {
			_ = os.Remove(tmpPath)
		}
	}()

	hasher := NewStreamHasher()
	var writer io.Writer = io.MultiWriter(tmp, hasher)
	if d.OnProgress != nil {
		writer = &progressWriter{w: writer, name: mod.Name, onProgress: d.OnProgress}
	}

	if _, err := io.Copy(writer, resp.Body); err != nil {
		return fmt.Errorf("streaming download: %w", err)
	}

	computed := hasher.Sum64()
	if !hashAccepted(computed, mod.Checksums) {
		return &ChecksumMismatchError{Name: mod.Name, Computed: computed, Accepted: mod.Checksums}
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if _, err := os.Stat(dest); err == nil {
		if err := os.Remove(dest); err != nil {
			return fmt.Errorf("removing previous install: %w", err)
		}
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		if copyErr := copyThenRemove(tmpPath, dest); copyErr != nil {
			return fmt.Errorf("installing %s: %w", dest, copyErr)
		}
	}
	removeTemp = false
	return nil
}

// copyThenRemove is the cross-filesystem fallback for an os.Rename that
// fails because the temp file and destination are not on the same
// filesystem. Not atomic: a crash between copy and remove leaves the temp
// file orphaned rather than losing the downloaded bytes.
func copyThenRemove(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}

type progressWriter struct {
	w          io.Writer
	name       string
	onProgress ProgressFunc
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	if n > 0 {
		p.onProgress(p.name, int64(n))
	}
	return n, err
}
