package cmd

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/dreamdenizen/everest-updater/internal/everest"

	"github.com/dustin/go-humanize"
	"github.com/pterm/pterm"
)

// newByteProgressReporter returns an everest.ProgressFunc that accumulates
// total downloaded bytes across every concurrent item and a spinner whose
// text it keeps current in humanize.Bytes form.
func newByteProgressReporter(spinner *pterm.SpinnerPrinter) everest.ProgressFunc {
	var total atomic.Int64
	return func(name string, delta int64) {
		newTotal := total.Add(delta)
		spinner.UpdateText(fmt.Sprintf("Downloading %s (%s total)", name, humanize.Bytes(uint64(newTotal))))
	}
}

// reportDownloadErrors prints one warning line per failed download and
// returns a single compound error iff at least one item failed.
func reportDownloadErrors(errs []error) error {
	var failures []error
	for _, err := range errs {
		if err != nil {
			failures = append(failures, err)
		}
	}
	if len(failures) == 0 {
		pterm.Success.Println("All downloads completed successfully.")
		return nil
	}
	for _, err := range failures {
		pterm.Warning.Println(err)
	}
	return fmt.Errorf("%d of %d download(s) failed: %w", len(failures), len(errs), errors.Join(failures...))
}
