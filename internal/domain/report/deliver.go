package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/rs/zerolog"

	"github.com/mcu/report/internal/platform/storage"
)

var (
	// ErrRenderArtifactMissing means the render stage reported success but
	// the PDF is not on disk.
	ErrRenderArtifactMissing = errors.New("rendered report file is missing")

	// ErrDelivery wraps upload or status-persist failures.
	ErrDelivery = errors.New("report delivery failed")
)

// StatusWriter persists the delivered report URL onto the patient's analysis
// record.
type StatusWriter interface {
	MarkGenerated(ctx context.Context, appointmentPatientID, reportURL string, issuedAt time.Time) error
}

// Deliverer uploads the rendered PDF and records the outcome. Cleanup of
// temporary assets runs after every delivery attempt, successful or not.
type Deliverer struct {
	store  storage.ObjectStore
	status StatusWriter
	prefix string
	logger zerolog.Logger
}

func NewDeliverer(store storage.ObjectStore, status StatusWriter, prefix string, logger zerolog.Logger) *Deliverer {
	return &Deliverer{
		store:  store,
		status: status,
		prefix: prefix,
		logger: logger.With().Str("component", "deliver").Logger(),
	}
}

// Deliver uploads the rendered file and persists the generated status. The
// temporary-asset list is cleaned unconditionally before returning.
func (d *Deliverer) Deliver(ctx context.Context, st *State) error {
	defer d.Cleanup(st)

	if _, err := os.Stat(st.RenderedPath); err != nil {
		return fmt.Errorf("%w: %s", ErrRenderArtifactMissing, st.RenderedPath)
	}

	key := path.Join(d.prefix, st.Filename+".pdf")
	url, err := d.store.Upload(ctx, st.RenderedPath, key)
	if err != nil {
		return fmt.Errorf("%w: upload: %v", ErrDelivery, err)
	}

	if err := d.status.MarkGenerated(ctx, st.Record.PatientID, url, time.Now()); err != nil {
		return fmt.Errorf("%w: persist status: %v", ErrDelivery, err)
	}

	st.DeliveredURL = url
	return nil
}

// Cleanup removes every registered temporary file. A missing file is logged
// and skipped; cleanup never fails the run.
func (d *Deliverer) Cleanup(st *State) {
	for _, p := range st.TempFiles() {
		if err := os.Remove(p); err != nil {
			if os.IsNotExist(err) {
				d.logger.Debug().Str("path", p).Msg("temp file already gone")
				continue
			}
			d.logger.Warn().Err(err).Str("path", p).Msg("failed to remove temp file")
		}
	}
}
