// Package progress implements the engine's transfer-progress callback
// fabric: a single installable callback, invoked synchronously on the
// goroutine that reports the progress, with per-task throttling so a large transfer doesn't
// flood the host with near-duplicate updates.
package progress

import "github.com/sirupsen/logrus"

// Kind distinguishes an upload task from a download task.
type Kind string

const (
	Upload   Kind = "upload"
	Download Kind = "download"
)

// Progress is one callback invocation's payload.
type Progress struct {
	GraphUUID string
	File      string
	Type      Kind
	Progress  uint64
	Total     uint64
	Percent   int
}

// Callback receives Progress events. It must not block for long: it
// runs on the transfer goroutine.
type Callback func(Progress)

// Fabric holds the single installed callback for an Engine. It
// replaces the original client's process-wide callback global (§4.5,
// §9): each Engine owns one Fabric instance.
type Fabric struct {
	callback Callback
	logger   *logrus.Logger
}

// New returns a Fabric with no callback installed.
func New(logger *logrus.Logger) *Fabric {
	return &Fabric{logger: logger}
}

// SetCallback installs fn as the fabric's sole callback, replacing
// any previous one. Passing nil uninstalls it.
func (f *Fabric) SetCallback(fn Callback) {
	f.callback = fn
}

// emit invokes the installed callback, if any. A missing callback is
// a warning, not an error, per §4.5.
func (f *Fabric) emit(p Progress) {
	if f.callback == nil {
		if f.logger != nil {
			f.logger.WithFields(logrus.Fields{
				"graph_uuid": p.GraphUUID,
				"file":       p.File,
			}).Warn("progress fabric has no callback installed")
		}
		return
	}
	f.callback(p)
}

// Tracker holds the per-task throttle state for one file transfer. A
// fresh Tracker must be created per task: sharing one across
// concurrent tasks would race on lastPercent, which is exactly the
// "mutable static" bug spec.md §9 calls out.
type Tracker struct {
	fabric      *Fabric
	graphUUID   string
	file        string
	kind        Kind
	total       uint64
	lastPercent int
}

// NewTracker starts a throttled progress tracker for one file. Pass 0
// for total when the size isn't known yet (e.g. a download that hasn't
// been probed); call Rebase once the real size is known.
func (f *Fabric) NewTracker(graphUUID, file string, kind Kind, total uint64) *Tracker {
	return &Tracker{fabric: f, graphUUID: graphUUID, file: file, kind: kind, total: total, lastPercent: -1}
}

// Rebase sets the tracker's total after construction, for transfers
// (downloads) whose size is only known after a separate probe request.
// It does not itself emit a progress event.
func (t *Tracker) Rebase(total uint64) {
	t.total = total
}

// Update reports that `done` bytes have now been transferred, firing
// the callback only if the integer percent has moved by at least 10
// since the last emission, or this call represents the final byte.
func (t *Tracker) Update(done uint64) {
	percent := 0
	if t.total > 0 {
		percent = int(done * 100 / t.total)
	}
	final := t.total > 0 && done >= t.total
	if !final && t.lastPercent >= 0 && percent-t.lastPercent < 10 {
		return
	}
	t.lastPercent = percent
	t.fabric.emit(Progress{
		GraphUUID: t.graphUUID,
		File:      t.file,
		Type:      t.kind,
		Progress:  done,
		Total:     t.total,
		Percent:   percent,
	})
}
