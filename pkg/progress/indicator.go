package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/term"
)

// IsTerminal reports whether w is an interactive terminal
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Bar is a single line page progress bar. On a terminal it is redrawn in
// place, elsewhere one line is printed per update.
type Bar struct {
	mu          sync.Mutex
	out         io.Writer
	label       string
	width       int
	total       int
	current     int
	interactive bool
}

// NewBar creates a progress bar writing to out
func NewBar(out io.Writer, label string) *Bar {
	return &Bar{
		out:         out,
		label:       label,
		width:       30,
		interactive: IsTerminal(out),
	}
}

// Update records that page current of total is being processed. Its
// signature matches the compressor progress callback.
func (b *Bar) Update(current, total int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.current = current
	b.total = total
	b.display()
}

func (b *Bar) display() {
	if b.total <= 0 {
		return
	}

	if !b.interactive {
		fmt.Fprintf(b.out, "%s: page %d of %d\n", b.label, b.current, b.total)
		return
	}

	percentage := float64(b.current) / float64(b.total) * 100
	filled := b.width * b.current / b.total

	bar := strings.Repeat("█", filled) + strings.Repeat("░", b.width-filled)
	fmt.Fprintf(b.out, "\r%s [%s] %d/%d (%.0f%%)", b.label, bar, b.current, b.total, percentage)
}

// Finish completes the bar with a trailing status word
func (b *Bar) Finish(status string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.interactive {
		fmt.Fprintf(b.out, "\r\033[2K%s %s\n", b.label, status)
		return
	}
	fmt.Fprintf(b.out, "%s: %s\n", b.label, status)
}

// WorkerState tracks progress for individual workers
type WorkerState struct {
	WorkerID      int
	JobsCompleted int
	CurrentJob    string
	LastUpdate    time.Time
}

// Tracker manages progress of a batch of files across multiple workers
type Tracker struct {
	mu            sync.Mutex
	out           io.Writer
	workers       map[int]*WorkerState
	totalJobs     int
	completedJobs int
	failedJobs    int
	bytesSaved    int64
	startTime     time.Time
	lastDisplay   time.Time
	displayRate   time.Duration
	interactive   bool
}

// NewTracker creates a batch tracker
func NewTracker(out io.Writer, totalJobs int) *Tracker {
	return &Tracker{
		out:         out,
		workers:     make(map[int]*WorkerState),
		totalJobs:   totalJobs,
		startTime:   time.Now(),
		displayRate: 500 * time.Millisecond,
		interactive: IsTerminal(out),
	}
}

func (t *Tracker) worker(id int) *WorkerState {
	w := t.workers[id]
	if w == nil {
		w = &WorkerState{WorkerID: id}
		t.workers[id] = w
	}
	return w
}

// JobStarted records that a worker picked up a job
func (t *Tracker) JobStarted(workerID int, jobID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	w := t.worker(workerID)
	w.CurrentJob = jobID
	w.LastUpdate = time.Now()

	if t.interactive && time.Since(t.lastDisplay) >= t.displayRate {
		t.display()
		t.lastDisplay = time.Now()
	}
}

// JobFinished records the outcome of a job
func (t *Tracker) JobFinished(workerID int, jobID string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	w := t.worker(workerID)
	w.CurrentJob = ""
	w.LastUpdate = time.Now()
	w.JobsCompleted++
	t.completedJobs++
	if err != nil {
		t.failedJobs++
	}

	if !t.interactive {
		status := "ok"
		if err != nil {
			status = "failed"
		}
		fmt.Fprintf(t.out, "[%d/%d] %s %s\n", t.completedJobs, t.totalJobs, jobID, status)
		return
	}

	t.display()
	t.lastDisplay = time.Now()
}

// AddSaved accumulates bytes saved by finished jobs
func (t *Tracker) AddSaved(bytes int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.bytesSaved += bytes
}

func (t *Tracker) display() {
	percentage := 0.0
	if t.totalJobs > 0 {
		percentage = float64(t.completedJobs) / float64(t.totalJobs) * 100
	}

	var eta time.Duration
	elapsed := time.Since(t.startTime)
	if t.completedJobs > 0 {
		eta = elapsed / time.Duration(t.completedJobs) * time.Duration(t.totalJobs-t.completedJobs)
	}

	fmt.Fprintf(t.out, "\r\033[2KProgress: %d/%d (%.1f%%) | Elapsed: %v | ETA: %v",
		t.completedJobs, t.totalJobs, percentage,
		elapsed.Round(time.Second), eta.Round(time.Second))
}

// Finish prints final batch statistics
func (t *Tracker) Finish() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.interactive {
		fmt.Fprint(t.out, "\r\033[2K")
	}

	elapsed := time.Since(t.startTime)
	fmt.Fprintf(t.out, "Completed %d files in %v (%d failed)",
		t.completedJobs, elapsed.Round(time.Millisecond), t.failedJobs)
	if t.bytesSaved > 0 {
		fmt.Fprintf(t.out, ", saved %s", humanize.Bytes(uint64(t.bytesSaved)))
	}
	fmt.Fprintln(t.out)
}

// Stats returns current progress statistics
func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	elapsed := time.Since(t.startTime)
	rate := 0.0
	if elapsed.Seconds() > 0 {
		rate = float64(t.completedJobs) / elapsed.Seconds()
	}
	percentage := 0.0
	if t.totalJobs > 0 {
		percentage = float64(t.completedJobs) / float64(t.totalJobs) * 100
	}

	return Stats{
		TotalJobs:     t.totalJobs,
		CompletedJobs: t.completedJobs,
		FailedJobs:    t.failedJobs,
		WorkerCount:   len(t.workers),
		BytesSaved:    t.bytesSaved,
		Elapsed:       elapsed,
		Rate:          rate,
		Percentage:    percentage,
	}
}

// Stats contains progress statistics
type Stats struct {
	TotalJobs     int
	CompletedJobs int
	FailedJobs    int
	WorkerCount   int
	BytesSaved    int64
	Elapsed       time.Duration
	Rate          float64 // jobs per second
	Percentage    float64
}
