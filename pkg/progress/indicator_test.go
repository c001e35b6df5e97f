package progress

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBarPlainOutput(t *testing.T) {
	var buf bytes.Buffer
	bar := NewBar(&buf, "report.pdf")

	for page := 1; page <= 3; page++ {
		bar.Update(page, 3)
	}
	bar.Finish("done")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{
		"report.pdf: page 1 of 3",
		"report.pdf: page 2 of 3",
		"report.pdf: page 3 of 3",
		"report.pdf: done",
	}, lines)
}

func TestBarIgnoresEmptyTotal(t *testing.T) {
	var buf bytes.Buffer
	NewBar(&buf, "x").Update(0, 0)
	assert.Empty(t, buf.String())
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))
}

func TestTrackerStats(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewTracker(&buf, 3)

	tracker.JobStarted(0, "a.pdf")
	tracker.JobStarted(1, "b.pdf")
	tracker.JobFinished(0, "a.pdf", nil)
	tracker.JobFinished(1, "b.pdf", errors.New("corrupt"))
	tracker.AddSaved(1_500_000)

	stats := tracker.Stats()
	assert.Equal(t, 3, stats.TotalJobs)
	assert.Equal(t, 2, stats.CompletedJobs)
	assert.Equal(t, 1, stats.FailedJobs)
	assert.Equal(t, 2, stats.WorkerCount)
	assert.Equal(t, int64(1_500_000), stats.BytesSaved)
	assert.InDelta(t, 66.7, stats.Percentage, 0.1)

	assert.Contains(t, buf.String(), "[1/3] a.pdf ok")
	assert.Contains(t, buf.String(), "[2/3] b.pdf failed")

	tracker.Finish()
	assert.Contains(t, buf.String(), "Completed 2 files")
	assert.Contains(t, buf.String(), "(1 failed), saved 1.5 MB")
}
