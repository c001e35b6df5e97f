package compressor

import (
	"strings"
	"testing"
	"time"

	"github.com/alde/tinypdf/pkg/settings"
)

func TestSavings(t *testing.T) {
	tests := []struct {
		name       string
		original   int
		compressed int
		savings    int
		text       string
	}{
		{"halved", 1000, 500, 50, "50%"},
		{"rounded", 3000, 1999, 33, "33%"},
		{"unchanged", 1000, 1000, 0, "+0% (larger)"},
		{"grew", 1000, 1250, -25, "+25% (larger)"},
		{"empty original", 0, 10, 0, "+0% (larger)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &RunResult{OriginalSize: tt.original, CompressedSize: tt.compressed}
			if got := r.Savings(); got != tt.savings {
				t.Errorf("Savings() = %d, want %d", got, tt.savings)
			}
			if got := r.SavingsText(); got != tt.text {
				t.Errorf("SavingsText() = %q, want %q", got, tt.text)
			}
		})
	}
}

func TestSummary(t *testing.T) {
	r := &RunResult{
		PageCount:      3,
		OriginalSize:   2_000_000,
		CompressedSize: 500_000,
		Settings:       settings.Settings{Resolution: 120, Quality: 0.75},
		Duration:       1500 * time.Millisecond,
	}

	summary := r.Summary("/tmp/in/report.pdf", "/tmp/in/report_compressed.pdf")

	for _, want := range []string{
		"report.pdf (2.0 MB)",
		"report_compressed.pdf (500 kB)",
		"Savings:       75%",
		"Pages:         3",
		"120 DPI, 75% quality",
		"1.5s",
	} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q:\n%s", want, summary)
		}
	}
}

func TestOutputName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"report.pdf", "report_compressed.pdf"},
		{"/data/Scan.PDF", "/data/Scan_compressed.pdf"},
		{"notes", "notes_compressed.pdf"},
		{"archive.v2.pdf", "archive.v2_compressed.pdf"},
	}

	for _, tt := range tests {
		if got := OutputName(tt.input); got != tt.want {
			t.Errorf("OutputName(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestValidateHeader(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr bool
	}{
		{"empty", nil, true},
		{"plain pdf", []byte("%PDF-1.4\n1 0 obj"), false},
		{"leading junk", append([]byte("\x00\x00junk"), "%PDF-1.7"...), false},
		{"not a pdf", []byte("PK\x03\x04 zip file"), true},
		{"header too late", append(make([]byte, 2048), "%PDF-1.7"...), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateHeader(tt.data)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateHeader() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRepairTrailer(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"clean", "%PDF-1.4\n%%EOF\n", "%PDF-1.4\n%%EOF\n"},
		{"garbage after eof", "%PDF-1.4\n%%EOF\nxxxx", "%PDF-1.4\n%%EOF\n"},
		{"crlf kept", "%PDF-1.4\n%%EOF\r\n\r\n", "%PDF-1.4\n%%EOF\r\n"},
		{"incremental update", "%PDF-1.4\n%%EOF\nupdate\n%%EOF", "%PDF-1.4\n%%EOF\nupdate\n%%EOF"},
		{"no marker", "%PDF-1.4\ntruncated", "%PDF-1.4\ntruncated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(RepairTrailer([]byte(tt.data))); got != tt.want {
				t.Errorf("RepairTrailer() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorMessage(t *testing.T) {
	err := stageError(StageRender, 4, ErrRenderFailure, nil)
	if got := err.Error(); got != "page could not be rendered (render, page 4)" {
		t.Errorf("Error() = %q", got)
	}

	err = stageError(StageLoad, 0, ErrCorruptDocument, errTest)
	if got := err.Error(); got != "corrupt document (load): boom" {
		t.Errorf("Error() = %q", got)
	}
}

type testError string

func (e testError) Error() string { return string(e) }

const errTest = testError("boom")
