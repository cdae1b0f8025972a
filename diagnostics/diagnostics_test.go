package diagnostics

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReportWritesToStderrWriter(t *testing.T) {
	var buf bytes.Buffer
	sink := New(&buf, "")

	sink.Report(Record{Stage: StageParser, File: "main.lum", Line: 3, Column: 5, Message: "unexpected token"})

	got := buf.String()
	if !strings.Contains(got, "parser") || !strings.Contains(got, "main.lum:3:5") {
		t.Errorf("Report() output = %q, missing stage/location", got)
	}
}

func TestReportAppendsFramedRecordToLogFile(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "debug_log.log")
	var buf bytes.Buffer
	sink := New(&buf, logPath)

	sink.Report(Record{Stage: StageVM, File: "main.lum", Line: 1, Column: 1, Message: "division by zero"})
	sink.Report(Record{Stage: StageVM, File: "main.lum", Line: 2, Column: 1, Message: "division by zero"})

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	content := string(data)
	if strings.Count(content, "--- DEBUG") != 2 {
		t.Errorf("expected 2 framed records, got:\n%s", content)
	}
	if !strings.Contains(content, "--- END ---") {
		t.Error("expected END frame marker")
	}
	if !strings.Contains(content, "guard the divisor") {
		t.Error("expected a sample suggestion for 'division by zero'")
	}
}

func TestReportErrorWrapsPlainError(t *testing.T) {
	var buf bytes.Buffer
	sink := New(&buf, "")

	sink.ReportError(StageLexer, "main.lum", errUnterminatedString{})

	if !strings.Contains(buf.String(), "unterminated string") {
		t.Errorf("ReportError() output = %q", buf.String())
	}
}

type errUnterminatedString struct{}

func (errUnterminatedString) Error() string { return "unterminated string" }
