// Package diagnostics is the error reporting sink the scanner, parser,
// compiler and VM report into: every failure becomes one framed record,
// written to stderr and appended to a debug log file, carrying enough
// context (stage, location, message, suggestion, sample fix) to let a
// REPL user or CI log reader fix the problem without re-running with
// extra flags.
package diagnostics

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Stage identifies which pipeline phase produced a Record.
type Stage string

const (
	StageLexer    Stage = "lexer"
	StageParser   Stage = "parser"
	StageCompiler Stage = "compiler"
	StageVM       Stage = "vm"
)

// Record is one diagnostic: a located, staged error plus optional remediation
// hints.
type Record struct {
	Stage      Stage
	File       string
	Line       int
	Column     int
	Message    string
	Suggestion string
	Sample     string
	Source     string // the offending source line, if available
}

// Sink writes Records to stderr and appends them, framed, to a log file.
// It is safe to share across goroutines since it only performs appends.
type Sink struct {
	out     io.Writer
	logPath string
}

// New creates a Sink that writes to out (typically os.Stderr) and appends
// framed records to logPath.
func New(out io.Writer, logPath string) *Sink {
	return &Sink{out: out, logPath: logPath}
}

var suggestionTable = map[string]string{
	"undefined variable": "declare the variable with 'var' before using it",
	"stack underflow":     "this is usually an interpreter bug, not a program error",
	"division by zero":    "guard the divisor with an 'if' before dividing",
}

// sampleFor returns a short hint from suggestionTable for common,
// recognisable failure messages; Report stores it as the Record's Suggestion.
func sampleFor(message string) string {
	lower := strings.ToLower(message)
	for key, suggestion := range suggestionTable {
		if strings.Contains(lower, key) {
			return suggestion
		}
	}
	return ""
}

// Report writes r to the sink's stderr writer and appends a framed copy to
// the log file. Log append failures are themselves reported to stderr but
// never escalated, since a broken log file must not crash the pipeline it
// is observing.
func (s *Sink) Report(r Record) {
	if r.Suggestion == "" {
		r.Suggestion = sampleFor(r.Message)
	}

	fmt.Fprintf(s.out, "💥 [%s] %s:%d:%d: %s\n", r.Stage, r.File, r.Line, r.Column, r.Message)
	if r.Suggestion != "" {
		fmt.Fprintf(s.out, "   hint: %s\n", r.Suggestion)
	}

	if s.logPath == "" {
		return
	}
	if err := s.appendFramed(r); err != nil {
		fmt.Fprintf(s.out, "diagnostics: failed to write %s: %v\n", s.logPath, err)
	}
}

func (s *Sink) appendFramed(r Record) error {
	file, err := os.OpenFile(s.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	fmt.Fprintf(writer, "--- DEBUG %s ---\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(writer, "stage:      %s\n", r.Stage)
	fmt.Fprintf(writer, "location:   %s:%d:%d\n", r.File, r.Line, r.Column)
	fmt.Fprintf(writer, "message:    %s\n", r.Message)
	if r.Suggestion != "" {
		fmt.Fprintf(writer, "suggestion: %s\n", r.Suggestion)
	}
	if r.Sample != "" {
		fmt.Fprintf(writer, "sample:     %s\n", r.Sample)
	}
	if r.Source != "" {
		fmt.Fprintf(writer, "source:     %s\n", r.Source)
	}
	fmt.Fprintf(writer, "--- END ---\n\n")
	return writer.Flush()
}

// ReportError writes a Record derived from a generic error without known
// location, used for failures from stages that only return plain errors.
func (s *Sink) ReportError(stage Stage, file string, err error) {
	s.Report(Record{Stage: stage, File: file, Message: err.Error()})
}
