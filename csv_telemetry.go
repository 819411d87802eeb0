package tsinfer

import (
	"bytes"
	"fmt"
	"os"
)

// CSVTelemetryLogger writes one row per epoch of orchestrator telemetry,
// grounded on the teacher's encoding/csv-based logger
// (_examples/kentwait-contagion/csv_logger.go: WriteGenotypes et al., same
// open-append-write shape).
type CSVTelemetryLogger struct {
	path string
}

// NewCSVTelemetryLogger creates a logger writing to path, with a header row
// written immediately if the file does not already exist.
func NewCSVTelemetryLogger(path string) (*CSVTelemetryLogger, error) {
	l := &CSVTelemetryLogger{path: path}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := appendToFile(path, []byte("epoch,epoch_time,num_ancestors,num_edges,mean_traceback_size\n")); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// WriteEpoch appends one telemetry row for a completed match_ancestors epoch.
func (l *CSVTelemetryLogger) WriteEpoch(epoch int, epochTime uint32, numAncestors, numEdges int, meanTracebackSize float64) error {
	const template = "%d,%d,%d,%d,%f\n"
	var b bytes.Buffer
	b.WriteString(fmt.Sprintf(template, epoch, epochTime, numAncestors, numEdges, meanTracebackSize))
	return appendToFile(l.path, b.Bytes())
}

// appendToFile opens path for append (creating it if needed) and writes buf,
// the same idiom as the teacher's utils.go:AppendToFile.
func appendToFile(path string, buf []byte) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(buf)
	return err
}
