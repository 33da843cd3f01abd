package mylog

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/MarcGrol/statueshop/lib/mycontext"
)

func init() {
	if os.Getenv("GOOGLE_CLOUD_PROJECT") != "" {
		New = newGloudLogger
		// Cloud Logging parses each line as JSON, so no prefix or timestamp may precede it.
		log.SetFlags(0)
	}
}

// cloudSeverities maps our severities onto the LogSeverity names Cloud Logging accepts.
var cloudSeverities = map[Severity]string{
	SeverityDebug: "DEBUG",
	SeverityInfo:  "INFO",
	SeverityWarn:  "WARNING",
	SeverityError: "ERROR",
}

type structuredLogger struct {
	componentName string
}

func newGloudLogger(componentName string) Logger {
	return structuredLogger{
		componentName: componentName,
	}
}

func (l structuredLogger) Log(ctx context.Context, traceLabel string, severity Severity, format string, a ...any) {
	log.Println(l.entry(ctx, traceLabel, severity, fmt.Sprintf(format, a...)).String())
}

func (l structuredLogger) entry(ctx context.Context, traceLabel string, severity Severity, msg string) entry {
	e := entry{
		Component: l.componentName,
		Trace:     mycontext.TraceFromContext(ctx),
		Severity:  cloudSeverities[severity],
		Message:   msg,
	}
	if e.Severity == "" {
		e.Severity = "DEFAULT"
	}
	if traceLabel != "" {
		e.Labels = map[string]string{"aggregate": traceLabel}
	}
	return e
}

type entry struct {
	Component string            `json:"component,omitempty"`
	Labels    map[string]string `json:"logging.googleapis.com/labels,omitempty"`
	Trace     string            `json:"logging.googleapis.com/trace,omitempty"`
	Severity  string            `json:"severity"`
	Message   string            `json:"message"`
}

func (e entry) String() string {
	out, err := json.Marshal(e)
	if err != nil {
		log.Printf("error marshalling log record: %v", err)
	}

	return string(out)
}
