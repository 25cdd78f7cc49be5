// Package notify carries pipeline progress events to whoever is listening:
// the log, the terminal, or a test.
package notify

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Type classifies an event.
type Type string

const (
	TypeUpload    Type = "upload"
	TypeNormalize Type = "normalize"
	TypeIntegrate Type = "integrate"
	TypeExport    Type = "export"
	TypeSuccess   Type = "success"
	TypeError     Type = "error"
	TypeInfo      Type = "info"
)

// Event is one progress notification. Progress is a 0..100 percentage, or -1
// when the event carries none.
type Event struct {
	Type        Type      `json:"type"`
	Stage       string    `json:"stage"`
	Message     string    `json:"message"`
	Progress    int       `json:"progress"`
	DatasetName string    `json:"dataset_name,omitempty"`
	Time        time.Time `json:"time"`
}

// Notifier receives events. Implementations must not block for long; the
// pipeline calls Notify inline.
type Notifier interface {
	Notify(Event)
}

// Func adapts a function to Notifier.
type Func func(Event)

func (f Func) Notify(e Event) { f(e) }

// Nop drops every event.
type Nop struct{}

func (Nop) Notify(Event) {}

// LogNotifier writes events as structured log lines. Errors log at error
// level, everything else at info.
type LogNotifier struct {
	Log logrus.FieldLogger
}

func (n LogNotifier) Notify(e Event) {
	if n.Log == nil {
		return
	}
	fields := logrus.Fields{"type": e.Type, "stage": e.Stage}
	if e.Progress >= 0 {
		fields["progress"] = e.Progress
	}
	if e.DatasetName != "" {
		fields["dataset_name"] = e.DatasetName
	}
	entry := n.Log.WithFields(fields)
	if e.Type == TypeError {
		entry.Error(e.Message)
		return
	}
	entry.Info(e.Message)
}

// Recorder keeps every event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Notify(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// Events returns a copy of what was recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Stages lists the recorded stage names in order.
func (r *Recorder) Stages() []string {
	events := r.Events()
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Stage
	}
	return out
}

// Multi fans an event out to every notifier in order. Nil entries are skipped.
type Multi []Notifier

func (m Multi) Notify(e Event) {
	for _, n := range m {
		if n != nil {
			n.Notify(e)
		}
	}
}

func newEvent(t Type, stage, msg string, progress int, dataset string) Event {
	return Event{Type: t, Stage: stage, Message: msg, Progress: progress, DatasetName: dataset, Time: time.Now()}
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func UploadStarted(name string) Event {
	return newEvent(TypeUpload, "Upload Started", "Starting upload of "+name, -1, name)
}

func UploadComplete(name string) Event {
	return newEvent(TypeSuccess, "Upload Complete", "Successfully uploaded "+name, -1, name)
}

func NormalizationStarted(n int) Event {
	return newEvent(TypeNormalize, "Normalization Started", "Starting normalization of "+plural(n, "dataset"), 0, "")
}

// Processing reports progress through a batch; progress is the share of
// datasets already finished.
func Processing(progress int, name string) Event {
	return newEvent(TypeNormalize, "Processing", "Processing "+name, progress, name)
}

func DatasetNormalized(name string, method string) Event {
	return newEvent(TypeNormalize, "Dataset Normalized", fmt.Sprintf("%s normalized with %s", name, method), -1, name)
}

func NormalizationComplete(n int) Event {
	return newEvent(TypeSuccess, "Normalization Complete", "Successfully normalized "+plural(n, "dataset"), 100, "")
}

func IntegrationStarted(n int) Event {
	return newEvent(TypeIntegrate, "Integration Started", "Starting integration of "+plural(n, "normalized dataset"), 0, "")
}

func IntegrationComplete(records int) Event {
	return newEvent(TypeSuccess, "Integration Complete", fmt.Sprintf("Successfully created unified model with %d records", records), 100, "")
}

func ExportStarted(format string) Event {
	return newEvent(TypeExport, "Export Started", fmt.Sprintf("Starting export to %s format", strings.ToUpper(format)), -1, "")
}

func ExportComplete(file string) Event {
	return newEvent(TypeExport, "Export Complete", "Successfully exported data to "+file, -1, "")
}

func Error(stage string, err error, dataset string) Event {
	return newEvent(TypeError, stage, err.Error(), -1, dataset)
}

func Info(stage, msg string) Event {
	return newEvent(TypeInfo, stage, msg, -1, "")
}
