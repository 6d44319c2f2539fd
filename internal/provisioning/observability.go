package provisioning

import (
	"fmt"
	"io"
	"log"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Observer receives the progress of a provisioning run.
type Observer interface {
	Logger

	// Event emits a structured event.
	Event(event Event)

	// Progress reports that current of total steps of phase are done.
	Progress(phase string, current, total int)

	// WithFields returns an Observer that adds fields to every event.
	WithFields(fields map[string]string) Observer
}

// Event is one structured provisioning event.
type Event struct {
	Type      EventType
	Phase     string
	Message   string
	Resource  string
	Timestamp time.Time
	Fields    map[string]string
}

// EventType classifies events.
type EventType string

// Phase lifecycle.
const (
	EventPhaseStarted   EventType = "phase.started"
	EventPhaseCompleted EventType = "phase.completed"
	EventPhaseFailed    EventType = "phase.failed"
)

// Cloud resources. Nothing is deleted outside destroy, which removes
// resources by label in one call.
const (
	EventResourceCreating EventType = "resource.creating"
	EventResourceCreated  EventType = "resource.created"
	EventResourceExists   EventType = "resource.exists"
)

// Load balancer target pools.
const (
	EventTargetAdded   EventType = "target.added"
	EventTargetRemoved EventType = "target.removed"
)

// Pre-flight validation and step counting.
const (
	EventValidationWarning EventType = "validation.warning"
	EventValidationError   EventType = "validation.error"
	EventProgress          EventType = "progress"
)

// ConsoleObserver writes events as single log lines.
type ConsoleObserver struct {
	logger *log.Logger
	fields map[string]string
}

// NewConsoleObserver creates an observer writing to the standard logger.
func NewConsoleObserver() *ConsoleObserver {
	return &ConsoleObserver{logger: log.Default()}
}

// NewConsoleObserverTo creates a console observer writing to w.
func NewConsoleObserverTo(w io.Writer) *ConsoleObserver {
	return &ConsoleObserver{logger: log.New(w, "", log.LstdFlags)}
}

// Printf implements Logger.
func (o *ConsoleObserver) Printf(format string, v ...interface{}) {
	o.logger.Printf(format, v...)
}

// Event implements Observer. Fields of the event win over fields added
// with WithFields.
func (o *ConsoleObserver) Event(event Event) {
	fields := maps.Clone(o.fields)
	if fields == nil {
		fields = make(map[string]string, len(event.Fields))
	}
	maps.Copy(fields, event.Fields)
	event.Fields = fields
	o.logger.Print(FormatEvent(event))
}

// Progress implements Observer.
func (o *ConsoleObserver) Progress(phase string, current, total int) {
	o.Event(progressEvent(phase, current, total))
}

// WithFields implements Observer.
func (o *ConsoleObserver) WithFields(fields map[string]string) Observer {
	merged := maps.Clone(o.fields)
	if merged == nil {
		merged = make(map[string]string, len(fields))
	}
	maps.Copy(merged, fields)
	return &ConsoleObserver{logger: o.logger, fields: merged}
}

// FormatEvent renders an event as
//
//	[phase] message (resource) key=value ...
//
// with the event type as the first field.
func FormatEvent(event Event) string {
	var b strings.Builder
	if event.Phase != "" {
		fmt.Fprintf(&b, "[%s] ", event.Phase)
	}
	b.WriteString(event.Message)
	if event.Resource != "" {
		fmt.Fprintf(&b, " (%s)", event.Resource)
	}
	fmt.Fprintf(&b, " event=%s", event.Type)
	for _, k := range slices.Sorted(maps.Keys(event.Fields)) {
		fmt.Fprintf(&b, " %s=%s", k, quoteField(event.Fields[k]))
	}
	return b.String()
}

func quoteField(v string) string {
	if v == "" || strings.ContainsAny(v, " \t\"=") {
		return strconv.Quote(v)
	}
	return v
}

func progressEvent(phase string, current, total int) Event {
	msg := fmt.Sprintf("%d/%d", current, total)
	if total > 0 {
		msg = fmt.Sprintf("%d/%d (%d%%)", current, total, current*100/total)
	}
	return Event{
		Type:    EventProgress,
		Phase:   phase,
		Message: msg,
		Fields: map[string]string{
			"current": strconv.Itoa(current),
			"total":   strconv.Itoa(total),
		},
	}
}

// LogPhaseStart logs a phase start event.
func LogPhaseStart(observer Observer, phase string) {
	observer.Event(Event{Type: EventPhaseStarted, Phase: phase, Message: "starting"})
}

// LogPhaseComplete logs a phase completion event.
func LogPhaseComplete(observer Observer, phase string, duration time.Duration) {
	observer.Event(Event{
		Type:    EventPhaseCompleted,
		Phase:   phase,
		Message: fmt.Sprintf("completed in %v", duration.Round(time.Millisecond)),
	})
}

// LogPhaseFailed logs a phase failure event.
func LogPhaseFailed(observer Observer, phase string, err error) {
	observer.Event(Event{Type: EventPhaseFailed, Phase: phase, Message: fmt.Sprintf("failed: %v", err)})
}

func logResource(observer Observer, t EventType, phase, kind, name, id, msg string) {
	fields := map[string]string{"kind": kind}
	if id != "" {
		fields["id"] = id
	}
	observer.Event(Event{Type: t, Phase: phase, Resource: name, Message: msg, Fields: fields})
}

// LogResourceCreating logs that a resource of kind is about to be created.
func LogResourceCreating(observer Observer, phase, kind, name string) {
	logResource(observer, EventResourceCreating, phase, kind, name, "", "creating "+kind)
}

// LogResourceCreated logs a created resource.
func LogResourceCreated(observer Observer, phase, kind, name, id string) {
	logResource(observer, EventResourceCreated, phase, kind, name, id, kind+" created")
}

// LogResourceExists logs a resource that was reused.
func LogResourceExists(observer Observer, phase, kind, name, id string) {
	logResource(observer, EventResourceExists, phase, kind, name, id, kind+" already exists")
}

// LogTargetChange logs a server added to or removed from the target pool
// of load balancer pool.
func LogTargetChange(observer Observer, phase, pool, nodeName string, serverID int64, added bool) {
	t, verb := EventTargetRemoved, "removed"
	if added {
		t, verb = EventTargetAdded, "added"
	}
	target := nodeName
	if target == "" {
		target = "server " + strconv.FormatInt(serverID, 10)
	}
	observer.Event(Event{
		Type:     t,
		Phase:    phase,
		Resource: pool,
		Message:  verb + " " + target,
		Fields:   map[string]string{"server_id": strconv.FormatInt(serverID, 10)},
	})
}
