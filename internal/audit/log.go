// Package audit writes the administrative audit trail. Every mutation of the
// registries, the policy, or the credential store gets one entry naming the
// event, the actor, and the affected resources.
package audit

import (
	"errors"
	"strings"
	"time"

	"ontoserve.org/internal/obs"
	"ontoserve.org/internal/registry"
)

// Entry is one audit record before enrichment.
type Entry struct {
	Event     string
	Actor     registry.UserID
	RequestID string
	Fields    map[string]any
}

// Log writes the entry to the structured log. The event name is mandatory;
// actor and request id are recorded when known.
func Log(e Entry) error {
	event := strings.TrimSpace(e.Event)
	if event == "" {
		return errors.New("audit: event name is required")
	}
	entry := map[string]any{
		"ts":    time.Now().UTC().Format(time.RFC3339Nano),
		"type":  "audit",
		"event": event,
	}
	if e.Actor != "" {
		entry["actor"] = e.Actor.String()
	}
	if e.RequestID != "" {
		entry["request_id"] = e.RequestID
	}
	fields := make(map[string]any, len(e.Fields))
	for k, v := range e.Fields {
		fields[k] = v
	}
	entry["fields"] = fields
	obs.LogEvent(entry)
	return nil
}
