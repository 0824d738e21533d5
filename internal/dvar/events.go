package dvar

import "github.com/zjrosen/dvars/internal/pubsub"

// ChangeEvent is published on the registry broker.
type ChangeEvent struct {
	Name   string
	Type   Type
	Value  string
	Flags  Flags
	Source Source
}

// notice is an event computed under a variable lock and published after it
// is released.
type notice struct {
	kind  pubsub.EventType
	event ChangeEvent
}

func (v *Variable) noticeLocked(kind pubsub.EventType, value Value, source Source) *notice {
	return &notice{
		kind: kind,
		event: ChangeEvent{
			Name:   v.name,
			Type:   v.typ,
			Value:  ValueToString(value, v.domain),
			Flags:  v.flags,
			Source: source,
		},
	}
}

func (r *Registry) publish(n *notice) {
	if n == nil {
		return
	}
	r.events.Publish(n.kind, n.event)
}
