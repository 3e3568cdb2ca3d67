package compiler

// Descriptor collects the runtime metadata of one render node. Several
// directives on the same node contribute to it additively.
type Descriptor struct {
	listeners  []listenerGroup
	dom        []entry
	directives []entry
}

type listenerGroup struct {
	event    string
	handlers []string
}

type entry struct {
	name string
	code string
}

func newDescriptor() *Descriptor {
	return &Descriptor{}
}

// AddEventListener appends handler to the listeners of event. Handlers for
// the same event accumulate in registration order.
func (d *Descriptor) AddEventListener(event, handler string) {
	for i := range d.listeners {
		if d.listeners[i].event == event {
			d.listeners[i].handlers = append(d.listeners[i].handlers, handler)
			return
		}
	}
	d.listeners = append(d.listeners, listenerGroup{event: event, handlers: []string{handler}})
}

// SetDomProperty sets the code assigned to the DOM property name on each
// render. A later setter for the same property replaces the earlier one.
func (d *Descriptor) SetDomProperty(name, code string) {
	d.dom = set(d.dom, name, code)
}

// AddDirective passes a runtime directive's expression through.
func (d *Descriptor) AddDirective(name, code string) {
	d.directives = set(d.directives, name, code)
}

// Events returns the event types with listeners, in first-registration order
func (d *Descriptor) Events() []string {
	events := make([]string, len(d.listeners))
	for i, g := range d.listeners {
		events[i] = g.event
	}
	return events
}

// EventListeners returns the handlers registered for event
func (d *Descriptor) EventListeners(event string) []string {
	for _, g := range d.listeners {
		if g.event == event {
			return g.handlers
		}
	}
	return nil
}

// DomProperties returns the names of properties with setters, in order
func (d *Descriptor) DomProperties() []string {
	return names(d.dom)
}

// DomProperty returns the setter code for name
func (d *Descriptor) DomProperty(name string) (string, bool) {
	return lookup(d.dom, name)
}

// Directives returns the runtime directive names, in order
func (d *Descriptor) Directives() []string {
	return names(d.directives)
}

// Directive returns the expression passed to the runtime directive name
func (d *Descriptor) Directive(name string) (string, bool) {
	return lookup(d.directives, name)
}

func set(entries []entry, name, code string) []entry {
	for i := range entries {
		if entries[i].name == name {
			entries[i].code = code
			return entries
		}
	}
	return append(entries, entry{name: name, code: code})
}

func lookup(entries []entry, name string) (string, bool) {
	for _, e := range entries {
		if e.name == name {
			return e.code, true
		}
	}
	return "", false
}

func names(entries []entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.name
	}
	return out
}
