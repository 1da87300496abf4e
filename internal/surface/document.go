package surface

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Element is a node of the display surface addressed by its id.
type Element struct {
	ID      string            `json:"id"`
	Classes []string          `json:"classes,omitempty"`
	Text    string            `json:"text,omitempty"`
	Title   string            `json:"title,omitempty"`
	Data    map[string]string `json:"data,omitempty"`
}

// ClassName joins the class list like the DOM className property.
func (e Element) ClassName() string {
	return strings.Join(e.Classes, " ")
}

// SetClassName replaces the class list with the whitespace separated names.
func (e *Element) SetClassName(name string) {
	e.Classes = strings.Fields(name)
}

// HasClass reports whether the class is present.
func (e Element) HasClass(name string) bool {
	for _, c := range e.Classes {
		if c == name {
			return true
		}
	}
	return false
}

// AddClass adds a class if missing.
func (e *Element) AddClass(name string) {
	if !e.HasClass(name) {
		e.Classes = append(e.Classes, name)
	}
}

// RemoveClass drops every occurrence of a class.
func (e *Element) RemoveClass(name string) {
	kept := e.Classes[:0]
	for _, c := range e.Classes {
		if c != name {
			kept = append(kept, c)
		}
	}
	e.Classes = kept
}

// SetData stores a data attribute.
func (e *Element) SetData(key, value string) {
	if e.Data == nil {
		e.Data = make(map[string]string)
	}
	e.Data[key] = value
}

func (e Element) clone() Element {
	out := e
	out.Classes = append([]string(nil), e.Classes...)
	if e.Data != nil {
		out.Data = make(map[string]string, len(e.Data))
		for k, v := range e.Data {
			out.Data[k] = v
		}
	}
	return out
}

// Document is a flat, id-addressed element store. It is safe for concurrent use.
type Document struct {
	mu       sync.RWMutex
	elements map[string]*Element
	order    []string
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{elements: make(map[string]*Element)}
}

// Append inserts an element. Ids must be unique.
func (d *Document) Append(el Element) error {
	if strings.TrimSpace(el.ID) == "" {
		return fmt.Errorf("element id must not be empty")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.elements[el.ID]; exists {
		return fmt.Errorf("duplicate element id %q", el.ID)
	}
	copied := el.clone()
	d.elements[el.ID] = &copied
	d.order = append(d.order, el.ID)
	return nil
}

// Remove deletes an element. Unknown ids are ignored.
func (d *Document) Remove(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.elements[id]; !ok {
		return
	}
	delete(d.elements, id)
	for i, existing := range d.order {
		if existing == id {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
}

// Has reports whether id exists.
func (d *Document) Has(id string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.elements[id]
	return ok
}

// Update runs fn against the element with the given id while holding the
// write lock. It returns false if the element does not exist.
func (d *Document) Update(id string, fn func(*Element)) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	el, ok := d.elements[id]
	if !ok {
		return false
	}
	fn(el)
	return true
}

// Element returns a copy of the element.
func (d *Document) Element(id string) (Element, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	el, ok := d.elements[id]
	if !ok {
		return Element{}, false
	}
	return el.clone(), true
}

// Snapshot copies every element in insertion order.
func (d *Document) Snapshot() []Element {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Element, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.elements[id].clone())
	}
	return out
}

// IDs returns the sorted element ids.
func (d *Document) IDs() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ids := make([]string, 0, len(d.elements))
	for id := range d.elements {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
