package render

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/timzifer/crowdmon/internal/crowd"
	"github.com/timzifer/crowdmon/internal/surface"
)

// ErrElementNotFound is returned when the surface lacks a card element.
var ErrElementNotFound = errors.New("element not found")

// Engine projects compartment records onto a display surface. It keeps no
// render state, rendering the same record twice yields the same surface.
type Engine struct {
	doc    *surface.Document
	logger zerolog.Logger
}

// New creates a render engine for the document.
func New(doc *surface.Document, logger zerolog.Logger) *Engine {
	return &Engine{doc: doc, logger: logger.With().Str("component", "render").Logger()}
}

// Document returns the surface the engine writes to.
func (e *Engine) Document() *surface.Document {
	return e.doc
}

// RenderCompartment updates the card, label and sensor indicators of id.
func (e *Engine) RenderCompartment(id crowd.CompartmentID, rec crowd.Record) error {
	number := id.Number()
	cardID := surface.CardID(number)
	levelID := surface.LevelID(number)
	if !e.doc.Has(cardID) || !e.doc.Has(levelID) {
		return fmt.Errorf("%w: %s", ErrElementNotFound, id)
	}

	_, display, known := crowd.Resolve(rec.Status)
	if !known {
		e.logger.Debug().Str("compartment", string(id)).Str("status", rec.Status).Msg("unrecognised status, using default styling")
	}
	source := "simulated"
	if rec.Live {
		source = "live"
	}

	e.doc.Update(cardID, func(el *surface.Element) {
		el.SetClassName("compartment-card " + display.Class)
		el.SetData("description", display.Description)
		el.SetData("source", source)
	})
	e.doc.Update(levelID, func(el *surface.Element) {
		el.Text = display.Label
	})
	e.renderSensors(number, rec.Sensors)

	e.logger.Debug().
		Str("compartment", string(id)).
		Str("status", rec.Status).
		Str("source", source).
		Msg("compartment updated")
	return nil
}

func (e *Engine) renderSensors(number string, sensors []crowd.SensorFlag) {
	for _, sensor := range sensors {
		name := strings.ToUpper(sensor.Name)
		e.doc.Update(surface.SensorID(number, sensor.Name), func(el *surface.Element) {
			if sensor.Active {
				el.AddClass("active")
				el.Title = name + " sensor detecting crowd"
			} else {
				el.RemoveClass("active")
				el.Title = name + " sensor clear"
			}
		})
	}
}

// RenderAll renders every compartment of the snapshot in display order.
// Lookup failures are logged and skipped. It returns the number of cards rendered.
func (e *Engine) RenderAll(records map[crowd.CompartmentID]crowd.Record) int {
	rendered := 0
	for _, id := range crowd.Compartments {
		rec, ok := records[id]
		if !ok {
			continue
		}
		if err := e.RenderCompartment(id, rec); err != nil {
			e.logger.Error().Err(err).Str("compartment", string(id)).Msg("render compartment")
			continue
		}
		rendered++
	}
	return rendered
}

// RenderTimes refreshes the "updated ago" labels.
func (e *Engine) RenderTimes(records map[crowd.CompartmentID]crowd.Record, now time.Time) {
	for _, id := range crowd.Compartments {
		rec, ok := records[id]
		if !ok {
			continue
		}
		label := crowd.FormatTimeAgo(rec.LastUpdated, now)
		e.doc.Update(surface.TimeID(id.Number()), func(el *surface.Element) {
			el.Text = label
		})
	}
}
