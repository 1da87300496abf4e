package surface

import "fmt"

// Card describes one compartment card of the layout.
type Card struct {
	Number  string
	Title   string
	Sensors []string
}

// CardID returns the container id of a compartment card.
func CardID(number string) string { return "compartment" + number }

// LevelID returns the id of the status label element.
func LevelID(number string) string { return "level" + number }

// SensorID returns the id of a sensor indicator.
func SensorID(number, sensor string) string { return fmt.Sprintf("sensor%s-%s", number, sensor) }

// TimeID returns the id of the "updated ... ago" label.
func TimeID(number string) string { return "time" + number }

// DefaultCards is the three compartment layout of the dashboard page.
var DefaultCards = []Card{
	{Number: "1", Title: "Compartment 1", Sensors: []string{"ir1", "ir2", "ir3", "ultrasonic"}},
	{Number: "2", Title: "Compartment 2", Sensors: []string{"ir1", "ir2", "ultrasonic"}},
	{Number: "3", Title: "Compartment 3", Sensors: []string{"ir1", "ir2", "ultrasonic"}},
}

// NewLayout builds a document with the elements of every card.
func NewLayout(cards []Card) (*Document, error) {
	doc := NewDocument()
	for _, card := range cards {
		elements := []Element{
			{ID: CardID(card.Number), Classes: []string{"compartment-card"}, Data: map[string]string{"title": card.Title}},
			{ID: LevelID(card.Number), Classes: []string{"crowd-level"}},
			{ID: TimeID(card.Number), Classes: []string{"updated"}},
		}
		for _, sensor := range card.Sensors {
			elements = append(elements, Element{
				ID:      SensorID(card.Number, sensor),
				Classes: []string{"sensor-indicator"},
				Data:    map[string]string{"card": card.Number, "sensor": sensor},
			})
		}
		for _, el := range elements {
			if err := doc.Append(el); err != nil {
				return nil, fmt.Errorf("card %s: %w", card.Number, err)
			}
		}
	}
	return doc, nil
}

// DefaultLayout builds the document for DefaultCards.
func DefaultLayout() *Document {
	doc, err := NewLayout(DefaultCards)
	if err != nil {
		panic(err)
	}
	return doc
}
