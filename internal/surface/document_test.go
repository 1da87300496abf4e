package surface

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultLayoutElements(t *testing.T) {
	doc := DefaultLayout()
	for _, id := range []string{"compartment1", "level1", "time1", "sensor1-ir3", "sensor1-ultrasonic", "compartment3", "sensor3-ir2"} {
		require.True(t, doc.Has(id), id)
	}
	require.False(t, doc.Has("sensor2-ir3"))
}

func TestNewLayoutRejectsDuplicates(t *testing.T) {
	_, err := NewLayout([]Card{{Number: "1"}, {Number: "1"}})
	require.Error(t, err)
}

func TestElementClassHelpers(t *testing.T) {
	el := Element{ID: "x"}
	el.SetClassName("compartment-card  red")
	require.Equal(t, []string{"compartment-card", "red"}, el.Classes)
	el.AddClass("active")
	el.AddClass("active")
	require.Equal(t, "compartment-card red active", el.ClassName())
	el.RemoveClass("red")
	require.False(t, el.HasClass("red"))
	require.Equal(t, "compartment-card active", el.ClassName())
}

func lookup(t *testing.T, doc *Document, id string) Element {
	t.Helper()
	el, ok := doc.Element(id)
	require.True(t, ok, id)
	return el
}

func TestClassQueriesOnReturnedCopy(t *testing.T) {
	doc := DefaultLayout()
	require.True(t, doc.Update("compartment2", func(el *Element) { el.SetClassName("compartment-card yellow") }))

	require.Equal(t, "compartment-card yellow", lookup(t, doc, "compartment2").ClassName())
	require.True(t, lookup(t, doc, "compartment2").HasClass("yellow"))
	require.False(t, lookup(t, doc, "compartment2").HasClass("red"))
}

func TestDocumentCopiesOnReadAndWrite(t *testing.T) {
	doc := NewDocument()
	el := Element{ID: "a", Classes: []string{"one"}}
	require.NoError(t, doc.Append(el))
	el.Classes[0] = "mutated"

	got, ok := doc.Element("a")
	require.True(t, ok)
	require.Equal(t, []string{"one"}, got.Classes)

	got.Classes[0] = "changed"
	again, _ := doc.Element("a")
	require.Equal(t, "one", again.Classes[0])
}

func TestDocumentUpdateAndRemove(t *testing.T) {
	doc := DefaultLayout()
	require.True(t, doc.Update("level2", func(el *Element) { el.Text = "HIGH CROWD" }))
	got, _ := doc.Element("level2")
	require.Equal(t, "HIGH CROWD", got.Text)

	doc.Remove("level2")
	require.False(t, doc.Update("level2", func(*Element) {}))
	for _, el := range doc.Snapshot() {
		require.NotEqual(t, "level2", el.ID)
	}
}

func TestDocumentConcurrentAccess(t *testing.T) {
	doc := DefaultLayout()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			doc.Update("compartment1", func(el *Element) { el.SetClassName("compartment-card red") })
		}()
		go func() {
			defer wg.Done()
			_ = doc.Snapshot()
		}()
	}
	wg.Wait()
	got, _ := doc.Element("compartment1")
	require.Equal(t, "compartment-card red", got.ClassName())
}
