// Package cards renders date records as HTML card nodes.
package cards

import (
	"fmt"
	"io"

	"github.com/klabast/wb-services/groupie-dates/internal/dates"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	// ContainerID is the id of the element cards are appended to
	ContainerID = "dates-container"
	// CardClass is the class set on every card element
	CardClass = "date-card"
)

// NewContainer returns an empty <div> with the given id
func NewContainer(id string) *html.Node {
	return element(atom.Div, html.Attribute{Key: "id", Val: id})
}

// Card builds the card for one record: an ID line followed by one
// line per data key.
func Card(rec dates.DateRecord) *html.Node {
	card := element(atom.Div, html.Attribute{Key: "class", Val: CardClass})
	card.AppendChild(line(fmt.Sprintf("ID: %s", rec.ID)))
	for _, f := range rec.Data.Fields() {
		card.AppendChild(line(fmt.Sprintf("%s: %s", f.Key, dates.DisplayText(f.Value))))
	}
	return card
}

// Append adds one card per record to container, in list order, and
// returns the number of cards added.
func Append(container *html.Node, records []dates.DateRecord) int {
	for _, rec := range records {
		container.AppendChild(Card(rec))
	}
	return len(records)
}

// Render writes the HTML serialisation of n to w
func Render(w io.Writer, n *html.Node) error {
	return html.Render(w, n)
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: a,
		Data:     a.String(),
		Attr:     attrs,
	}
}

func line(text string) *html.Node {
	p := element(atom.P)
	p.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	return p
}
