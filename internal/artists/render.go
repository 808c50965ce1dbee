package artists

import (
	"fmt"
	"net/url"
	"strconv"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	// ListID is the id of the element holding the artist cards
	ListID = "artists-container"
	// CardClass is the class of one artist card in the list
	CardClass = "artist-card"
	// DetailClass is the class of the single artist view
	DetailClass = "artist-detail"
)

// Link returns the detail page path for the artist
func Link(a Artist) string {
	return "/artist/" + strconv.Itoa(a.ID)
}

// ListNode renders artists as linked cards in API order
func ListNode(list []Artist) *html.Node {
	container := element(atom.Div, html.Attribute{Key: "id", Val: ListID})
	for _, a := range list {
		card := element(atom.Div, html.Attribute{Key: "class", Val: CardClass})
		link := element(atom.A, html.Attribute{Key: "href", Val: Link(a)})
		if img := image(a); img != nil {
			link.AppendChild(img)
		}
		link.AppendChild(text(element(atom.H2), a.Name))
		card.AppendChild(link)
		container.AppendChild(card)
	}
	return container
}

// DetailNode renders one artist with its members
func DetailNode(a Artist) *html.Node {
	detail := element(atom.Div, html.Attribute{Key: "class", Val: DetailClass})
	if img := image(a); img != nil {
		detail.AppendChild(img)
	}
	detail.AppendChild(text(element(atom.H2), a.Name))
	detail.AppendChild(text(element(atom.P), fmt.Sprintf("Creation date: %d", a.CreationDate)))
	detail.AppendChild(text(element(atom.P), "First album: "+a.FirstAlbum))

	members := element(atom.Ul, html.Attribute{Key: "class", Val: "members"})
	for _, m := range a.Members {
		members.AppendChild(text(element(atom.Li), m))
	}
	detail.AppendChild(members)
	return detail
}

// image returns an <img> for the artist, or nil when the image URL is
// not plain http(s)
func image(a Artist) *html.Node {
	u, err := url.Parse(a.Image)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil
	}
	return element(atom.Img,
		html.Attribute{Key: "src", Val: u.String()},
		html.Attribute{Key: "alt", Val: a.Name},
	)
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func text(n *html.Node, s string) *html.Node {
	n.AppendChild(&html.Node{Type: html.TextNode, Data: s})
	return n
}
