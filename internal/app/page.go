package app

import (
	"bytes"
	"context"
	"net/http"

	"github.com/klabast/wb-services/groupie-dates/internal/cards"
	"github.com/klabast/wb-services/groupie-dates/internal/dates"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const pageStyle = `
body { font-family: sans-serif; margin: 2rem; background: #f5f5f5; }
#dates-container, #artists-container { display: flex; flex-wrap: wrap; gap: 1rem; }
.date-card, .artist-card, .artist-detail { background: #fff; border-radius: 8px; padding: 1rem; box-shadow: 0 1px 3px rgba(0,0,0,.15); }
.date-card p { margin: .25rem 0; }
.artist-card img, .artist-detail img { max-width: 200px; display: block; }
.status { font-weight: bold; }
`

// StatusClass marks the staged-changes line on the edit page
const StatusClass = "status"

// newPage returns a document shell and its <body>, which already holds
// the <h1> heading
func newPage(title, heading string) (doc, body *html.Node) {
	doc = &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	root := newElement(atom.Html, html.Attribute{Key: "lang", Val: "en"})
	doc.AppendChild(root)

	head := newElement(atom.Head)
	head.AppendChild(newElement(atom.Meta, html.Attribute{Key: "charset", Val: "utf-8"}))
	head.AppendChild(withText(newElement(atom.Title), title))
	head.AppendChild(withText(newElement(atom.Style), pageStyle))
	root.AppendChild(head)

	body = newElement(atom.Body)
	body.AppendChild(withText(newElement(atom.H1), heading))
	root.AppendChild(body)
	return doc, body
}

// BuildPage returns the dates page document with its container filled
// by loader. A failed load leaves the container empty.
func BuildPage(ctx context.Context, loader *cards.Loader) *html.Node {
	doc, body := newPage(PageTitle, "Dates")
	container := cards.NewContainer(cards.ContainerID)
	body.AppendChild(container)

	loader.Load(ctx, container)
	return doc
}

// BuildEditPage renders records straight from the store with a line
// telling whether staged edits are pending
func BuildEditPage(records []dates.DateRecord, hasChanges bool) *html.Node {
	doc, body := newPage(PageTitle+" (edit)", "Edit dates")

	status := "No unsaved changes"
	if hasChanges {
		status = "Unsaved changes: commit or revert them"
	}
	body.AppendChild(withText(newElement(atom.P, html.Attribute{Key: "class", Val: StatusClass}), status))

	container := cards.NewContainer(cards.ContainerID)
	cards.Append(container, records)
	body.AppendChild(container)
	return doc
}

// ServeIndex renders the dates page
func (s *Server) ServeIndex(w http.ResponseWriter, r *http.Request) {
	s.writePage(w, BuildPage(r.Context(), s.loader))
}

// ServeEdit renders the edit overview (edit mode only)
func (s *Server) ServeEdit(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.List(r.Context())
	if err != nil {
		s.logger.Error("Error listing dates", zap.Error(err))
		http.Error(w, ErrInternalServer, http.StatusInternalServerError)
		return
	}
	s.writePage(w, BuildEditPage(records, s.hasChanges()))
}

func (s *Server) writePage(w http.ResponseWriter, doc *html.Node) {
	var buf bytes.Buffer
	if err := cards.Render(&buf, doc); err != nil {
		s.logger.Error("Error rendering page", zap.Error(err))
		http.Error(w, ErrInternalServer, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.Warn("Error writing page", zap.Error(err))
	}
}

func newElement(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func withText(n *html.Node, text string) *html.Node {
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	return n
}
