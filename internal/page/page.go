// Package page builds the HTML document a tree is mounted into.
package page

import (
	"bytes"
	"io"
	"strings"

	"github.com/iancoleman/strcase"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Stylesheet and icon font loaded by every page.
const (
	BootstrapCSS = "https://cdn.jsdelivr.net/npm/bootstrap@5.3.3/dist/css/bootstrap.min.css"
	IconsCSS     = "https://cdn.jsdelivr.net/npm/bootstrap-icons@1.11.3/font/bootstrap-icons.min.css"
)

// Page is a complete HTML document with a single tree mount.
type Page struct {
	title string
	lang  string
	doc   *html.Node
	head  *html.Node
	body  *html.Node
	mount *html.Node
	live  bool
}

// New builds an empty document titled title.
func New(title, lang string) *Page {
	if lang == "" {
		lang = "en"
	}
	p := &Page{title: title, lang: lang}

	p.doc = &html.Node{Type: html.DocumentNode}
	p.doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	root := el(atom.Html, attr("lang", lang))
	p.doc.AppendChild(root)

	p.head = el(atom.Head)
	p.head.AppendChild(el(atom.Meta, attr("charset", "utf-8")))
	p.head.AppendChild(el(atom.Meta,
		attr("name", "viewport"),
		attr("content", "width=device-width, initial-scale=1"),
	))
	titleEl := el(atom.Title)
	titleEl.AppendChild(&html.Node{Type: html.TextNode, Data: title})
	p.head.AppendChild(titleEl)
	p.head.AppendChild(el(atom.Link, attr("rel", "stylesheet"), attr("href", BootstrapCSS)))
	p.head.AppendChild(el(atom.Link, attr("rel", "stylesheet"), attr("href", IconsCSS)))
	root.AppendChild(p.head)

	p.body = el(atom.Body)
	content := el(atom.Main, attr("class", "container py-4"))
	heading := el(atom.H1, attr("class", "h4 mb-3"))
	heading.AppendChild(&html.Node{Type: html.TextNode, Data: title})
	content.AppendChild(heading)

	p.mount = el(atom.Div,
		attr("id", MountID(title)),
		attr("class", "json-tree-mount"),
	)
	content.AppendChild(p.mount)
	p.body.AppendChild(content)
	root.AppendChild(p.body)

	return p
}

// MountID derives the mount element id from a page title.
func MountID(title string) string {
	slug := strcase.ToKebab(strings.TrimSpace(title))
	if slug == "" {
		return "json-tree-mount"
	}
	return "json-tree-" + slug
}

// Title returns the page title.
func (p *Page) Title() string { return p.title }

// Lang returns the document language.
func (p *Page) Lang() string { return p.lang }

// Document returns the document node.
func (p *Page) Document() *html.Node { return p.doc }

// Head returns the <head> element.
func (p *Page) Head() *html.Node { return p.head }

// Mount returns the element trees are rendered into.
func (p *Page) Mount() *html.Node { return p.mount }

// EnableLive adds the client script that forwards clicks and viewport
// intersections over a websocket at wsPath and swaps in the tree it
// receives back. Calling it again has no effect.
func (p *Page) EnableLive(wsPath string) {
	if p.live {
		return
	}
	p.live = true
	setAttr(p.mount, "data-ws-path", wsPath)
	script := el(atom.Script, attr("id", "json-tree-client"))
	script.AppendChild(&html.Node{Type: html.TextNode, Data: ClientScript})
	p.body.AppendChild(script)
}

// Live reports whether the client script is attached.
func (p *Page) Live() bool { return p.live }

// Render writes the whole document.
func (p *Page) Render(w io.Writer) error {
	return html.Render(w, p.doc)
}

// String renders the document, returning "" on error.
func (p *Page) String() string {
	var buf bytes.Buffer
	if err := p.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}

// RenderChildren writes the children of n without n itself. The server uses
// it to ship the mount's contents.
func RenderChildren(w io.Writer, n *html.Node) error {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(w, c); err != nil {
			return err
		}
	}
	return nil
}

func el(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, attr(key, val))
}

// ShowError replaces the mount contents with an error notice.
func (p *Page) ShowError(message string) {
	for c := p.mount.FirstChild; c != nil; c = p.mount.FirstChild {
		p.mount.RemoveChild(c)
	}
	alert := el(atom.Div, attr("class", "alert alert-danger"), attr("role", "alert"))
	alert.AppendChild(&html.Node{Type: html.TextNode, Data: message})
	p.mount.AppendChild(alert)
}
