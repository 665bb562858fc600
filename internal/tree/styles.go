package tree

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// StyleElementID marks the stylesheet so it is attached once per document.
const StyleElementID = "json-tree-styles"

// AttachStyles adds the tree stylesheet to the document's <head>. It is a
// no-op when doc has no head or already carries the stylesheet, and reports
// whether it added one.
func AttachStyles(doc *html.Node) bool {
	if doc == nil {
		return false
	}
	head := firstElement(doc, atom.Head)
	if head == nil {
		return false
	}
	if ElementByID(doc, StyleElementID) != nil {
		return false
	}
	style := element(atom.Style, "", attribute("id", StyleElementID))
	style.AppendChild(text(Stylesheet))
	head.AppendChild(style)
	return true
}

// Stylesheet is the CSS for the tree view.
const Stylesheet = `
.json-tree-controls {
  display: flex;
  align-items: center;
  gap: 0.5rem;
}
.json-tree-toggle {
  cursor: pointer;
  user-select: none;
  margin-right: 0.5rem;
  display: inline-block;
  width: 16px;
  transition: transform 0.2s;
}
.json-tree-toggle.collapsed {
  transform: rotate(-90deg);
}
.json-tree-toggle.collapsed + .json-tree-label {
  opacity: 0.7;
}
.json-tree-row {
  margin: 0.25rem 0;
}
.json-tree-key {
  color: var(--bs-purple);
  font-weight: 500;
}
.json-tree-index {
  color: var(--bs-blue);
  font-weight: 500;
}
.json-tree-value {
  font-family: var(--bs-font-monospace);
}
.json-tree-string {
  color: var(--bs-green);
}
.json-tree-number {
  color: var(--bs-cyan);
}
.json-tree-boolean {
  color: var(--bs-orange);
  font-weight: 600;
}
.json-tree-null {
  color: var(--bs-secondary);
  font-style: italic;
}
.json-tree-label {
  color: var(--bs-body-color);
  opacity: 0.8;
  font-size: 0.9rem;
}
.json-tree-empty {
  color: var(--bs-secondary);
  font-family: var(--bs-font-monospace);
}
.json-tree-load-more {
  padding: 0.5rem;
  margin: 0.25rem 0;
  background: var(--bs-light);
  border-radius: 0.25rem;
  transition: background 0.2s;
}
.json-tree-load-more:hover {
  background: var(--bs-secondary-bg);
}
`
