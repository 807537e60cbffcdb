// Package formscan extracts the payload a browser would submit from rendered
// form markup. It lets the service check that every interactive field carries
// exactly one value and backs the mode symmetry tests.
package formscan

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// skippedInputTypes never contribute to a submission payload.
var skippedInputTypes = map[string]bool{
	"file": true, "submit": true, "button": true, "reset": true, "image": true,
}

// Scan parses markup and returns the successful controls in document order.
func Scan(markup string) (url.Values, error) {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse markup: %w", err)
	}
	values := url.Values{}
	walk(doc, false, values)
	return values, nil
}

// Fields lists the control names found in markup, including repeats.
func Fields(markup string) ([]string, error) {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse markup: %w", err)
	}
	var names []string
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Input, atom.Select, atom.Textarea:
				if name, ok := attr(n, "name"); ok && name != "" {
					names = append(names, name)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(doc)
	return names, nil
}

func walk(n *html.Node, disabled bool, values url.Values) {
	if n.Type == html.ElementNode {
		if n.DataAtom == atom.Fieldset && hasAttr(n, "disabled") {
			disabled = true
		}
		if !disabled {
			collect(n, values)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, disabled, values)
	}
}

func collect(n *html.Node, values url.Values) {
	switch n.DataAtom {
	case atom.Input, atom.Select, atom.Textarea:
	default:
		return
	}
	name, ok := attr(n, "name")
	if !ok || name == "" || hasAttr(n, "disabled") {
		return
	}

	switch n.DataAtom {
	case atom.Input:
		inputType, _ := attr(n, "type")
		inputType = strings.ToLower(inputType)
		if skippedInputTypes[inputType] {
			return
		}
		value, hasValue := attr(n, "value")
		if inputType == "checkbox" || inputType == "radio" {
			if !hasAttr(n, "checked") {
				return
			}
			if !hasValue {
				value = "on"
			}
		}
		values.Add(name, value)
	case atom.Textarea:
		values.Add(name, textContent(n))
	case atom.Select:
		collectSelect(n, name, values)
	}
}

func collectSelect(n *html.Node, name string, values url.Values) {
	options := selectOptions(n)
	multiple := hasAttr(n, "multiple")

	var selected []*html.Node
	for _, o := range options {
		if hasAttr(o, "selected") {
			selected = append(selected, o)
		}
	}
	if multiple {
		for _, o := range selected {
			if !hasAttr(o, "disabled") {
				values.Add(name, optionValue(o))
			}
		}
		return
	}
	// A single select with nothing selected submits its first option.
	switch {
	case len(selected) > 0:
		values.Add(name, optionValue(selected[len(selected)-1]))
	case len(options) > 0:
		values.Add(name, optionValue(options[0]))
	}
}

func selectOptions(n *html.Node) []*html.Node {
	var out []*html.Node
	var visit func(*html.Node)
	visit = func(c *html.Node) {
		for child := c.FirstChild; child != nil; child = child.NextSibling {
			if child.Type == html.ElementNode && child.DataAtom == atom.Option {
				out = append(out, child)
				continue
			}
			visit(child)
		}
	}
	visit(n)
	return out
}

func optionValue(o *html.Node) string {
	if v, ok := attr(o, "value"); ok {
		return v
	}
	return strings.TrimSpace(textContent(o))
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var visit func(*html.Node)
	visit = func(c *html.Node) {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
		for child := c.FirstChild; child != nil; child = child.NextSibling {
			visit(child)
		}
	}
	visit(n)
	return sb.String()
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func hasAttr(n *html.Node, key string) bool {
	_, ok := attr(n, key)
	return ok
}
