package easycredit

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"
)

const (
	nsSOAP    = "http://schemas.xmlsoap.org/soap/envelope/"
	nsTempuri = "http://tempuri.org/"
	nsXSI     = "http://www.w3.org/2001/XMLSchema-instance"
)

// field is one request element; order matters to the remote service.
type field struct {
	Tag   string
	Value string
}

var xmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

// el renders <tag>text</tag>, or <tag/> when text is empty.
func el(tag, text string) string {
	if text == "" {
		return "<" + tag + "/>"
	}
	return "<" + tag + ">" + xmlEscaper.Replace(text) + "</" + tag + ">"
}

// envelope wraps the operation element in a SOAP 1.1 envelope without a header.
func envelope(element string, fields []field) []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="utf-8"?>`)
	b.WriteString(`<s:Envelope xmlns:s="` + nsSOAP + `"><s:Body>`)
	b.WriteString(`<` + element + ` xmlns="` + nsTempuri + `">`)
	for _, f := range fields {
		b.WriteString(el(f.Tag, f.Value))
	}
	b.WriteString(`</` + element + `>`)
	b.WriteString(`</s:Body></s:Envelope>`)
	return []byte(b.String())
}

// node is a minimal element tree; only direct character data is kept in text.
type node struct {
	name     xml.Name
	attrs    []xml.Attr
	text     strings.Builder
	children []*node
}

func (n *node) local() string { return n.name.Local }

func (n *node) isNil() bool {
	for _, a := range n.attrs {
		if a.Name.Local == "nil" && (a.Name.Space == nsXSI || a.Name.Space == "xsi") {
			return strings.EqualFold(strings.TrimSpace(a.Value), "true")
		}
	}
	return false
}

func (n *node) trimmed() string { return strings.TrimSpace(n.text.String()) }

// walk visits n and its descendants in document order until fn returns false.
func (n *node) walk(fn func(*node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.children {
		if !c.walk(fn) {
			return false
		}
	}
	return true
}

func (n *node) child(local string) *node {
	for _, c := range n.children {
		if c.local() == local {
			return c
		}
	}
	return nil
}

// parseTree decodes body into a tree. Any decoding error discards the document.
func parseTree(body []byte) (*node, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	// Embedded documents sometimes declare utf-16 although they arrive already decoded.
	dec.CharsetReader = func(_ string, in io.Reader) (io.Reader, error) { return in, nil }

	var root *node
	var stack []*node
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &node{name: t.Name, attrs: t.Attr}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			} else if root == nil {
				root = n
			}
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		}
	}
	if root == nil {
		return nil, io.ErrUnexpectedEOF
	}
	return root, nil
}

// parseResult finds the first element whose local name contains resultTag and flattens
// its children into a map. nil means no usable result element.
func parseResult(body []byte, resultTag string) map[string]any {
	root, err := parseTree(body)
	if err != nil {
		return nil
	}
	var out map[string]any
	root.walk(func(n *node) bool {
		if !strings.Contains(n.local(), resultTag) {
			return true
		}
		if len(n.children) > 0 {
			m := make(map[string]any, len(n.children))
			for _, c := range n.children {
				if c.isNil() {
					m[c.local()] = nil
				} else {
					m[c.local()] = c.trimmed()
				}
			}
			out = m
			return false
		}
		if raw := n.trimmed(); raw != "" {
			out = map[string]any{"Result": raw, "value": raw}
			return false
		}
		return true
	})
	return out
}

// parseFault returns the text of the first element named like faultstring, or "".
func parseFault(body []byte) string {
	root, err := parseTree(body)
	if err != nil {
		return ""
	}
	var msg string
	root.walk(func(n *node) bool {
		if strings.Contains(strings.ToLower(n.local()), "faultstring") {
			msg = n.trimmed()
			return false
		}
		return true
	})
	return msg
}

// parseCustomerInfo flattens the CustomerInfo document carried in the Info field of
// eShopClientInfo_v3. Loans become a list of maps.
func parseCustomerInfo(doc string) map[string]any {
	root, err := parseTree([]byte(doc))
	if err != nil {
		return nil
	}
	cust := root.child("Customer")
	if cust == nil || len(cust.children) == 0 {
		cust = root
	}
	out := make(map[string]any, len(cust.children))
	for _, c := range cust.children {
		if c.local() != "Loans" {
			out[c.local()] = c.trimmed()
			continue
		}
		loans := []map[string]any{}
		for _, l := range c.children {
			if l.local() != "Loan" {
				continue
			}
			loan := make(map[string]any, len(l.children))
			for _, lc := range l.children {
				loan[lc.local()] = lc.trimmed()
			}
			if len(loan) > 0 {
				loans = append(loans, loan)
			}
		}
		out["Loans"] = loans
	}
	return out
}

func looksLikeCustomerInfo(s string) bool {
	return strings.HasPrefix(s, "<?xml") || strings.HasPrefix(s, "<CustomerInfo")
}
