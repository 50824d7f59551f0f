package deck

import (
	"path/filepath"
	"strings"

	nethtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// RebaseLinks rewrites relative img[src] and a[href] paths written against
// fromDir so they resolve from toDir, where the page is saved. URLs,
// anchors and absolute paths are left alone. Full documents and fragments
// are both accepted. Equal directories return the page unchanged.
func RebaseLinks(page, fromDir, toDir string) (string, error) {
	from, err := filepath.Abs(fromDir)
	if err != nil {
		return "", err
	}
	to, err := filepath.Abs(toDir)
	if err != nil {
		return "", err
	}
	if from == to {
		return page, nil
	}

	root, fragment, err := parsePage(page)
	if err != nil {
		return "", err
	}
	rebaseNode(root, from, to)
	return renderPage(root, fragment)
}

func parsePage(page string) (*nethtml.Node, bool, error) {
	head := strings.ToLower(strings.TrimSpace(page))
	if strings.HasPrefix(head, "<!doctype") || strings.HasPrefix(head, "<html") {
		doc, err := nethtml.Parse(strings.NewReader(page))
		return doc, false, err
	}

	body := &nethtml.Node{Type: nethtml.ElementNode, DataAtom: atom.Body, Data: "body"}
	nodes, err := nethtml.ParseFragment(strings.NewReader(page), body)
	if err != nil {
		return nil, true, err
	}
	root := &nethtml.Node{Type: nethtml.DocumentNode}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return root, true, nil
}

func renderPage(root *nethtml.Node, fragment bool) (string, error) {
	var buf strings.Builder
	if !fragment {
		if err := nethtml.Render(&buf, root); err != nil {
			return "", err
		}
		return buf.String(), nil
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if err := nethtml.Render(&buf, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

func rebaseNode(n *nethtml.Node, from, to string) {
	if n.Type == nethtml.ElementNode {
		switch n.DataAtom {
		case atom.Img:
			rebaseAttr(n, "src", from, to)
		case atom.A:
			rebaseAttr(n, "href", from, to)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		rebaseNode(c, from, to)
	}
}

func rebaseAttr(n *nethtml.Node, key, from, to string) {
	for i, attr := range n.Attr {
		if attr.Key != key || !isRelativeRef(attr.Val) {
			continue
		}
		ref, suffix := splitRef(attr.Val)
		rel, err := filepath.Rel(to, filepath.Join(from, filepath.FromSlash(ref)))
		if err != nil {
			continue
		}
		n.Attr[i].Val = filepath.ToSlash(rel) + suffix
	}
}

// splitRef separates a path from its query or fragment.
func splitRef(ref string) (string, string) {
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		return ref[:i], ref[i:]
	}
	return ref, ""
}

// isRelativeRef reports whether ref is a relative file path.
func isRelativeRef(ref string) bool {
	if ref == "" || strings.HasPrefix(ref, "#") || strings.HasPrefix(ref, "?") {
		return false
	}
	if strings.HasPrefix(ref, "/") || strings.HasPrefix(ref, "//") || filepath.IsAbs(ref) {
		return false
	}
	if i := strings.Index(ref, ":"); i > 0 && !strings.ContainsAny(ref[:i], "/.") {
		return false // scheme such as https: or data:
	}
	return true
}
