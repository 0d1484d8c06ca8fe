package crawler

import (
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/bitwisdom/site-assistant/internal/model"
)

// boilerplate is removed before any text is read.
const boilerplate = "script, style, nav, footer, header, iframe, noscript"

// bodySelectors are tried in order; the first that matches supplies the
// page text.
var bodySelectors = []string{"main", "article", ".content", "#content", "body"}

// Page is the extracted content of one HTML document.
type Page struct {
	Title           string
	MetaDescription string
	Headings        []model.Heading
	Content         string
	Links           []string
}

// Extract parses an HTML document. Links are resolved against base and
// collected before boilerplate removal so navigation menus still feed the
// crawl frontier.
func Extract(r io.Reader, base *url.URL) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	page := &Page{Links: extractLinks(doc, base)}

	doc.Find(boilerplate).Remove()

	page.Title = collapse(doc.Find("title").First().Text())
	if page.Title == "" {
		page.Title = collapse(doc.Find("h1").First().Text())
	}

	if desc, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok {
		page.MetaDescription = collapse(desc)
	}

	doc.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		text := collapse(s.Text())
		if text == "" {
			return
		}
		page.Headings = append(page.Headings, model.Heading{
			Level: int(goquery.NodeName(s)[1] - '0'),
			Text:  text,
		})
	})

	for _, sel := range bodySelectors {
		if s := doc.Find(sel); s.Length() > 0 {
			page.Content = collapse(textOf(s))
			break
		}
	}

	return page, nil
}

func extractLinks(doc *goquery.Document, base *url.URL) []string {
	var links []string
	seen := make(map[string]struct{})

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			return
		}
		link := Normalize(abs)
		if _, dup := seen[link]; dup {
			return
		}
		seen[link] = struct{}{}
		links = append(links, link)
	})
	return links
}

// textOf joins every text node under the selection with spaces so adjacent
// block elements do not run together.
func textOf(s *goquery.Selection) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
	return b.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Normalize drops the fragment and query and gives an empty path "/".
func Normalize(u *url.URL) string {
	n := *u
	n.Fragment = ""
	n.RawFragment = ""
	n.RawQuery = ""
	n.ForceQuery = false
	n.User = nil
	n.Host = strings.ToLower(n.Host)
	n.Scheme = strings.ToLower(n.Scheme)
	if n.Path == "" {
		n.Path = "/"
		n.RawPath = ""
	}
	return n.String()
}
