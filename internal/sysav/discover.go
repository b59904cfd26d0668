package sysav

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/auto-dns/sysav-sync/internal/domain"
)

// Heuristics for spotting the public API base in the page HTML/JS. Order matters.
var apiGuessPatterns = []*regexp.Regexp{
	regexp.MustCompile(`https://[\w.-]*azurewebsites\.net/[^"']*?api[\w/\-]*`),
	regexp.MustCompile(`https://[\w.-]*sysav[\w.-]*/[^"']*?api[\w/\-]*`),
}

var pageSlugs = map[domain.Municipality]string{
	domain.MunicipalityKavlinge: "kavlinge",
	domain.MunicipalityLomma:    "lomma",
	domain.MunicipalitySvedala:  "svedala",
}

// Discover returns the API base for municipality. A base supplied at
// construction is returned as is; otherwise the municipality's public page is
// scanned once and the result cached for the lifetime of the client.
func (c *Client) Discover(ctx context.Context, municipality domain.Municipality) (string, error) {
	if base := c.cachedAPIBase(); base != "" {
		return base, nil
	}

	slug, ok := pageSlugs[municipality]
	if !ok {
		return "", NewUnsupportedMunicipalityError(municipality)
	}

	pageURL := fmt.Sprintf(c.pageURLTemplate, slug)
	resp, err := c.get(ctx, pageURL, nil, c.discoveryTimeout)
	if err != nil {
		return "", NewDiscoveryError(pageURL, err)
	}

	base, found := guessAPIBase(string(resp.Body))
	if !found {
		base, found = c.guessAPIBaseFromDocument(resp.Body)
	}
	if !found {
		return "", NewDiscoveryError(pageURL, nil)
	}

	c.logger.Debug().Str("page", pageURL).Str("api_base", base).Msg("Guessed SYSAV API base")
	c.setAPIBase(base)
	return base, nil
}

func (c *Client) cachedAPIBase() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiBase
}

func (c *Client) setAPIBase(base string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apiBase = base
}

// guessAPIBase applies the patterns in order to text and turns the first
// match into a base ending in exactly one "/api".
func guessAPIBase(text string) (string, bool) {
	for _, pattern := range apiGuessPatterns {
		if match := pattern.FindString(text); match != "" {
			return truncateAtAPI(match), true
		}
	}
	return "", false
}

func truncateAtAPI(match string) string {
	before, _, _ := strings.Cut(match, "/api")
	return before + "/api"
}

// guessAPIBaseFromDocument retries the patterns on entity-decoded attribute
// values and inline script text, which the raw scan can miss.
func (c *Client) guessAPIBaseFromDocument(body []byte) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		c.logger.Debug().Err(err).Msg("Could not parse SYSAV page as HTML")
		return "", false
	}

	var fragments []string
	doc.Find("*").Each(func(_ int, sel *goquery.Selection) {
		for _, node := range sel.Nodes {
			for _, attr := range node.Attr {
				if strings.Contains(attr.Val, "api") {
					fragments = append(fragments, attr.Val)
				}
			}
		}
	})
	doc.Find("script").Each(func(_ int, sel *goquery.Selection) {
		if text := sel.Text(); strings.Contains(text, "api") {
			fragments = append(fragments, text)
		}
	})
	if len(fragments) == 0 {
		return "", false
	}

	// Quote-separated so a match cannot span two fragments.
	return guessAPIBase(strings.Join(fragments, `"`))
}
