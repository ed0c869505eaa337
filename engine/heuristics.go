package engine

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Reasons returned by unusableReason.
const (
	reasonChallenge = "bot challenge"
	reasonSPAShell  = "empty app shell"
	reasonNoscript  = "javascript required"
	reasonThinBody  = "little visible text"
)

// challengeMarkers are body fragments served by anti-bot interstitials
// instead of the product page.
var challengeMarkers = []string{
	"_____tmd_____",
	"x5secdata",
	"baxia-punish",
	"cf-browser-verification",
	"cf-turnstile",
	"captcha-delivery.com",
	"px-captcha",
}

var reNoscript = regexp.MustCompile(`<noscript[^>]*>[^<]*(enable|activate|turn on|requires?)\s+javascript`)

// unusableReason decides whether directly fetched HTML is worth extracting
// from, or whether the page needs to be rendered. It returns "" when the
// HTML looks like real content.
func unusableReason(body string) string {
	lower := strings.ToLower(body)

	for _, m := range challengeMarkers {
		if strings.Contains(lower, m) {
			return reasonChallenge
		}
	}

	if strings.Contains(lower, `<div id="root"></div>`) ||
		strings.Contains(lower, `<div id="app"></div>`) ||
		strings.Contains(lower, `<div id="__next"></div>`) {
		return reasonSPAShell
	}

	if reNoscript.MatchString(lower) {
		return reasonNoscript
	}

	bodyText := extractVisibleText(body)
	if len(bodyText) < 200 {
		return reasonThinBody
	}
	if strings.Count(lower, "<script") > 10 && len(bodyText) < 500 {
		return reasonThinBody
	}

	return ""
}

// extractTitle uses the Go HTML tokenizer to find the first <title> element.
func extractTitle(htmlStr string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(htmlStr))
	inTitle := false
	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			tn, _ := tokenizer.TagName()
			if string(tn) == "title" {
				inTitle = true
			}
		case html.TextToken:
			if inTitle {
				return strings.TrimSpace(string(tokenizer.Text()))
			}
		case html.EndTagToken:
			if inTitle {
				return ""
			}
		}
	}
}

// extractVisibleText extracts the visible text from within <body>, stripping
// all tags and <script>/<style> content. Used for heuristic analysis only.
func extractVisibleText(body string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(body))
	var buf strings.Builder
	inBody := false
	skipDepth := 0

	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return buf.String()
		case html.StartTagToken:
			tn, _ := tokenizer.TagName()
			tag := string(tn)
			if tag == "body" {
				inBody = true
			}
			if tag == "script" || tag == "style" || tag == "noscript" {
				skipDepth++
			}
		case html.EndTagToken:
			tn, _ := tokenizer.TagName()
			tag := string(tn)
			if (tag == "script" || tag == "style" || tag == "noscript") && skipDepth > 0 {
				skipDepth--
			}
		case html.TextToken:
			if inBody && skipDepth == 0 {
				text := strings.TrimSpace(string(tokenizer.Text()))
				if text != "" {
					buf.WriteString(text)
					buf.WriteByte(' ')
				}
			}
		}
	}
}
