package extractor

import (
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// NoMatch is the rule index reported for a field no rule produced.
const NoMatch = -1

// Fields holds the normalized values found in one document.
// An empty string means the field is absent.
type Fields struct {
	Name  string
	Price string

	// NameRule and PriceRule are the indexes of the rules that produced
	// the values, or NoMatch.
	NameRule  int
	PriceRule int
}

// Empty reports whether neither field was found.
func (f Fields) Empty() bool {
	return f.Name == "" && f.Price == ""
}

// compiledRule is a SelectorRule with its selector parsed once up front.
// matcher is nil when the selector does not parse; such a rule never matches.
type compiledRule struct {
	SelectorRule
	matcher goquery.Matcher
}

// field is one ordered fallback list plus the normalization applied to
// every candidate value.
type field struct {
	name      string
	rules     []compiledRule
	normalize func(string) string
}

// Extractor evaluates the name and price rule lists against HTML documents.
// It holds no per-document state and is safe for concurrent use.
type Extractor struct {
	name  field
	price field
}

// New compiles the given rule lists.
func New(nameRules, priceRules []SelectorRule) *Extractor {
	return &Extractor{
		name:  field{name: "name", rules: compile(nameRules), normalize: NormalizeName},
		price: field{name: "price", rules: compile(priceRules), normalize: NormalizePrice},
	}
}

// Default returns an Extractor over NameRules and PriceRules.
func Default() *Extractor {
	return New(NameRules, PriceRules)
}

func compile(rules []SelectorRule) []compiledRule {
	out := make([]compiledRule, len(rules))
	for i, r := range rules {
		out[i].SelectorRule = r
		sel, err := cascadia.Compile(r.Selector)
		if err != nil {
			slog.Warn("extractor: invalid selector, rule disabled",
				"selector", r.Selector, "error", err)
			continue
		}
		out[i].matcher = sel
	}
	return out
}

// Extract parses rawHTML and runs both field pipelines. It never fails:
// unparseable input and unmatched rules simply leave fields empty.
func (e *Extractor) Extract(rawHTML string) Fields {
	fields := Fields{NameRule: NoMatch, PriceRule: NoMatch}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		slog.Debug("extractor: html parse failed", "error", err)
		return fields
	}

	fields.Name, fields.NameRule = e.name.first(doc)
	fields.Price, fields.PriceRule = e.price.first(doc)
	return fields
}

// first returns the first non-empty normalized value in rule order.
// A rule that matches only empty elements is skipped, not accepted.
func (f field) first(doc *goquery.Document) (string, int) {
	for i, r := range f.rules {
		raw, ok := r.eval(doc)
		if !ok {
			continue
		}
		if v := f.normalize(raw); v != "" {
			return v, i
		}
	}
	return "", NoMatch
}

// eval applies one rule. ok is false when the selector matched nothing.
// A panic inside selector evaluation counts as no match.
func (r compiledRule) eval(doc *goquery.Document) (raw string, ok bool) {
	if r.matcher == nil {
		return "", false
	}
	defer func() {
		if rec := recover(); rec != nil {
			slog.Warn("extractor: rule evaluation panicked",
				"selector", r.Selector, "panic", rec)
			raw, ok = "", false
		}
	}()

	sel := doc.FindMatcher(r.matcher)
	if sel.Length() == 0 {
		return "", false
	}

	switch r.Mode {
	case AttrContent:
		v, _ := sel.Attr(r.Attr)
		return v, true
	case AttrContentSplit:
		v, _ := sel.Attr(r.Attr)
		head, _, _ := strings.Cut(v, " - ")
		return strings.TrimSpace(head), true
	default:
		return strings.TrimSpace(sel.Text()), true
	}
}
