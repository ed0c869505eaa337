package extractor

import "fmt"

// Mode selects how a raw string is pulled out of a matched selection.
type Mode int

const (
	// TextContent takes the combined text of every matched element, trimmed.
	TextContent Mode = iota
	// AttrContent takes the named attribute of the first matched element.
	AttrContent
	// AttrContentSplit is AttrContent keeping only the text before the
	// first " - " (titles shaped like "Product - Brand - Site").
	AttrContentSplit
)

func (m Mode) String() string {
	switch m {
	case TextContent:
		return "text-content"
	case AttrContent:
		return "attribute-content"
	case AttrContentSplit:
		return "attribute-content-split"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// SelectorRule is one entry of a field's fallback list.
type SelectorRule struct {
	Selector string
	Mode     Mode
	// Attr names the attribute read by the attribute modes.
	Attr string
}

func text(sel string) SelectorRule { return SelectorRule{Selector: sel, Mode: TextContent} }

// NameRules are tried in order, most specific product-page markup first.
var NameRules = []SelectorRule{
	text("h1.pdp-mod-product-title"),
	text("div.pdp-product-title__text"),
	text("span.pdp-product-title__item"),
	{Selector: `meta[property="og:title"]`, Mode: AttrContentSplit, Attr: "content"},
	text(`h1[data-spm="product_title"]`),
	text("div.product-title"),
}

// PriceRules are tried in order, most specific product-page markup first.
var PriceRules = []SelectorRule{
	text(".pdp-product-price"),
	text(".notranslate.pdp-price.pdp-price_type_normal.pdp-price_color_orange.pdp-price_size_xl"),
	text("span.pdp-price_type_normal"),
	text("div.pdp-price__main-price span"),
	text("span.pdp-price__text"),
	text(".pdp-price"),
	text(".current-price"),
	text("div.price-block span.price"),
}
