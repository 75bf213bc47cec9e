package sanitize

import (
	"strings"

	"github.com/gorilla/css/scanner"
)

// allowedProperties lists the CSS properties permitted inside style attributes.
var allowedProperties = map[string]bool{
	"align":            true,
	"background-color": true,
	"border":           true,
	"border-bottom":    true,
	"border-collapse":  true,
	"border-left":      true,
	"border-radius":    true,
	"border-right":     true,
	"border-spacing":   true,
	"border-top":       true,
	"box-sizing":       true,
	"clear":            true,
	"color":            true,
	"display":          true,
	"font-family":      true,
	"font-size":        true,
	"font-style":       true,
	"font-weight":      true,
	"height":           true,
	"letter-spacing":   true,
	"line-height":      true,
	"margin":           true,
	"margin-bottom":    true,
	"margin-left":      true,
	"margin-right":     true,
	"margin-top":       true,
	"max-height":       true,
	"max-width":        true,
	"min-width":        true,
	"overflow":         true,
	"padding":          true,
	"padding-bottom":   true,
	"padding-left":     true,
	"padding-right":    true,
	"padding-top":      true,
	"table-layout":     true,
	"text-align":       true,
	"text-decoration":  true,
	"text-shadow":      true,
	"text-transform":   true,
	"vertical-align":   true,
	"white-space":      true,
	"width":            true,
	"word-break":       true,
}

// cssState consumes a token and returns the state for the next one.
type cssState func(b *strings.Builder, t *scanner.Token) cssState

// CSS filters a list of style declarations, keeping only allowed properties.  Input the scanner
// cannot tokenize yields "".
func CSS(decls string) string {
	b := &strings.Builder{}
	scan := scanner.New(decls)
	state := cssProperty
	for {
		t := scan.Next()
		switch t.Type {
		case scanner.TokenEOF:
			return b.String()
		case scanner.TokenError:
			return ""
		}
		if state = state(b, t); state == nil {
			return ""
		}
	}
}

// cssProperty expects the name of the next property.
func cssProperty(b *strings.Builder, t *scanner.Token) cssState {
	switch t.Type {
	case scanner.TokenIdent:
		if !allowedProperties[strings.ToLower(t.Value)] {
			return cssSkip
		}
		b.WriteString(t.Value)
		return cssValue
	case scanner.TokenS:
		return cssProperty
	}
	return cssSkip
}

// cssSkip discards tokens through the end of the current declaration.
func cssSkip(_ *strings.Builder, t *scanner.Token) cssState {
	if isSemicolon(t) {
		return cssProperty
	}
	return cssSkip
}

// cssValue copies tokens through the end of the current declaration.
func cssValue(b *strings.Builder, t *scanner.Token) cssState {
	b.WriteString(t.Value)
	if isSemicolon(t) {
		return cssProperty
	}
	return cssValue
}

func isSemicolon(t *scanner.Token) bool {
	return t.Type == scanner.TokenChar && t.Value == ";"
}
