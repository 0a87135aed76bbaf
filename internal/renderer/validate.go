package renderer

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// voidElements never take a closing tag.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// ValidateMarkup checks that widget markup is well-formed: every opened tag
// is closed, in order, with void elements exempt. Plain text with no tags is
// valid markup.
func ValidateMarkup(markup string) error {
	tokenizer := html.NewTokenizer(strings.NewReader(markup))

	var open []string
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			if err := tokenizer.Err(); err != io.EOF {
				return fmt.Errorf("malformed markup: %w", err)
			}
			if len(open) > 0 {
				return fmt.Errorf("unclosed <%s> tag", open[len(open)-1])
			}
			return nil

		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			if !voidElements[string(name)] {
				open = append(open, string(name))
			}

		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if len(open) == 0 {
				return fmt.Errorf("unexpected closing </%s> tag", name)
			}
			if last := open[len(open)-1]; last != string(name) {
				return fmt.Errorf("closing </%s> tag does not match open <%s>", name, last)
			}
			open = open[:len(open)-1]
		}
	}
}
