package blocks

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// Form renders the editor form of block for the given attribute values.
func Form(block BlockType, recordID uint, values map[string]string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		var b strings.Builder
		fmt.Fprintf(&b, `<section class="editor-block" data-block="%s" data-record="%d">`,
			templ.EscapeString(block.Name), recordID)
		if block.Icon != "" {
			fmt.Fprintf(&b, `<span class="dashicons dashicons-%s" aria-hidden="true"></span>`, templ.EscapeString(block.Icon))
		}
		fmt.Fprintf(&b, `<h3 class="editor-block__title">%s</h3>`, templ.EscapeString(block.Title))
		if block.Description != "" {
			fmt.Fprintf(&b, `<p class="editor-block__description">%s</p>`, templ.EscapeString(block.Description))
		}

		for _, control := range block.Controls {
			id := controlID(block.Name, control.Name)
			inputType := control.InputType
			if inputType == "" {
				inputType = "text"
			}

			b.WriteString(`<div class="components-base-control">`)
			fmt.Fprintf(&b, `<label class="components-base-control__label" for="%s">%s</label>`,
				id, templ.EscapeString(control.Label))
			fmt.Fprintf(&b, `<input class="components-text-control__input" id="%s" type="%s" name="%s" value="%s" data-control="%s">`,
				id,
				templ.EscapeString(inputType),
				templ.EscapeString(control.Attribute),
				templ.EscapeString(values[control.Attribute]),
				templ.EscapeString(control.Name),
			)
			if control.Help != "" {
				fmt.Fprintf(&b, `<p class="components-base-control__help">%s</p>`, templ.EscapeString(control.Help))
			}
			b.WriteString(`</div>`)
		}

		b.WriteString(`</section>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func controlID(blockName, controlName string) string {
	replacer := strings.NewReplacer("/", "-", " ", "-")
	return "inspector-" + replacer.Replace(blockName) + "-" + replacer.Replace(controlName)
}
