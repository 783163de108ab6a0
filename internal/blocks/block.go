package blocks

import (
	"context"
	"io"

	"github.com/rotisserie/eris"

	"newsrecs/app/internal/content"
)

var (
	// ErrAlreadyRegistered is returned when a block name is taken.
	ErrAlreadyRegistered = eris.New("block type already registered")
	// ErrUnknownBlock is returned for block names that are not registered.
	ErrUnknownBlock = eris.New("block type not registered")
	// ErrUnknownControl is returned when a block has no control with the given name.
	ErrUnknownControl = eris.New("block control not found")
	// ErrBlockNotInRecord is returned when a change targets a block the record does not contain.
	ErrBlockNotInRecord = eris.New("block not present in record")
)

// AttributeSourceMeta marks an attribute whose value lives in a record custom field.
const AttributeSourceMeta = "meta"

// Supports lists the editor features a block opts into.
type Supports struct {
	CustomClassName bool
	HTML            bool
	Multiple        bool
}

// Attribute is one value a block edits.
type Attribute struct {
	Type   string
	Source string
	Meta   string
}

// Control is an input rendered in the block form.
type Control struct {
	Name      string
	Label     string
	Help      string
	InputType string
	Attribute string
}

// BlockType describes an editing block.
type BlockType struct {
	Name         string
	Title        string
	Description  string
	Icon         string
	Category     string
	Keywords     []string
	Supports     Supports
	Attributes   map[string]Attribute
	Controls     []Control
	EditorScript string
	EditorStyle  string
	// Render writes the block's front-end markup. Nil means the block saves nothing.
	Render func(ctx context.Context, w io.Writer, record content.Record) error
}

// Control returns the named control.
func (b BlockType) Control(name string) (Control, bool) {
	for _, control := range b.Controls {
		if control.Name == name {
			return control, true
		}
	}
	return Control{}, false
}

// AttributeValues reads the block's meta-sourced attributes from record. Unset fields read as "".
func (b BlockType) AttributeValues(record content.Record) map[string]string {
	values := make(map[string]string, len(b.Attributes))
	for name, attr := range b.Attributes {
		if attr.Source == AttributeSourceMeta {
			values[name] = record.MetaValue(attr.Meta)
		}
	}
	return values
}

func (b BlockType) clone() BlockType {
	out := b
	out.Keywords = append([]string(nil), b.Keywords...)
	out.Controls = append([]Control(nil), b.Controls...)
	if b.Attributes != nil {
		out.Attributes = make(map[string]Attribute, len(b.Attributes))
		for name, attr := range b.Attributes {
			out.Attributes[name] = attr
		}
	}
	return out
}
