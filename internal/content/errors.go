package content

import "github.com/rotisserie/eris"

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = eris.New("record not found")
	// ErrUnknownType is returned for record types that were never registered.
	ErrUnknownType = eris.New("record type is not registered")
	// ErrUnknownMeta is returned when writing a field that is not registered for the type.
	ErrUnknownMeta = eris.New("meta key is not registered for record type")
	// ErrTemplateLocked is returned when an edit would change a locked block template.
	ErrTemplateLocked = eris.New("record template is locked")
)
