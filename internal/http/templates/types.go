package templates

import "github.com/a-h/templ"

// SiteName is shown in page titles and the shared layout.
const SiteName = "News Recommendations"

// DefaultFooterNote is shown in the shared layout when a page does not supply custom text.
const DefaultFooterNote = "Recommendations link straight to the stories they recommend."

// ErrorPageData holds information for rendering an error view.
type ErrorPageData struct {
	Title       string
	StatusLabel string
	Message     string
}

// AssetView is one script or stylesheet tag on the editor page.
type AssetView struct {
	Handle string
	URL    string
	// Translations is the JSON encoded message catalog of a script, if any.
	Translations string
}

// EditorPageData bundles the editor screen of one record.
type EditorPageData struct {
	Title         string
	RecordID      uint
	RecordTitle   string
	RecordType    string
	Scripts       []AssetView
	Styles        []AssetView
	AllowedBlocks []string
	AllBlocks     bool
	Forms         []templ.Component
}

// WidgetFormPageData wraps a widget settings form.
type WidgetFormPageData struct {
	Title      string
	InstanceID uint
	Sidebar    string
	WidgetName string
	Form       templ.Component
}

// RecordPageData is the public page of a record without an external link.
type RecordPageData struct {
	Title   string
	Article templ.Component
}
