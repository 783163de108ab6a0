package recommendation

import (
	"github.com/rotisserie/eris"

	"newsrecs/app/internal/content"
	"newsrecs/app/internal/sanitize"
)

func (p *Plugin) typeOptions() content.TypeOptions {
	tr := p.translator
	return content.TypeOptions{
		Label:       tr.T("Recommendation"),
		Description: tr.T("Daily Recommendations"),
		Labels: content.Labels{
			Name:            tr.X("Recommendations", "Post Type General Name"),
			SingularName:    tr.X("Recommendation", "Post Type Singular Name"),
			MenuName:        tr.T("Recommendations"),
			AllItems:        tr.T("All Recommendations"),
			ViewItem:        tr.T("View Recommendation"),
			AddNewItem:      tr.T("Add New Recommendation"),
			AddNew:          tr.T("New Recommendation"),
			EditItem:        tr.T("Edit Recommendation"),
			UpdateItem:      tr.T("Update Recommendation"),
			SearchItems:     tr.T("Search recommendations"),
			NotFound:        tr.T("No recommendations found"),
			NotFoundInTrash: tr.T("No recommendations found in Trash"),
		},
		Supports:       []content.Support{content.SupportTitle, content.SupportEditor, content.SupportCustomFields},
		MenuIcon:       "dashicons-paperclip",
		Hierarchical:   false,
		Public:         false,
		ShowInREST:     true,
		ShowUI:         true,
		ShowInMenu:     true,
		ShowInAdminBar: false,
		Rewrite:        false,
		Template:       []string{BlockName},
		TemplateLock:   content.TemplateLockAll,
	}
}

func (p *Plugin) registerType(types *content.TypeRegistry) error {
	if _, err := types.Register(TypeName, p.typeOptions()); err != nil {
		return eris.Wrap(err, "registering recommendation type")
	}
	return nil
}

func (p *Plugin) registerFields(meta *content.MetaRegistry) {
	fields := []struct {
		key         string
		description string
	}{
		{key: SourceKey, description: p.translator.T("Source")},
		{key: URLKey, description: p.translator.T("URL")},
	}

	for _, field := range fields {
		ok := meta.Register(TypeName, field.key, content.MetaOptions{
			ShowInREST:  true,
			Type:        content.MetaTypeString,
			Description: field.description,
			Sanitize:    sanitize.TextField,
			Single:      true,
		})
		if !ok {
			p.logger.WithField("meta_key", field.key).Debug("field registration skipped")
		}
	}
}
