package recommendation

import (
	"github.com/rotisserie/eris"

	"newsrecs/app/internal/blocks"
)

// Editor script dependencies, by their handles in the block editor host.
var editorScriptDeps = []string{
	"wp-blocks",
	"wp-components",
	"wp-data",
	"wp-edit-post",
	"wp-editor",
	"wp-element",
	"wp-i18n",
	"wp-plugins",
}

// BlockType returns the recommendation block: two inputs bound to the source and URL fields,
// no front-end output.
func (p *Plugin) BlockType() blocks.BlockType {
	tr := p.translator
	return blocks.BlockType{
		Name:        BlockName,
		Title:       tr.T("Recommendation"),
		Description: tr.T("Enter the information for this recommendation."),
		Icon:        "paperclip",
		Category:    "common",
		Keywords:    []string{tr.T("recommendation"), tr.T("source")},
		Supports: blocks.Supports{
			CustomClassName: false,
			HTML:            false,
			Multiple:        false,
		},
		Attributes: map[string]blocks.Attribute{
			"source": {Type: "string", Source: blocks.AttributeSourceMeta, Meta: SourceKey},
			"url":    {Type: "string", Source: blocks.AttributeSourceMeta, Meta: URLKey},
		},
		Controls: []blocks.Control{
			{
				Name:      "source",
				Label:     tr.T("Source"),
				Help:      tr.T("Type the name of the originating publication, e.g. New York Times"),
				InputType: "text",
				Attribute: "source",
			},
			{
				Name:      "url",
				Label:     tr.T("URL"),
				Help:      tr.T("Enter the URL to the news story"),
				InputType: "url",
				Attribute: "url",
			},
		},
		EditorScript: AssetHandle,
		EditorStyle:  AssetHandle,
	}
}

func (p *Plugin) registerBlock(editor *blocks.Editor) error {
	if editor.Blocks().IsRegistered(BlockName) {
		return nil
	}
	if err := editor.Blocks().Register(p.BlockType()); err != nil {
		return eris.Wrap(err, "registering recommendation block")
	}
	return nil
}

func (p *Plugin) registerAssets(assets *blocks.Assets) {
	assets.RegisterScript(blocks.Script{
		Handle:   AssetHandle,
		Src:      "/static/js/editor.js",
		Deps:     editorScriptDeps,
		Version:  AssetVersion,
		InFooter: true,
	})
	assets.RegisterStyle(blocks.Style{
		Handle:  AssetHandle,
		Src:     "/static/css/editor.css",
		Version: AssetVersion,
	})

	if !p.caps.ScriptTranslations() {
		return
	}
	if messages, ok := p.translator.(interface{ ScriptMessages() map[string]string }); ok {
		assets.SetScriptTranslations(AssetHandle, messages.ScriptMessages())
	}
}
