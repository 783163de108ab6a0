package recommendation

import (
	"context"

	"newsrecs/app/internal/blocks"
	"newsrecs/app/internal/content"
)

// RewritePermalink sends recommendations straight to their story URL. Without a URL, and for
// every other type, the incoming link is returned unchanged.
func RewritePermalink(_ context.Context, link string, record content.Record) string {
	if record.Type != TypeName {
		return link
	}
	if target := record.MetaValue(URLKey); target != "" {
		return target
	}
	return link
}

// RestrictAllowedBlocks limits recommendations to the recommendation block and leaves every
// other allow-list untouched.
func RestrictAllowedBlocks(_ context.Context, allowed blocks.AllowedBlocks, record content.Record) blocks.AllowedBlocks {
	if record.Type != TypeName {
		return allowed
	}
	return blocks.AllowedBlocks{Names: []string{BlockName}}
}

// ScopeEditorAssets keeps the recommendation block's assets off screens that edit other types:
// the block is taken out of the screen's registry before the core enqueuer runs and put back
// once the enqueue phase is over. Nothing happens when the block is not registered.
func ScopeEditorAssets(_ context.Context, screen *blocks.Screen) {
	if screen.Record.Type == TypeName {
		return
	}

	taken, ok := screen.Blocks.Unregister(BlockName)
	if !ok {
		return
	}

	screen.AfterEnqueue(func() {
		if screen.Blocks.IsRegistered(BlockName) {
			return
		}
		_ = screen.Blocks.Register(taken)
	})
}
