package blocks

import (
	"context"
	"slices"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"newsrecs/app/internal/content"
	"newsrecs/app/internal/hooks"
	applog "newsrecs/app/internal/log"
)

const (
	// EnqueueHook runs while an editor screen collects its assets.
	EnqueueHook = "enqueue_block_editor_assets"
	// AllowedBlocksHook filters the blocks an editor may insert into a record.
	AllowedBlocksHook = "allowed_block_types"
)

// AllowedBlocks is an allow-list of block names. All is the "every block" sentinel and takes
// precedence over Names.
type AllowedBlocks struct {
	All   bool
	Names []string
}

// Allows reports whether name may be inserted.
func (a AllowedBlocks) Allows(name string) bool {
	return a.All || slices.Contains(a.Names, name)
}

// MetaStore is the part of the content store block changes write through.
type MetaStore interface {
	Get(ctx context.Context, id uint) (*content.Record, error)
	SetMeta(ctx context.Context, id uint, key, value string) (string, error)
}

// Change is a new value typed into one block control.
type Change struct {
	Block   string
	Control string
	Value   string
}

// Editor hosts block editing: it owns the global block registry, the editor assets, the
// enqueue phase and the allow-list pipeline.
type Editor struct {
	blocks  *Registry
	assets  *Assets
	enqueue *hooks.ActionChain[*Screen]
	allowed *hooks.FilterChain[AllowedBlocks, content.Record]
	logger  *logrus.Entry
}

// NewEditor returns an editor whose enqueue phase loads the assets of every block type left in
// the screen's registry.
func NewEditor(blocks *Registry, assets *Assets, logger *logrus.Logger) (*Editor, error) {
	if blocks == nil {
		return nil, eris.New("block registry is required")
	}
	if assets == nil {
		return nil, eris.New("asset registry is required")
	}

	editor := &Editor{
		blocks:  blocks,
		assets:  assets,
		enqueue: hooks.NewActionChain[*Screen](EnqueueHook),
		allowed: hooks.NewFilterChain[AllowedBlocks, content.Record](AllowedBlocksHook),
		logger:  applog.Component(logger, "blocks.editor"),
	}
	editor.enqueue.Add(hooks.DefaultPriority, enqueueBlockAssets)

	return editor, nil
}

// Blocks exposes the global block registry.
func (e *Editor) Blocks() *Registry {
	return e.blocks
}

// Assets exposes the asset registry.
func (e *Editor) Assets() *Assets {
	return e.assets
}

// Enqueue exposes the enqueue phase.
func (e *Editor) Enqueue() *hooks.ActionChain[*Screen] {
	return e.enqueue
}

// AllowedFilter exposes the allow-list pipeline.
func (e *Editor) AllowedFilter() *hooks.FilterChain[AllowedBlocks, content.Record] {
	return e.allowed
}

// OpenScreen prepares an editor screen for record: it clones the block registry, runs the
// enqueue phase over the clone, then runs whatever the phase scheduled with AfterEnqueue.
func (e *Editor) OpenScreen(ctx context.Context, record content.Record) *Screen {
	screen := newScreen(record, e.blocks.Clone(), e.assets)
	e.enqueue.Run(ctx, screen)
	screen.finishEnqueue()

	e.logger.WithFields(logrus.Fields{
		"record_id":   record.ID,
		"record_type": record.Type,
		"scripts":     len(screen.scripts),
		"styles":      len(screen.styles),
	}).Debug("editor screen prepared")

	return screen
}

// AllowedBlocks returns the blocks an editor may insert into record.
func (e *Editor) AllowedBlocks(ctx context.Context, record content.Record) AllowedBlocks {
	return e.allowed.Apply(ctx, AllowedBlocks{All: true}, record)
}

// ApplyChange writes a control change to the field its attribute is bound to and returns the
// updated record. Only that one field is written.
func (e *Editor) ApplyChange(ctx context.Context, store MetaStore, id uint, change Change) (*content.Record, error) {
	if store == nil {
		return nil, eris.New("meta store is required")
	}

	block, ok := e.blocks.Get(change.Block)
	if !ok {
		return nil, eris.Wrapf(ErrUnknownBlock, "applying change to %s", change.Block)
	}

	control, ok := block.Control(change.Control)
	if !ok {
		return nil, eris.Wrapf(ErrUnknownControl, "applying change to %s.%s", change.Block, change.Control)
	}

	attr, ok := block.Attributes[control.Attribute]
	if !ok || attr.Source != AttributeSourceMeta || attr.Meta == "" {
		return nil, eris.Errorf("control %s of %s is not bound to a field", control.Name, block.Name)
	}

	record, err := store.Get(ctx, id)
	if err != nil {
		return nil, eris.Wrapf(err, "loading record %d", id)
	}
	if !slices.Contains(record.Blocks, block.Name) {
		return nil, eris.Wrapf(ErrBlockNotInRecord, "applying change to record %d", id)
	}

	stored, err := store.SetMeta(ctx, id, attr.Meta, change.Value)
	if err != nil {
		return nil, eris.Wrapf(err, "writing %s for record %d", attr.Meta, id)
	}

	if record.Meta == nil {
		record.Meta = make(map[string]string)
	}
	record.Meta[attr.Meta] = stored
	return record, nil
}

func enqueueBlockAssets(_ context.Context, screen *Screen) {
	for _, block := range screen.Blocks.All() {
		screen.EnqueueScript(block.EditorScript)
		screen.EnqueueStyle(block.EditorStyle)
	}
}
