package widget

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/a-h/templ"
	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	applog "newsrecs/app/internal/log"
)

// Service places widget instances in sidebars, updates their settings and renders sidebars.
type Service struct {
	registry  *Registry
	repo      InstanceRepository
	logger    *logrus.Logger
	sentryHub *sentry.Hub

	mu       sync.RWMutex
	sidebars map[string]Sidebar
	order    []string
}

// ServiceOptions configures NewService.
type ServiceOptions struct {
	Registry   *Registry
	Repository InstanceRepository
	Sidebars   []Sidebar
	Logger     *logrus.Logger
	SentryHub  *sentry.Hub
}

// NewService validates the dependencies and indexes the sidebars.
func NewService(opts ServiceOptions) (*Service, error) {
	if opts.Registry == nil {
		return nil, eris.New("widget registry is required")
	}
	if opts.Repository == nil {
		return nil, eris.New("widget instance repository is required")
	}

	svc := &Service{
		registry:  opts.Registry,
		repo:      opts.Repository,
		logger:    opts.Logger,
		sentryHub: opts.SentryHub,
	}
	svc.SetSidebars(opts.Sidebars)
	return svc, nil
}

// SetSidebars replaces the sidebar definitions. Instances stored for sidebars that disappear
// are kept and become visible again if the sidebar returns.
func (s *Service) SetSidebars(sidebars []Sidebar) {
	index := make(map[string]Sidebar, len(sidebars))
	order := make([]string, 0, len(sidebars))
	for _, sidebar := range sidebars {
		if _, dup := index[sidebar.ID]; !dup {
			order = append(order, sidebar.ID)
		}
		index[sidebar.ID] = sidebar
	}

	s.mu.Lock()
	s.sidebars = index
	s.order = order
	s.mu.Unlock()
}

// Sidebars lists the configured sidebars in configuration order.
func (s *Service) Sidebars() []Sidebar {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Sidebar, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.sidebars[id])
	}
	return out
}

func (s *Service) sidebar(id string) (Sidebar, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sidebar, ok := s.sidebars[id]
	return sidebar, ok
}

// Seed creates the configured seed instances of every sidebar that has none yet. Seeds naming
// unregistered widgets are skipped.
func (s *Service) Seed(ctx context.Context) error {
	for _, sidebar := range s.Sidebars() {
		id := sidebar.ID
		if len(sidebar.Seeds) == 0 {
			continue
		}

		count, err := s.repo.CountBySidebar(ctx, id)
		if err != nil {
			return eris.Wrapf(err, "seeding sidebar %s", id)
		}
		if count > 0 {
			continue
		}

		for position, seed := range sidebar.Seeds {
			w, ok := s.registry.Get(seed.Widget)
			if !ok {
				applog.Component(s.logger, "widget").WithFields(logrus.Fields{
					"sidebar": id,
					"widget":  seed.Widget,
				}).Warn("skipping seed for unregistered widget")
				continue
			}

			settings := w.Defaults()
			for k, v := range seed.Settings {
				settings[k] = v
			}
			instance := &Instance{
				Sidebar:  id,
				Position: position,
				IDBase:   w.IDBase(),
				Settings: w.Update(settings, w.Defaults()),
			}
			if err := s.repo.Create(ctx, instance); err != nil {
				s.recordError(logrus.Fields{"sidebar": id, "widget": seed.Widget}, err, "seeding widget instance")
				return eris.Wrapf(err, "seeding sidebar %s", id)
			}
		}
	}
	return nil
}

// Place adds a widget instance at the end of a sidebar.
func (s *Service) Place(ctx context.Context, sidebarID, idBase string, submitted Settings) (*Instance, error) {
	if _, ok := s.sidebar(sidebarID); !ok {
		return nil, eris.Wrapf(ErrUnknownSidebar, "placing widget in %s", sidebarID)
	}
	w, ok := s.registry.Get(idBase)
	if !ok {
		return nil, eris.Wrapf(ErrUnknownWidget, "placing %s", idBase)
	}

	count, err := s.repo.CountBySidebar(ctx, sidebarID)
	if err != nil {
		return nil, eris.Wrapf(err, "placing widget in %s", sidebarID)
	}

	merged := w.Defaults()
	for k, v := range submitted {
		merged[k] = v
	}
	instance := &Instance{
		Sidebar:  sidebarID,
		Position: int(count),
		IDBase:   idBase,
		Settings: w.Update(merged, w.Defaults()),
	}
	if err := s.repo.Create(ctx, instance); err != nil {
		s.recordError(logrus.Fields{"sidebar": sidebarID, "widget": idBase}, err, "placing widget")
		return nil, eris.Wrapf(err, "placing widget in %s", sidebarID)
	}
	return instance, nil
}

// Instance loads a widget instance together with its widget type.
func (s *Service) Instance(ctx context.Context, id uint) (*Instance, Widget, error) {
	instance, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "loading widget instance %d", id)
	}
	if instance == nil {
		return nil, nil, eris.Wrapf(ErrInstanceNotFound, "loading widget instance %d", id)
	}

	w, ok := s.registry.Get(instance.IDBase)
	if !ok {
		return nil, nil, eris.Wrapf(ErrUnknownWidget, "loading widget instance %d", id)
	}
	return instance, w, nil
}

// Form renders the settings form of an instance.
func (s *Service) Form(ctx context.Context, id uint) (templ.Component, *Instance, error) {
	instance, w, err := s.Instance(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return w.Form(instance.ID, s.withDefaults(w, instance.Settings)), instance, nil
}

// Update passes the submitted settings through the widget's Update and stores the result.
func (s *Service) Update(ctx context.Context, id uint, submitted Settings) (*Instance, error) {
	instance, w, err := s.Instance(ctx, id)
	if err != nil {
		return nil, err
	}

	next := w.Update(submitted, instance.Settings)
	if err := s.repo.UpdateSettings(ctx, id, next); err != nil {
		s.recordError(logrus.Fields{"instance_id": id}, err, "updating widget settings")
		return nil, eris.Wrapf(err, "updating widget instance %d", id)
	}

	instance.Settings = next
	return instance, nil
}

// RenderSidebar renders every instance of the sidebar in position order. Instances of widget
// types that are no longer registered are skipped.
func (s *Service) RenderSidebar(ctx context.Context, w io.Writer, sidebarID string) error {
	sidebar, ok := s.sidebar(sidebarID)
	if !ok {
		return eris.Wrapf(ErrUnknownSidebar, "rendering sidebar %s", sidebarID)
	}

	instances, err := s.repo.ListBySidebar(ctx, sidebarID)
	if err != nil {
		return eris.Wrapf(err, "rendering sidebar %s", sidebarID)
	}

	var buf bytes.Buffer
	for _, instance := range instances {
		widgetType, ok := s.registry.Get(instance.IDBase)
		if !ok {
			continue
		}
		if err := widgetType.Render(ctx, &buf, sidebar.Args, s.withDefaults(widgetType, instance.Settings)); err != nil {
			s.recordError(logrus.Fields{"sidebar": sidebarID, "instance_id": instance.ID}, err, "rendering widget")
			return eris.Wrapf(err, "rendering widget instance %d", instance.ID)
		}
	}

	_, err = w.Write(buf.Bytes())
	return err
}

func (s *Service) withDefaults(w Widget, stored Settings) Settings {
	merged := w.Defaults()
	for k, v := range stored {
		merged[k] = v
	}
	return merged
}

func (s *Service) recordError(fields logrus.Fields, err error, message string) {
	if err == nil {
		return
	}

	if s.logger != nil {
		entry := s.logger.WithField("error", err.Error())
		if len(fields) > 0 {
			entry = entry.WithFields(fields)
		}
		entry.Error(message)
	}

	applog.Capture(s.sentryHub, err)
}
