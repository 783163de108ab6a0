package http

import (
	"context"
	stdhttp "net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"newsrecs/app/internal/auth"
	"newsrecs/app/internal/blocks"
	"newsrecs/app/internal/content"
	"newsrecs/app/internal/llm"
	"newsrecs/app/internal/widget"
)

const errorFallbackMessage = "We couldn't process your request right now."

// classifyError maps domain errors to a status and a message safe to show to clients.
func classifyError(err error) (int, string) {
	switch {
	case err == nil:
		return stdhttp.StatusInternalServerError, errorFallbackMessage
	case eris.Is(err, auth.ErrInvalidToken):
		return stdhttp.StatusUnauthorized, "A valid editor token is required."
	case eris.Is(err, content.ErrNotFound):
		return stdhttp.StatusNotFound, "We couldn't find that recommendation."
	case eris.Is(err, widget.ErrInstanceNotFound):
		return stdhttp.StatusNotFound, "We couldn't find that widget."
	case eris.Is(err, widget.ErrUnknownSidebar):
		return stdhttp.StatusNotFound, "We couldn't find that sidebar."
	case eris.Is(err, widget.ErrUnknownWidget):
		return stdhttp.StatusBadRequest, "That widget type is not available."
	case eris.Is(err, content.ErrUnknownMeta),
		eris.Is(err, content.ErrUnknownType),
		eris.Is(err, blocks.ErrUnknownBlock),
		eris.Is(err, blocks.ErrUnknownControl):
		return stdhttp.StatusBadRequest, "The change refers to a field that does not exist."
	case eris.Is(err, llm.ErrInvalidStoryURL):
		return stdhttp.StatusBadRequest, "Enter the full http or https address of the story."
	case eris.Is(err, content.ErrTemplateLocked), eris.Is(err, blocks.ErrBlockNotInRecord):
		return stdhttp.StatusConflict, "The recommendation layout is locked."
	default:
		return stdhttp.StatusInternalServerError, errorFallbackMessage
	}
}

// apiError turns err into a problem response. Server errors are logged and reported.
func (s *Server) apiError(ctx context.Context, err error, message string, fields logrus.Fields) error {
	status, public := classifyError(err)
	if status >= stdhttp.StatusInternalServerError {
		s.recordError(ctx, err, message, fields)
	} else {
		s.logWarning(ctx, err, message, fields)
	}
	return huma.NewError(status, public)
}

// htmlError renders the error page for err.
func (s *Server) htmlError(ctx context.Context, err error, message string, fields logrus.Fields) (*htmlResponse, error) {
	status, public := classifyError(err)
	if status >= stdhttp.StatusInternalServerError {
		s.recordError(ctx, err, message, fields)
	} else {
		s.logWarning(ctx, err, message, fields)
	}
	return s.renderErrorResponse(ctx, status, public)
}

func (s *Server) logWarning(ctx context.Context, err error, message string, fields logrus.Fields) {
	if s.logger == nil || err == nil {
		return
	}
	entry := s.logger.WithField("error", err.Error())
	if fields != nil {
		entry = entry.WithFields(fields)
	}
	if requestID := RequestIDFromContext(ctx); requestID != "" {
		entry = entry.WithField("request_id", requestID)
	}
	entry.Warn(message)
}

func (s *Server) recordError(ctx context.Context, err error, message string, fields logrus.Fields) {
	if err == nil {
		return
	}

	if s.logger != nil {
		entry := s.logger.WithField("error", err.Error())
		if fields != nil {
			entry = entry.WithFields(fields)
		}
		if requestID := RequestIDFromContext(ctx); requestID != "" {
			entry = entry.WithField("request_id", requestID)
		}
		entry.Error(message)
	}

	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.CaptureException(err)
		return
	}
	if s.sentry != nil {
		s.sentry.CaptureException(err)
	}
}

// authorize verifies the bearer token and returns a context carrying the editor.
func (s *Server) authorize(ctx context.Context, header string) (context.Context, error) {
	editor, err := s.tokens.Verify(header)
	if err != nil {
		return ctx, err
	}
	return withEditor(ctx, editor), nil
}
