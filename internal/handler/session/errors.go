package session

import (
	"errors"
	"net/http"

	"github.com/devcoregroup/lox/backend/internal/i18n"
	"github.com/devcoregroup/lox/backend/internal/model/lead"
	chatService "github.com/devcoregroup/lox/backend/internal/service/chat"
	"github.com/devcoregroup/lox/backend/internal/service/flow"
	"github.com/devcoregroup/lox/backend/internal/view"
)

// ErrMalformedRequest marks a body or frame that could not be decoded.
var ErrMalformedRequest = errors.New("malformed request")

// Failure is a classified request error.
type Failure struct {
	Status int
	Code   string
	// Key is the localized message; empty means the error text is shown.
	Key    i18n.Key
}

// Classify maps a flow or registry error to its HTTP status and error code.
func Classify(err error) Failure {
	var verr *lead.ValidationError
	switch {
	case errors.As(err, &verr):
		return Failure{http.StatusUnprocessableEntity, string(verr.Kind), verr.Kind.MessageKey()}
	case errors.Is(err, ErrMalformedRequest):
		return Failure{Status: http.StatusBadRequest, Code: "malformed"}
	case errors.Is(err, chatService.ErrSessionNotFound):
		return Failure{Status: http.StatusNotFound, Code: "session_not_found"}
	case errors.Is(err, i18n.ErrUnsupportedLanguage):
		return Failure{Status: http.StatusBadRequest, Code: "unsupported_language"}
	case errors.Is(err, lead.ErrUnknownContactMethod):
		return Failure{Status: http.StatusBadRequest, Code: "unknown_contact_method"}
	case errors.Is(err, flow.ErrEmptyMessage):
		return Failure{Status: http.StatusBadRequest, Code: "empty_message"}
	case errors.Is(err, flow.ErrBusy):
		return Failure{Status: http.StatusConflict, Code: "busy"}
	case errors.Is(err, flow.ErrCompleted):
		return Failure{http.StatusConflict, "completed", i18n.ChatEndedPlaceholder}
	case errors.Is(err, flow.ErrLanguageLocked):
		return Failure{Status: http.StatusConflict, Code: "language_locked"}
	case errors.Is(err, flow.ErrAlreadyStarted):
		return Failure{Status: http.StatusConflict, Code: "already_started"}
	case errors.Is(err, flow.ErrSuggestionNotLive):
		return Failure{Status: http.StatusConflict, Code: "suggestion_not_live"}
	case errors.Is(err, flow.ErrLanguageRequired),
		errors.Is(err, flow.ErrLeadRequired),
		errors.Is(err, flow.ErrNoConversation):
		return Failure{Status: http.StatusConflict, Code: "invalid_state"}
	case errors.Is(err, flow.ErrConnection):
		return Failure{http.StatusBadGateway, "connection", i18n.ConnectionError}
	default:
		return Failure{Status: http.StatusInternalServerError, Code: "internal"}
	}
}

// Attach decorates v with the classified error.
func (f Failure) Attach(v view.View, err error) view.View {
	if f.Key != "" {
		return view.WithError(v, f.Code, f.Key)
	}
	return view.WithMessage(v, f.Code, err.Error())
}
