// Package router implements the Message Router: event -> intention ->
// variant selection -> placeholder rendering -> dispatch -> delivery log.
package router

import (
	"context"
	"math/rand"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/aaronsb/playtimed/internal/domain"
)

var placeholder = regexp.MustCompile(`\{(\w+)\}`)

// render substitutes {name}-style placeholders from vars; an unmatched key
// passes through unchanged rather than erroring, matching the original
// router's tolerant formatting.
func render(text string, vars map[string]string) string {
	return placeholder.ReplaceAllStringFunc(text, func(match string) string {
		key := match[1 : len(match)-1]
		if v, ok := vars[key]; ok {
			return v
		}
		return match
	})
}

type Dispatcher interface {
	Dispatch(ctx context.Context, user domain.User, title, body string, urgency domain.Urgency, icon string) (backend string, notificationID int, err error)
}

type Router struct {
	store      domain.Store
	dispatcher Dispatcher
	clock      domain.Clock
	log        *zap.Logger
	rng        *rand.Rand
}

func New(store domain.Store, dispatcher Dispatcher, clock domain.Clock, log *zap.Logger) *Router {
	return &Router{
		store:      store,
		dispatcher: dispatcher,
		clock:      clock,
		log:        log,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Route renders and dispatches one event for the given user, writing a
// MessageLog entry regardless of dispatch success.
func (r *Router) Route(ctx context.Context, user domain.User, ev domain.Event) error {
	templates, err := r.store.ListTemplates(ctx, ev.Intention)
	if err != nil {
		return err
	}
	if len(templates) == 0 {
		if r.log != nil {
			r.log.Warn("no enabled template for intention", zap.String("intention", ev.Intention))
		}
		return nil
	}

	t := templates[r.rng.Intn(len(templates))]
	title := render(t.Title, ev.TemplateVars)
	body := render(t.Body, ev.TemplateVars)

	backend, notificationID, dispatchErr := r.dispatcher.Dispatch(ctx, user, title, body, t.Urgency, t.Icon)
	if dispatchErr != nil && r.log != nil {
		r.log.Warn("notification dispatch failed", zap.String("intention", ev.Intention), zap.Error(dispatchErr))
	}

	templateID := t.ID
	return r.store.AppendMessageLog(ctx, domain.MessageLog{
		Timestamp:      r.clock.Now(),
		User:           user.Name,
		Intention:      ev.Intention,
		TemplateID:     &templateID,
		RenderedTitle:  title,
		RenderedBody:   body,
		Backend:        backend,
		NotificationID: notificationID,
	})
}
