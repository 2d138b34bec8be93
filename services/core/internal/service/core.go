package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/formify-dev/formify/pkg/events"
	"github.com/formify-dev/formify/pkg/logging"
	"github.com/formify-dev/formify/services/core/internal/models"
	"github.com/formify-dev/formify/services/core/internal/repo"
	"github.com/formify-dev/formify/services/core/internal/search"
)

var ErrForbidden = errors.New("not the form owner")

const formEventsTopic = "form_events"

// Indexer is the search-index surface the service needs. Nil disables search.
type Indexer interface {
	IndexForm(ctx context.Context, doc search.FormDoc) error
	DeleteForm(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, viewerID uuid.UUID, query string, from, size int) (int64, []search.FormDoc, error)
}

type CoreService struct {
	Repo     *repo.GormRepo
	Search   Indexer
	Producer *events.Producer
}

// ownedForm loads the form and checks the caller owns it.
func (s *CoreService) ownedForm(ctx context.Context, formID, ownerID uuid.UUID) (*models.Form, error) {
	form, err := s.Repo.GetForm(ctx, formID)
	if err != nil {
		return nil, err
	}
	if form.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	return form, nil
}

func (s *CoreService) publish(ctx context.Context, event map[string]any) {
	if s.Producer == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.Producer.PublishEvent(pubCtx, formEventsTopic, fmt.Sprint(event["form_id"]), event); err != nil {
		logging.FromContext(ctx).Error("event_publish_failed", "topic", formEventsTopic, "error", err)
	}
}

func (s *CoreService) indexForm(ctx context.Context, form *models.Form) {
	if s.Search == nil {
		return
	}
	doc := search.FormDoc{
		ID:          form.ID,
		OwnerID:     form.OwnerID,
		Title:       form.Title,
		Description: form.Description,
		Slug:        form.Slug,
		IsPublic:    form.IsPublic,
	}
	if err := s.Search.IndexForm(ctx, doc); err != nil {
		logging.FromContext(ctx).Error("form_index_failed", "form_id", form.ID, "error", err)
	}
}

func (s *CoreService) unindexForm(ctx context.Context, id uuid.UUID) {
	if s.Search == nil {
		return
	}
	if err := s.Search.DeleteForm(ctx, id); err != nil {
		logging.FromContext(ctx).Error("form_unindex_failed", "form_id", id, "error", err)
	}
}

var slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases the title and collapses everything that is not a letter
// or digit into single dashes.
func Slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = slugInvalid.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		s = "form"
	}
	return s
}
