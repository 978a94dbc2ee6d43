package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/diosesguerreros/vehicle-portal/internal/api/metrics"
	"github.com/diosesguerreros/vehicle-portal/internal/core/domain"
	"github.com/diosesguerreros/vehicle-portal/internal/core/ports"
)

// Validator checks required fields before anything is sent to the backend.
type Validator interface {
	Validate(i any) error
}

// Screen is a page the router can dispatch to.
type Screen interface {
	ID() domain.PageID
	Title() string
	Load(ctx context.Context, sess domain.Session) ScreenView
	Submit(ctx context.Context, sess domain.Session, req SubmitRequest) error
	Delete(ctx context.Context, sess domain.Session, id int) error
}

// SubmitRequest carries one form submission. EditingID zero means create.
type SubmitRequest struct {
	EditingID  int
	Bind       func(any) error
	Attachment *ports.Attachment
}

// FormField describes one input of a screen form.
type FormField struct {
	Name     string   `json:"name"`
	Label    string   `json:"label"`
	Type     string   `json:"type"`
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"`
}

type ScreenRow struct {
	ID    int           `json:"id"`
	Cells []domain.Cell `json:"cells"`
}

// ScreenView is everything a template needs to render a screen.
type ScreenView struct {
	PageID    domain.PageID `json:"page_id"`
	Title     string        `json:"title"`
	Columns   []string      `json:"columns"`
	Rows      []ScreenRow   `json:"rows"`
	Fields    []FormField   `json:"fields,omitempty"`
	FileField string        `json:"file_field,omitempty"`
	CanCreate bool          `json:"can_create"`
	CanEdit   bool          `json:"can_edit"`
	CanDelete bool          `json:"can_delete"`
	Message   string        `json:"message,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// ScreenDefinition binds a screen to one backend collection. Paths may hold
// the placeholders {user_id} (signed-in user) and {id} (record id). An empty
// CreatePath, UpdatePath or DeletePath disables that action.
type ScreenDefinition struct {
	ID              domain.PageID
	Title           string
	ListPath        string
	CreatePath      string
	UpdatePath      string
	DeletePath      string
	EnvelopeKey     string
	Fields          []FormField
	FileField       string
	NotFoundIsEmpty bool
	OwnedBySession  bool
}

// ResourceScreen is the list+form screen for records of type R edited through
// inputs of type I.
type ResourceScreen[R domain.Record, I any] struct {
	def      ScreenDefinition
	api      ports.ResourceAPI
	validate Validator
	log      zerolog.Logger
}

func NewResourceScreen[R domain.Record, I any](def ScreenDefinition, api ports.ResourceAPI, v Validator, log zerolog.Logger) *ResourceScreen[R, I] {
	return &ResourceScreen[R, I]{
		def:      def,
		api:      api,
		validate: v,
		log:      log.With().Str("page", string(def.ID)).Logger(),
	}
}

func (s *ResourceScreen[R, I]) ID() domain.PageID { return s.def.ID }
func (s *ResourceScreen[R, I]) Title() string     { return s.def.Title }

// Load fetches the collection. Failures end up in view.Error.
func (s *ResourceScreen[R, I]) Load(ctx context.Context, sess domain.Session) ScreenView {
	view := s.emptyView()
	if !sess.Authenticated() {
		view.Error = ErrorMessage(domain.ErrNotAuthenticated)
		return view
	}

	var items domain.Records[R]
	err := s.api.List(ctx, sess.Token, expand(s.def.ListPath, sess, 0), s.def.EnvelopeKey, &items)
	if err != nil && !(s.def.NotFoundIsEmpty && errors.Is(err, domain.ErrNotFound)) {
		s.count("load", err)
		s.log.Warn().Err(err).Msg("load failed")
		view.Error = ErrorMessage(err)
		return view
	}
	s.count("load", nil)

	view.Rows = make([]ScreenRow, 0, len(items))
	for _, item := range items {
		view.Rows = append(view.Rows, ScreenRow{ID: item.RecordID(), Cells: item.Cells()})
	}
	return view
}

// Submit creates (EditingID == 0) or updates a record from the bound form.
func (s *ResourceScreen[R, I]) Submit(ctx context.Context, sess domain.Session, req SubmitRequest) error {
	action := "create"
	path := s.def.CreatePath
	if req.EditingID != 0 {
		action = "update"
		path = s.def.UpdatePath
	}
	if path == "" {
		s.count(action, domain.ErrReadOnly)
		return domain.ErrReadOnly
	}
	if !sess.Authenticated() {
		return domain.ErrNotAuthenticated
	}

	in := new(I)
	if req.Bind != nil {
		if err := req.Bind(in); err != nil {
			err = fmt.Errorf("%w: %v", domain.ErrValidation, err)
			s.count(action, err)
			return err
		}
	}
	if s.def.OwnedBySession {
		if owned, ok := any(in).(domain.Owned); ok {
			owned.SetOwner(sess.User.ID)
		}
	}
	if s.validate != nil {
		if err := s.validate.Validate(in); err != nil {
			err = fmt.Errorf("%w: %v", domain.ErrValidation, err)
			s.count(action, err)
			return err
		}
	}

	var file *ports.Attachment
	if req.Attachment != nil && s.def.FileField != "" {
		f := *req.Attachment
		f.Field = s.def.FileField
		file = &f
	}

	target := expand(path, sess, req.EditingID)
	var err error
	if action == "create" {
		err = s.api.Create(ctx, sess.Token, target, in, file)
	} else {
		err = s.api.Update(ctx, sess.Token, target, in, file)
	}
	s.count(action, err)
	if err != nil {
		s.log.Warn().Err(err).Str("action", action).Msg("submit failed")
		return fmt.Errorf("%s %s: %w", action, s.def.ID, err)
	}
	s.log.Info().Str("action", action).Int("id", req.EditingID).Msg("record saved")
	return nil
}

// Delete removes one record.
func (s *ResourceScreen[R, I]) Delete(ctx context.Context, sess domain.Session, id int) error {
	if s.def.DeletePath == "" {
		s.count("delete", domain.ErrReadOnly)
		return domain.ErrReadOnly
	}
	if !sess.Authenticated() {
		return domain.ErrNotAuthenticated
	}
	err := s.api.Delete(ctx, sess.Token, expand(s.def.DeletePath, sess, id))
	s.count("delete", err)
	if err != nil {
		s.log.Warn().Err(err).Int("id", id).Msg("delete failed")
		return fmt.Errorf("delete %s %d: %w", s.def.ID, id, err)
	}
	s.log.Info().Int("id", id).Msg("record deleted")
	return nil
}

func (s *ResourceScreen[R, I]) emptyView() ScreenView {
	var zero R
	cells := zero.Cells()
	cols := make([]string, len(cells))
	for i, c := range cells {
		cols[i] = c.Label
	}
	return ScreenView{
		PageID:    s.def.ID,
		Title:     s.def.Title,
		Columns:   cols,
		Rows:      []ScreenRow{},
		Fields:    s.def.Fields,
		FileField: s.def.FileField,
		CanCreate: s.def.CreatePath != "",
		CanEdit:   s.def.UpdatePath != "",
		CanDelete: s.def.DeletePath != "",
	}
}

func (s *ResourceScreen[R, I]) count(action string, err error) {
	metrics.ScreenActionsTotal.WithLabelValues(string(s.def.ID), action, resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	case errors.Is(err, domain.ErrBusy):
		return "busy"
	default:
		return "error"
	}
}

func expand(path string, sess domain.Session, id int) string {
	if sess.User != nil {
		path = strings.ReplaceAll(path, "{user_id}", strconv.Itoa(sess.User.ID))
	}
	return strings.ReplaceAll(path, "{id}", strconv.Itoa(id))
}

// ErrorMessage turns a screen or session error into the inline text shown to
// the user.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, domain.ErrBusy):
		return "Request already in progress"
	case errors.Is(err, domain.ErrValidation):
		if _, detail, ok := strings.Cut(err.Error(), domain.ErrValidation.Error()+": "); ok {
			return detail
		}
		return "Please check the form"
	case errors.Is(err, domain.ErrNotAuthenticated), errors.Is(err, domain.ErrUnauthorized):
		return "Session expired, please sign in again"
	}
	if msg, ok := domain.ServerMessage(err); ok {
		return msg
	}
	switch {
	case errors.Is(err, domain.ErrForbidden):
		return "You are not allowed to do that"
	case errors.Is(err, domain.ErrReadOnly):
		return "This page is read-only"
	case errors.Is(err, domain.ErrNotFound):
		return "Not found"
	case errors.Is(err, domain.ErrMalformedResponse):
		return "Unexpected response from server"
	case errors.Is(err, domain.ErrNetwork):
		return "Network error"
	default:
		return "Something went wrong"
	}
}

// InFlight tracks the one outstanding request each control may have.
type InFlight struct {
	mu   sync.Mutex
	busy map[string]struct{}
}

func NewInFlight() *InFlight {
	return &InFlight{busy: make(map[string]struct{})}
}

// Begin marks key busy. It fails with ErrBusy while a previous request for the
// same key has not settled; otherwise the returned func releases the key.
func (f *InFlight) Begin(key string) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.busy[key]; ok {
		return nil, domain.ErrBusy
	}
	f.busy[key] = struct{}{}
	return func() {
		f.mu.Lock()
		delete(f.busy, key)
		f.mu.Unlock()
	}, nil
}

// Busy reports whether key has an outstanding request.
func (f *InFlight) Busy(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.busy[key]
	return ok
}
