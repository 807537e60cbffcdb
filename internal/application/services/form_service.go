package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"strings"
	"time"

	"github.com/AtRiskMedia/styletree-go/internal/domain/binding"
	"github.com/AtRiskMedia/styletree-go/internal/domain/entities/content"
	"github.com/AtRiskMedia/styletree-go/internal/domain/entities/rendering"
	"github.com/AtRiskMedia/styletree-go/internal/domain/repositories"
	"github.com/AtRiskMedia/styletree-go/internal/infrastructure/email"
	"github.com/AtRiskMedia/styletree-go/internal/infrastructure/email/templates"
	"github.com/AtRiskMedia/styletree-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/styletree-go/internal/infrastructure/security"
	"github.com/AtRiskMedia/styletree-go/internal/presentation/templates/elements"
)

// Hidden fields every rendered form carries.
const (
	FormIDField    = "_st_form"
	FormTokenField = "_st_token"
)

// Inline form-level messages.
const (
	MessageMissingPage = "This form is not attached to a page and cannot be submitted."
	MessageInvalid     = "Please correct the highlighted fields."
	MessageSinkFailed  = "Your submission could not be saved. Please try again."
	MessageRequired    = "This field is required."
)

// ErrUnknownEditKey is returned for live edits of keys no renderer binds.
var ErrUnknownEditKey = errors.New("unknown binding key")

// FileSaver stores uploaded files.
type FileSaver interface {
	SaveUpload(field, filename string, r io.Reader) (content.StoredFile, error)
}

// Edit is one live edit from the client runtime.
type Edit struct {
	NodeID int    `json:"nodeId"`
	Key    string `json:"key"`
	Value  string `json:"value"`
}

// SubmitRequest is one decoded form post.
type SubmitRequest struct {
	FormID string
	Values url.Values
	Files  map[string][]*multipart.FileHeader
}

// SubmitResult reports the outcome of a submission. A rejected submission
// carries the messages to render inline; bound values stay in the binder.
type SubmitResult struct {
	Accepted     bool              `json:"accepted"`
	SubmissionID string            `json:"submissionId,omitempty"`
	PageID       string            `json:"pageId,omitempty"`
	FormID       string            `json:"formId"`
	RecordID     string            `json:"recordId,omitempty"`
	Language     string            `json:"lang,omitempty"`
	Message      string            `json:"message,omitempty"`
	FieldErrors  map[string]string `json:"fieldErrors,omitempty"`
}

// FormService applies live edits and accepts submissions.
type FormService struct {
	pages   *PageService
	binder  *binding.Binder
	options *OptionService
	sink    repositories.SubmissionSink
	files   FileSaver
	mailer  email.Service
	tokens  TokenSettings
	logger  *logging.ChanneledLogger
	now     func() time.Time
}

// NewFormService creates a new form service. files and mailer may be nil.
func NewFormService(
	pages *PageService,
	binder *binding.Binder,
	options *OptionService,
	sink repositories.SubmissionSink,
	files FileSaver,
	mailer email.Service,
	tokens TokenSettings,
	logger *logging.ChanneledLogger,
) *FormService {
	return &FormService{
		pages:   pages,
		binder:  binder,
		options: options,
		sink:    sink,
		files:   files,
		mailer:  mailer,
		tokens:  tokens,
		logger:  logger,
		now:     time.Now,
	}
}

// Edit stores a live edit of formID. It only touches local state.
func (s *FormService) Edit(formID string, edit Edit) error {
	key := edit.Key
	if key == "" {
		key = "value"
	}
	if key != "value" && key != "active_tab" && !strings.HasPrefix(key, "value@") {
		return fmt.Errorf("%w: %q", ErrUnknownEditKey, key)
	}
	if err := s.binder.Edit(formID, edit.NodeID, key, edit.Value); err != nil {
		return fmt.Errorf("failed to store edit: %w", err)
	}
	s.logger.Forms().Debug("Live edit", "formId", formID, "nodeId", edit.NodeID, "key", key)
	return nil
}

// submittedField is one interactive node with its submitted value.
type submittedField struct {
	node    *rendering.StyleNode
	name    string
	desc    elements.Descriptor
	value   string
	langs   map[string]string
	uploads []*multipart.FileHeader
}

// Submit validates and stores one form post.
func (s *FormService) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	token := req.Values.Get(FormTokenField)
	claims, err := security.ValidateFormToken(token, s.tokens.Secret)
	if err != nil {
		s.logger.Forms().Warn("Rejected form token", "formId", req.FormID, "error", err.Error())
		return nil, fmt.Errorf("%w: %v", repositories.ErrInvalidFormToken, err)
	}
	if req.FormID != "" && claims.FormID != req.FormID {
		return nil, fmt.Errorf("%w: token belongs to another form", repositories.ErrInvalidFormToken)
	}

	result := &SubmitResult{
		PageID:   claims.PageID,
		FormID:   claims.FormID,
		RecordID: claims.RecordID,
	}
	log := s.logger.WithForm(logging.ChannelForms, claims.PageID, claims.FormID)

	if claims.PageID == "" {
		result.Message = MessageMissingPage
		log.Warn("Submission without page id")
		return result, repositories.ErrMissingPage
	}

	page, err := s.pages.Load(ctx, claims.PageID, claims.RecordID)
	if err != nil {
		return nil, fmt.Errorf("failed to load page %s: %w", claims.PageID, err)
	}
	// Fields resolve in the language the form was rendered in.
	dictionary := s.pages.Dictionary(page, claims.Language)
	lang := dictionary.Primary()
	result.Language = lang

	formNode := page.Root.Find(claims.FormNode)
	if formNode == nil {
		formNode = page.Root
	}

	fields := collectFields(formNode, req, dictionary)

	// Submitted values become the form's live state, so a rejected
	// submission re-renders with what the user typed.
	for _, f := range fields {
		if f.desc.Secret {
			continue
		}
		if f.desc.Translated {
			for l, v := range f.langs {
				s.edit(claims.FormID, f.node.ID, binding.TranslationKey("value", l), v)
			}
			continue
		}
		s.edit(claims.FormID, f.node.ID, "value", f.value)
	}

	fieldErrors := make(map[string]string)
	for _, f := range fields {
		if !rendering.HasFieldValue(f.node, "required", lang) {
			continue
		}
		if f.missing(dictionary) {
			fieldErrors[f.name] = MessageRequired
		}
	}
	if len(fieldErrors) > 0 {
		result.Message = MessageInvalid
		result.FieldErrors = fieldErrors
		log.Info("Submission rejected", "invalidFields", len(fieldErrors))
		return result, nil
	}

	submission := &content.Submission{
		ID:       security.GenerateULID(),
		PageID:   page.ID,
		FormID:   claims.FormID,
		FormNode: formNode.ID,
		RecordID: claims.RecordID,
		Values:   make(map[string][]string, len(fields)),
		Created:  s.now().UTC(),
	}
	redacted := make(map[string]bool)

	for _, f := range fields {
		value := f.value
		switch {
		case f.desc.Secret && value != "":
			hashed, err := security.HashPassword(value)
			if err != nil {
				return nil, fmt.Errorf("failed to hash %s: %w", f.name, err)
			}
			value = hashed
			redacted[f.name] = true
		case f.desc.Upload && len(f.uploads) > 0:
			stored, err := s.saveUploads(f)
			if err != nil {
				result.Message = MessageSinkFailed
				log.Error("Failed to store upload", "field", f.name, "error", err.Error())
				return result, nil
			}
			value = mergeUploads(f, stored, lang)
			submission.Files = append(submission.Files, stored...)
			s.edit(claims.FormID, f.node.ID, "value", value)
		}
		submission.Values[f.name] = []string{value}
	}

	if err := s.sink.Store(ctx, submission); err != nil {
		result.Message = MessageSinkFailed
		s.logger.LogError(logging.ChannelForms, "store submission", err, map[string]any{
			"pageId": page.ID, "formId": claims.FormID,
		})
		return result, nil
	}

	result.Accepted = true
	result.SubmissionID = submission.ID
	log.Info("Submission accepted", "submissionId", submission.ID, "fields", len(fields), "files", len(submission.Files))

	s.notify(formNode, page, submission, redacted, lang)

	if err := s.binder.Forget(claims.FormID); err != nil {
		log.Warn("Failed to clear form state", "error", err.Error())
	}
	if s.options != nil {
		s.options.Release(claims.FormID)
	}
	return result, nil
}

func (s *FormService) edit(formID string, nodeID int, key, value string) {
	if err := s.binder.Edit(formID, nodeID, key, value); err != nil {
		s.logger.Forms().Error("Failed to store submitted value", "formId", formID, "nodeId", nodeID, "error", err.Error())
	}
}

func (s *FormService) saveUploads(f submittedField) ([]content.StoredFile, error) {
	if s.files == nil {
		return nil, errors.New("file uploads are not configured")
	}
	limit := len(f.uploads)
	if !f.desc.MultiValued {
		limit = 1
	}
	stored := make([]content.StoredFile, 0, limit)
	for _, fh := range f.uploads[:limit] {
		file, err := fh.Open()
		if err != nil {
			return nil, err
		}
		sf, err := s.files.SaveUpload(f.name, fh.Filename, file)
		file.Close()
		if err != nil {
			return nil, err
		}
		stored = append(stored, sf)
	}
	return stored, nil
}

func (s *FormService) notify(formNode *rendering.StyleNode, page *content.Page, sub *content.Submission, redacted map[string]bool, lang string) {
	to := rendering.ResolveField(formNode, "notify_email", lang)
	if to == "" || s.mailer == nil {
		return
	}
	title := page.Title
	if title == "" {
		title = page.Slug
	}
	err := s.mailer.SendSubmissionNotification(to, templates.SubmissionEmailProps{
		PageTitle:    title,
		SubmissionID: sub.ID,
		RecordID:     sub.RecordID,
		Values:       sub.Values,
		Redacted:     redacted,
	})
	if err != nil {
		s.logger.LogError(logging.ChannelForms, "send submission notification", err, map[string]any{
			"submissionId": sub.ID,
		})
	}
}

// collectFields reads the submitted value of every interactive node under
// form, in tree order.
func collectFields(form *rendering.StyleNode, req SubmitRequest, dictionary rendering.Dictionary) []submittedField {
	lang := dictionary.Primary()
	var fields []submittedField

	form.Walk(func(n *rendering.StyleNode) bool {
		desc := elements.Describe(n.Type())
		if !desc.Interactive || rendering.HasFieldValue(n, "disabled", lang) {
			return true
		}
		name := rendering.FormName(n, lang)
		f := submittedField{node: n, name: name, desc: desc}

		delimiter := rendering.ResolveField(n, "delimiter", lang)
		if delimiter == "" {
			delimiter = binding.DefaultDelimiter
		}

		switch {
		case desc.Translated:
			f.value = req.Values.Get(name)
			decoded, _ := binding.DecodeTranslations(f.value)
			f.langs = make(map[string]string, len(dictionary.Languages))
			for _, l := range dictionary.Languages {
				f.langs[l] = decoded[l]
			}
			f.value = binding.EncodeTranslations(dictionary.Languages, f.langs)
		case desc.Toggle:
			on, off := elements.ToggleValues(n, lang)
			f.value = binding.Toggle(req.Values.Get(name), on, off)
		case desc.MultiValued:
			f.value = binding.JoinValues(req.Values[name], delimiter)
		default:
			f.value = req.Values.Get(name)
		}
		if desc.Upload && req.Files != nil {
			for _, fh := range req.Files[name+elements.UploadSuffix] {
				// Browsers post an empty part for an untouched file input.
				if fh.Filename != "" && fh.Size > 0 {
					f.uploads = append(f.uploads, fh)
				}
			}
		}
		fields = append(fields, f)
		return true
	})
	return fields
}

// missing reports whether a required field has no usable value.
func (f submittedField) missing(dictionary rendering.Dictionary) bool {
	switch {
	case f.desc.Translated:
		return strings.TrimSpace(f.langs[dictionary.Default]) == ""
	case f.desc.Toggle:
		on, _ := elements.ToggleValues(f.node, dictionary.Primary())
		return f.value != on
	case f.desc.Upload:
		return strings.TrimSpace(f.value) == "" && len(f.uploads) == 0
	}
	return strings.TrimSpace(f.value) == ""
}

// mergeUploads combines the carrier's existing paths with newly stored ones.
func mergeUploads(f submittedField, stored []content.StoredFile, lang string) string {
	delimiter := rendering.ResolveField(f.node, "delimiter", lang)
	if delimiter == "" {
		delimiter = binding.DefaultDelimiter
	}
	paths := make([]string, 0, len(stored))
	for _, sf := range stored {
		paths = append(paths, sf.Path)
	}
	if !f.desc.MultiValued {
		return paths[0]
	}
	return binding.JoinValues(append(binding.SplitValues(f.value, delimiter), paths...), delimiter)
}
