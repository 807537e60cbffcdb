package services

import (
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/AtRiskMedia/styletree-go/internal/domain/binding"
	"github.com/AtRiskMedia/styletree-go/internal/domain/entities/content"
	"github.com/AtRiskMedia/styletree-go/internal/domain/entities/rendering"
	"github.com/AtRiskMedia/styletree-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/styletree-go/internal/infrastructure/security"
	"github.com/AtRiskMedia/styletree-go/internal/presentation/templates"
)

// RuntimeScriptPath serves the client runtime that keeps carriers in sync.
const RuntimeScriptPath = "/runtime/styletree.js"

var documentTemplate = template.Must(template.New("document").Parse(`<!DOCTYPE html>
<html lang="{{.Language}}">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<script src="{{.Runtime}}" defer></script>
</head>
<body data-st-page="{{.PageID}}" data-st-form="{{.FormID}}">
{{.Body}}
</body>
</html>
`))

type documentData struct {
	Language string
	Title    string
	Runtime  string
	PageID   string
	FormID   string
	Body     template.HTML
}

// TokenSettings configures form record tokens.
type TokenSettings struct {
	Secret string
	TTL    time.Duration
}

// RenderRequest describes one render pass.
type RenderRequest struct {
	Ref      string
	Language string
	RecordID string
	// FormID continues an existing form instance; empty starts a new one.
	FormID   string
	Mode     rendering.Mode
	Document bool

	FormMessage string
	FieldErrors map[string]string
}

// RenderResult is the output of one render pass.
type RenderResult struct {
	HTML     string
	PageID   string
	FormID   string
	RecordID string
	Language string
	Mounted  []int
}

// FragmentService renders pages into HTML form instances.
type FragmentService struct {
	pages        *PageService
	options      *OptionService
	binder       *binding.Binder
	registry     *templates.Registry
	assets       rendering.AssetResolver
	tokens       TokenSettings
	prefetchWait time.Duration
	logger       *logging.ChanneledLogger
}

// NewFragmentService creates a new fragment service
func NewFragmentService(
	pages *PageService,
	options *OptionService,
	binder *binding.Binder,
	registry *templates.Registry,
	assets rendering.AssetResolver,
	tokens TokenSettings,
	prefetchWait time.Duration,
	logger *logging.ChanneledLogger,
) *FragmentService {
	if registry == nil {
		registry = templates.DefaultRegistry()
	}
	return &FragmentService{
		pages:        pages,
		options:      options,
		binder:       binder,
		registry:     registry,
		assets:       assets,
		tokens:       tokens,
		prefetchWait: prefetchWait,
		logger:       logger,
	}
}

// Render loads the requested page and renders it as one form instance.
// When option lists are still loading after the first pass it waits up to
// the prefetch window and renders once more.
func (s *FragmentService) Render(ctx context.Context, req RenderRequest) (*RenderResult, error) {
	start := time.Now()

	page, err := s.pages.Load(ctx, req.Ref, req.RecordID)
	if err != nil {
		return nil, err
	}
	if page.Root == nil {
		return nil, fmt.Errorf("page %s has no style tree", page.ID)
	}

	formID := req.FormID
	if formID == "" {
		formID = strings.ToLower(security.GenerateULID())
	}

	dictionary := s.pages.Dictionary(page, req.Language)
	rctx := &rendering.RenderContext{
		PageID:      page.ID,
		RecordID:    req.RecordID,
		FormID:      formID,
		Dictionary:  dictionary,
		Mode:        req.Mode,
		Binder:      s.binder,
		Assets:      s.assets,
		Logger:      s.logger.WithForm(logging.ChannelRender, page.ID, formID),
		FormMessage: req.FormMessage,
		FieldErrors: req.FieldErrors,
	}
	if s.options != nil {
		rctx.Options = s.options
	}
	if formNode := firstForm(page.Root); formNode != nil {
		rctx.FormToken = s.issueToken(page, req.RecordID, formID, formNode.ID, dictionary.Primary())
	}

	renderer := templates.NewNodeRenderer(rctx, s.registry)
	body := renderer.Render(page.Root)

	if s.options != nil {
		s.options.Retain(formID, rctx.Mounted())
		if s.prefetchWait > 0 && s.options.Pending(formID) {
			waitCtx, cancel := context.WithTimeout(ctx, s.prefetchWait)
			if s.options.WaitIdle(waitCtx) == nil {
				body = renderer.Render(page.Root)
				s.options.Retain(formID, rctx.Mounted())
			}
			cancel()
		}
	}

	s.binder.Touch(formID)

	if req.Document {
		body, err = s.document(page, dictionary, formID, body)
		if err != nil {
			return nil, err
		}
	}

	s.logger.Render().Debug("Rendered page", "pageId", page.ID, "formId", formID,
		"language", dictionary.Primary(), "mode", string(req.Mode), "duration", time.Since(start))

	return &RenderResult{
		HTML:     body,
		PageID:   page.ID,
		FormID:   formID,
		RecordID: req.RecordID,
		Language: dictionary.Primary(),
		Mounted:  rctx.Mounted(),
	}, nil
}

func (s *FragmentService) issueToken(page *content.Page, recordID, formID string, formNode int, lang string) string {
	token, err := security.IssueFormToken(security.FormClaims{
		PageID:   page.ID,
		RecordID: recordID,
		FormID:   formID,
		FormNode: formNode,
		Language: lang,
	}, s.tokens.Secret, s.tokens.TTL)
	if err != nil {
		s.logger.LogError(logging.ChannelForms, "issue form token", err, map[string]any{"pageId": page.ID})
		return ""
	}
	return token
}

func (s *FragmentService) document(page *content.Page, dictionary rendering.Dictionary, formID, body string) (string, error) {
	title := page.Title
	if title == "" {
		title = page.Slug
	}
	var buf strings.Builder
	err := documentTemplate.Execute(&buf, documentData{
		Language: dictionary.Primary(),
		Title:    title,
		Runtime:  RuntimeScriptPath,
		PageID:   page.ID,
		FormID:   formID,
		Body:     template.HTML(body),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render document: %w", err)
	}
	return buf.String(), nil
}

func firstForm(root *rendering.StyleNode) *rendering.StyleNode {
	var form *rendering.StyleNode
	root.Walk(func(n *rendering.StyleNode) bool {
		if form != nil {
			return false
		}
		if n.Type() == "form" {
			form = n
			return false
		}
		return true
	})
	return form
}
