// Package services provides application-level orchestration services.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/AtRiskMedia/styletree-go/internal/domain/entities/content"
	"github.com/AtRiskMedia/styletree-go/internal/domain/entities/rendering"
	"github.com/AtRiskMedia/styletree-go/internal/domain/repositories"
	"github.com/AtRiskMedia/styletree-go/internal/infrastructure/observability/logging"
)

// SiteLanguages are the site-wide language defaults used when a page does
// not declare its own.
type SiteLanguages struct {
	Languages []string
	Default   string
}

// PageService loads pages and binds their sections to records.
type PageService struct {
	pages   repositories.PageRepository
	records repositories.RecordRepository
	site    SiteLanguages
	logger  *logging.ChanneledLogger
}

// NewPageService creates a new page service
func NewPageService(pages repositories.PageRepository, records repositories.RecordRepository, site SiteLanguages, logger *logging.ChanneledLogger) *PageService {
	return &PageService{
		pages:   pages,
		records: records,
		site:    site,
		logger:  logger,
	}
}

// Dictionary returns the translation dictionary of page for lang.
func (s *PageService) Dictionary(page *content.Page, lang string) rendering.Dictionary {
	return page.Dictionary(s.site.Languages, s.site.Default).WithCurrent(lang)
}

// Find resolves ref as a page id, then as a slug.
func (s *PageService) Find(ctx context.Context, ref string) (*content.Page, error) {
	page, err := s.pages.FindByID(ctx, ref)
	if err == nil {
		return page, nil
	}
	if !errors.Is(err, repositories.ErrPageNotFound) {
		return nil, err
	}
	return s.pages.FindBySlug(ctx, ref)
}

// Load returns page ref with every node carrying a "section" field bound to
// that section's records. Descendants without their own section data inherit
// them. recordID narrows each section to one record. The cached tree is never
// modified; bound nodes are copies.
func (s *PageService) Load(ctx context.Context, ref, recordID string) (*content.Page, error) {
	page, err := s.Find(ctx, ref)
	if err != nil {
		return nil, err
	}
	if page.Root == nil || s.records == nil {
		return page, nil
	}

	root, err := s.attach(ctx, page.Root, recordID, nil, map[string][]rendering.Record{})
	if err != nil {
		return nil, fmt.Errorf("failed to attach records to page %s: %w", page.ID, err)
	}
	if root == page.Root {
		return page, nil
	}
	bound := *page
	bound.Root = root
	return &bound, nil
}

func (s *PageService) attach(ctx context.Context, node *rendering.StyleNode, recordID string, inherited []rendering.Record, seen map[string][]rendering.Record) (*rendering.StyleNode, error) {
	if node == nil {
		return nil, nil
	}
	out := node
	if len(inherited) > 0 && len(node.SectionData) == 0 {
		out = out.WithSectionData(inherited)
	}

	if section := rendering.ResolveField(node, "section", ""); section != "" {
		records, ok := seen[section]
		if !ok {
			var err error
			records, err = s.records.FindBySection(ctx, section, recordID)
			if err != nil {
				return nil, err
			}
			seen[section] = records
			s.logger.Content().Debug("Bound section records", "section", section, "recordId", recordID, "count", len(records))
		}
		if len(records) > 0 {
			out = out.WithSectionData(records)
		}
		inherited = records
	}

	var children []*rendering.StyleNode
	for i, child := range node.Children {
		bound, err := s.attach(ctx, child, recordID, inherited, seen)
		if err != nil {
			return nil, err
		}
		if bound != child && children == nil {
			children = make([]*rendering.StyleNode, len(node.Children))
			copy(children, node.Children)
		}
		if children != nil {
			children[i] = bound
		}
	}
	if children != nil {
		out = out.WithChildren(children)
	}
	return out, nil
}
