// Package content defines the page, record and submission entities the
// engine loads and stores.
package content

import (
	"time"

	"github.com/AtRiskMedia/styletree-go/internal/domain/entities/rendering"
)

// Page is a stored style tree together with its language settings.
type Page struct {
	ID              string               `json:"id" yaml:"id"`
	Slug            string               `json:"slug" yaml:"slug"`
	Title           string               `json:"title" yaml:"title"`
	DefaultLanguage string               `json:"defaultLanguage,omitempty" yaml:"defaultLanguage"`
	Languages       []string             `json:"languages,omitempty" yaml:"languages"`
	Root            *rendering.StyleNode `json:"root" yaml:"-"`
	Created         time.Time            `json:"created"`
	Changed         *time.Time           `json:"changed,omitempty"`
}

// Dictionary returns the page's translation dictionary, falling back to the
// given site defaults when the page does not declare its own.
func (p *Page) Dictionary(siteLanguages []string, siteDefault string) rendering.Dictionary {
	languages := p.Languages
	if len(languages) == 0 {
		languages = siteLanguages
	}
	def := p.DefaultLanguage
	if def == "" {
		def = siteDefault
	}
	return rendering.NewDictionary(languages, def)
}

// RecordRow is one stored record of a section.
type RecordRow struct {
	Section  string           `json:"section"`
	RecordID string           `json:"recordId"`
	Data     rendering.Record `json:"data"`
	Changed  time.Time        `json:"changed"`
}

// OptionRow is one stored option of an option kind.
type OptionRow struct {
	Kind   string `json:"kind"`
	Value  string `json:"value"`
	Label  string `json:"label"`
	Weight int    `json:"weight"`
}

// Submission is one accepted form payload.
type Submission struct {
	ID       string              `json:"id"`
	PageID   string              `json:"pageId"`
	FormID   string              `json:"formId"`
	FormNode int                 `json:"formNode"`
	RecordID string              `json:"recordId,omitempty"`
	Values   map[string][]string `json:"values"`
	Files    []StoredFile        `json:"files,omitempty"`
	Created  time.Time           `json:"created"`
}

// StoredFile is an uploaded file saved under the media directory.
type StoredFile struct {
	Field string `json:"field"`
	Name  string `json:"name"`
	Path  string `json:"path"`
	Size  int64  `json:"size"`
}
