package content

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AtRiskMedia/styletree-go/internal/domain/entities/content"
	"github.com/AtRiskMedia/styletree-go/internal/domain/repositories"
	"github.com/AtRiskMedia/styletree-go/internal/infrastructure/observability/logging"
)

// pageFile is the on-disk page fixture layout. The tree is either a nested
// root node or an object with a flat "nodes" list.
type pageFile struct {
	ID              string         `yaml:"id"`
	Slug            string         `yaml:"slug"`
	Title           string         `yaml:"title"`
	DefaultLanguage string         `yaml:"defaultLanguage"`
	Languages       []string       `yaml:"languages"`
	Tree            map[string]any `yaml:"tree"`
	Records         []recordFile   `yaml:"records"`
	Options         []optionFile   `yaml:"options"`
}

type recordFile struct {
	Section string         `yaml:"section"`
	ID      string         `yaml:"id"`
	Data    map[string]any `yaml:"data"`
}

type optionFile struct {
	Kind  string `yaml:"kind"`
	Value string `yaml:"value"`
	Label string `yaml:"label"`
}

// LoadedFile is one decoded fixture.
type LoadedFile struct {
	Path    string
	Page    *content.Page
	Records []*content.RecordRow
	Options []*content.OptionRow
}

// FilePageLoader reads page fixtures (YAML or JSON) from a directory.
type FilePageLoader struct {
	dir    string
	parse  TreeParser
	logger *logging.ChanneledLogger
}

func NewFilePageLoader(dir string, parse TreeParser, logger *logging.ChanneledLogger) *FilePageLoader {
	if parse == nil {
		parse = defaultTreeParser
	}
	return &FilePageLoader{dir: dir, parse: parse, logger: logger}
}

// LoadFile decodes one fixture. The id defaults to the file's base name.
func (l *FilePageLoader) LoadFile(path string) (*LoadedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return l.Decode(path, data)
}

// Decode decodes fixture bytes; name supplies the default id. JSON is a
// subset of YAML so both formats go through the same decoder.
func (l *FilePageLoader) Decode(name string, data []byte) (*LoadedFile, error) {
	var header map[string]any
	if err := yaml.Unmarshal(data, &header); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", name, err)
	}

	var pf pageFile
	_, hasTree := header["tree"]
	_, hasType := header["type"]
	_, hasNodes := header["nodes"]
	switch {
	case hasTree:
		if err := yaml.Unmarshal(data, &pf); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", name, err)
		}
	case hasType || hasNodes:
		// A bare tree document without page metadata.
		pf.Tree = header
	}
	if pf.Tree == nil {
		return nil, fmt.Errorf("%s has no tree", name)
	}

	treeJSON, err := json.Marshal(pf.Tree)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode tree of %s: %w", name, err)
	}
	root, err := l.parse(treeJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to parse tree of %s: %w", name, err)
	}

	if pf.ID == "" {
		base := filepath.Base(name)
		pf.ID = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if pf.Slug == "" {
		pf.Slug = pf.ID
	}
	if pf.Title == "" {
		pf.Title = pf.ID
	}

	out := &LoadedFile{
		Path: name,
		Page: &content.Page{
			ID:              pf.ID,
			Slug:            pf.Slug,
			Title:           pf.Title,
			DefaultLanguage: pf.DefaultLanguage,
			Languages:       pf.Languages,
			Root:            root,
		},
	}
	for _, rf := range pf.Records {
		if rf.Section == "" || rf.ID == "" {
			return nil, fmt.Errorf("%s: record requires section and id", name)
		}
		out.Records = append(out.Records, &content.RecordRow{Section: rf.Section, RecordID: rf.ID, Data: rf.Data})
	}
	for i, of := range pf.Options {
		if of.Kind == "" || of.Value == "" {
			return nil, fmt.Errorf("%s: option requires kind and value", name)
		}
		label := of.Label
		if label == "" {
			label = of.Value
		}
		out.Options = append(out.Options, &content.OptionRow{Kind: of.Kind, Value: of.Value, Label: label, Weight: i})
	}
	return out, nil
}

// LoadAll decodes every .yaml, .yml and .json file of the directory in name
// order. A missing directory yields no fixtures.
func (l *FilePageLoader) LoadAll() ([]*LoadedFile, error) {
	entries, err := os.ReadDir(l.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read pages directory %s: %w", l.dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml", ".json":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var out []*LoadedFile
	for _, name := range names {
		loaded, err := l.LoadFile(filepath.Join(l.dir, name))
		if err != nil {
			return nil, err
		}
		out = append(out, loaded)
	}
	return out, nil
}

// OptionWriter stores option rows.
type OptionWriter interface {
	Store(ctx context.Context, row *content.OptionRow) error
}

// Seed loads every fixture into the repositories.
func (l *FilePageLoader) Seed(ctx context.Context, pages repositories.PageRepository, records repositories.RecordRepository, options OptionWriter) (int, error) {
	files, err := l.LoadAll()
	if err != nil {
		return 0, err
	}
	for _, f := range files {
		if err := pages.Store(ctx, f.Page); err != nil {
			return 0, err
		}
		for _, row := range f.Records {
			if err := records.Store(ctx, row); err != nil {
				return 0, err
			}
		}
		for _, row := range f.Options {
			if err := options.Store(ctx, row); err != nil {
				return 0, err
			}
		}
		l.logger.Content().Info("Seeded page fixture", "pageId", f.Page.ID, "path", f.Path,
			"records", len(f.Records), "options", len(f.Options))
	}
	return len(files), nil
}
