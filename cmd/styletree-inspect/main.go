// Command styletree-inspect prints a page fixture's style tree with the form
// names its interactive nodes submit under and any structural problems.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/AtRiskMedia/styletree-go/internal/domain/entities/content"
	"github.com/AtRiskMedia/styletree-go/internal/domain/entities/rendering"
	"github.com/AtRiskMedia/styletree-go/internal/infrastructure/observability/logging"
	persistence "github.com/AtRiskMedia/styletree-go/internal/infrastructure/persistence/content"
	"github.com/AtRiskMedia/styletree-go/internal/presentation/templates"
	"github.com/AtRiskMedia/styletree-go/internal/presentation/templates/elements"
)

type styles struct {
	title   lipgloss.Style
	tag     lipgloss.Style
	id      lipgloss.Style
	name    lipgloss.Style
	flag    lipgloss.Style
	warning lipgloss.Style
	ok      lipgloss.Style
}

func newStyles(plain bool) styles {
	if plain {
		s := lipgloss.NewStyle()
		return styles{s, s, s, s, s, s, s}
	}
	return styles{
		title:   lipgloss.NewStyle().Foreground(lipgloss.Color("#AD8CFF")).Bold(true),
		tag:     lipgloss.NewStyle().Foreground(lipgloss.Color("#5FD7FF")),
		id:      lipgloss.NewStyle().Faint(true),
		name:    lipgloss.NewStyle().Foreground(lipgloss.Color("#87D787")),
		flag:    lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD75F")),
		warning: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F")).Bold(true),
		ok:      lipgloss.NewStyle().Foreground(lipgloss.Color("#87D787")),
	}
}

func main() {
	lang := flag.String("lang", "", "language used to resolve form names (defaults to the page default)")
	plain := flag.Bool("plain", false, "disable colors")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: styletree-inspect [flags] <page.yaml|page.json>...\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := logging.DefaultLoggerConfig()
	cfg.Output = os.Stderr
	cfg.DefaultLevel = slog.LevelWarn
	logger, err := logging.NewChanneledLogger(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Close()

	loader := persistence.NewFilePageLoader("", templates.ParseTree, logger)
	st := newStyles(*plain)
	registry := templates.DefaultRegistry()

	problems := 0
	for _, path := range flag.Args() {
		file, err := loader.LoadFile(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, st.warning.Render(fmt.Sprintf("%s: %v", path, err)))
			problems++
			continue
		}
		problems += inspect(os.Stdout, file.Page, registry, *lang, st)
	}
	if problems > 0 {
		os.Exit(1)
	}
}

// inspect writes the tree of page and returns the number of problems found.
func inspect(w io.Writer, page *content.Page, registry *templates.Registry, lang string, st styles) int {
	dictionary := page.Dictionary(nil, "en").WithCurrent(lang)
	primary := dictionary.Primary()

	header := st.title.Render(fmt.Sprintf("%s (%s)", page.Title, page.ID))
	langs := st.id.Render("languages: " + strings.Join(dictionary.Languages, ", ") + " default: " + dictionary.Default)

	var lines []string
	var walk func(n *rendering.StyleNode, depth int)
	walk = func(n *rendering.StyleNode, depth int) {
		lines = append(lines, strings.Repeat("  ", depth)+describe(n, registry, primary, st))
		for _, child := range n.Children {
			walk(child, depth+1)
		}
	}
	walk(page.Root, 0)

	diagnostics := templates.Diagnose(page.Root, registry, primary)
	var footer string
	if len(diagnostics) == 0 {
		footer = st.ok.Render("no problems found")
	} else {
		report := make([]string, 0, len(diagnostics))
		for _, d := range diagnostics {
			report = append(report, st.warning.Render(fmt.Sprintf("node %d <%s>: %s", d.NodeID, d.Type, d.Message)))
		}
		footer = lipgloss.JoinVertical(lipgloss.Left, report...)
	}

	fmt.Fprintln(w, lipgloss.JoinVertical(lipgloss.Left, header, langs, "", strings.Join(lines, "\n"), "", footer))
	return len(diagnostics)
}

func describe(n *rendering.StyleNode, registry *templates.Registry, lang string, st styles) string {
	parts := []string{st.tag.Render("<" + n.Type() + ">"), st.id.Render(fmt.Sprintf("#%d", n.ID))}
	if _, ok := registry.Lookup(n.Type()); !ok {
		parts = append(parts, st.warning.Render("unknown"))
		return strings.Join(parts, " ")
	}

	desc := elements.Describe(n.Type())
	if desc.Interactive {
		parts = append(parts, st.name.Render(rendering.FormName(n, lang)))
	}
	var flags []string
	if rendering.HasFieldValue(n, "required", lang) {
		flags = append(flags, "required")
	}
	if desc.Secret {
		flags = append(flags, "secret")
	}
	if desc.Translated {
		flags = append(flags, "translated")
	}
	if desc.MultiValued {
		flags = append(flags, "multi")
	}
	if desc.Upload {
		flags = append(flags, "upload")
	}
	if kind := rendering.ResolveField(n, "option_kind", lang); kind != "" {
		flags = append(flags, "options:"+kind)
	}
	if section := rendering.ResolveField(n, "section", lang); section != "" {
		flags = append(flags, "section:"+section)
	}
	if len(flags) > 0 {
		parts = append(parts, st.flag.Render("["+strings.Join(flags, " ")+"]"))
	}
	return strings.Join(parts, " ")
}
