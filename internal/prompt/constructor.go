package prompt

import (
	"fmt"
	"strings"
	"time"

	"github.com/vibe-assistant/backend/internal/config"
	"github.com/vibe-assistant/backend/internal/graph"
	"github.com/vibe-assistant/backend/internal/models"
)

// FileContext is one repository file attached to an enhancement request.
type FileContext struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// EnhancementRequest is the input to the prompt pipeline.
type EnhancementRequest struct {
	UserInput            string          `json:"user_input"`
	EnhancementType      EnhancementType `json:"enhancement_type"`
	CustomInstructions   string          `json:"custom_instructions,omitempty"`
	NFRRequirements      []string        `json:"nfr_requirements,omitempty"`
	FileContext          []FileContext   `json:"file_context,omitempty"`
	ArchitectureLayers   []graph.Layer   `json:"architecture_layers,omitempty"`
	ConsiderArchitecture bool            `json:"consider_architecture,omitempty"`
}

// Metadata describes how a prompt was constructed.
type Metadata struct {
	EnhancementType        EnhancementType `json:"enhancement_type"`
	CustomInstructionsUsed bool            `json:"custom_instructions_used"`
	FileCount              int             `json:"file_count"`
	NFRCount               int             `json:"nfr_count"`
	Timestamp              time.Time       `json:"timestamp"`
}

// ConstructedPrompt is the assembled (system, user) prompt pair. It lives
// for one request only and is discarded after the completion call returns.
type ConstructedPrompt struct {
	SystemPrompt   string   `json:"system_prompt"`
	EnhancedPrompt string   `json:"enhanced_prompt"`
	Metadata       Metadata `json:"metadata"`
}

// Constructor assembles completion prompts from user input, non-functional
// requirements, file excerpts, architecture layers, and the instruction
// catalog. All truncation limits come from the injected configuration.
type Constructor struct {
	cfg     *config.Config
	catalog *Catalog
	now     func() time.Time
}

// NewConstructor creates a prompt constructor.
func NewConstructor(cfg *config.Config, catalog *Catalog) *Constructor {
	return &Constructor{cfg: cfg, catalog: catalog, now: time.Now}
}

// WithClock overrides the timestamp source. Output is deterministic for a
// fixed clock and identical input.
func (pc *Constructor) WithClock(now func() time.Time) *Constructor {
	pc.now = now
	return pc
}

// Construct builds the final prompt pair for a request. Empty user input
// fails with models.ErrInvalidRequest before any provider is consulted.
func (pc *Constructor) Construct(req EnhancementRequest) (*ConstructedPrompt, error) {
	if strings.TrimSpace(req.UserInput) == "" {
		return nil, fmt.Errorf("%w: user input must not be empty", models.ErrInvalidRequest)
	}

	enhType := req.EnhancementType
	if enhType == "" {
		enhType = TypeDefault
	}

	entry := pc.catalog.Lookup(enhType)
	systemPrompt := entry.SystemPrompt
	customUsed := false
	if strings.TrimSpace(req.CustomInstructions) != "" {
		// Custom instructions replace the system prompt only; the body
		// skeleton keeps the custom entry's framing.
		systemPrompt = req.CustomInstructions
		entry = pc.catalog.Lookup(TypeCustom)
		customUsed = true
	}
	if systemPrompt == "" {
		return nil, fmt.Errorf("%w: no system prompt resolved for type %q", models.ErrConfiguration, enhType)
	}

	now := pc.now()
	var b strings.Builder

	pc.writeHeader(&b, entry, enhType, now)
	pc.writeUserRequest(&b, req.UserInput)
	pc.writeRequirements(&b, req.NFRRequirements)
	pc.writeFileContext(&b, req.FileContext)
	archIncluded := pc.writeArchitecture(&b, req)
	pc.writeInstructions(&b, entry, enhType)
	pc.writeGuidelines(&b, entry, archIncluded)

	return &ConstructedPrompt{
		SystemPrompt:   systemPrompt,
		EnhancedPrompt: strings.TrimRight(b.String(), "\n"),
		Metadata: Metadata{
			EnhancementType:        enhType,
			CustomInstructionsUsed: customUsed,
			FileCount:              len(req.FileContext),
			NFRCount:               len(req.NFRRequirements),
			Timestamp:              now,
		},
	}, nil
}

func (pc *Constructor) writeHeader(b *strings.Builder, entry CatalogEntry, t EnhancementType, now time.Time) {
	fmt.Fprintf(b, "# VIBE ASSISTANT - %s\n", strings.ToUpper(entry.Title))
	fmt.Fprintf(b, "**Enhancement Type:** %s\n", typeLabel(t))
	fmt.Fprintf(b, "**Timestamp:** %s\n\n", now.Format("2006-01-02 15:04:05"))
}

func (pc *Constructor) writeUserRequest(b *strings.Builder, input string) {
	b.WriteString("## ORIGINAL USER REQUEST\n")
	fmt.Fprintf(b, "```\n%s\n```\n\n", input)
}

func (pc *Constructor) writeRequirements(b *strings.Builder, reqs []string) {
	if len(reqs) == 0 {
		return
	}
	b.WriteString("## NON-FUNCTIONAL REQUIREMENTS\n")
	b.WriteString("The following non-functional requirements must be incorporated, in priority order:\n")
	for i, req := range reqs {
		fmt.Fprintf(b, "%d. %s\n", i+1, req)
	}
	b.WriteString("\n")
}

func (pc *Constructor) writeFileContext(b *strings.Builder, files []FileContext) {
	if len(files) == 0 {
		return
	}
	b.WriteString("## CODEBASE CONTEXT\n")
	fmt.Fprintf(b, "Selected files for context (%d files):\n\n", len(files))

	shown := files
	if len(shown) > pc.cfg.MaxFileDisplay {
		shown = shown[:pc.cfg.MaxFileDisplay]
	}
	for _, f := range shown {
		fmt.Fprintf(b, "### %s\n", f.Path)
		fmt.Fprintf(b, "```\n%s\n```\n", truncate(f.Content, pc.cfg.PerFileSizeCap))
	}
	if remaining := len(files) - len(shown); remaining > 0 {
		fmt.Fprintf(b, "... and %d more files\n", remaining)
	}
	b.WriteString("\n")
}

// writeArchitecture emits the architecture context section and reports
// whether it was included. When total components exceed the configured
// cap the section degrades to per-layer counts only.
func (pc *Constructor) writeArchitecture(b *strings.Builder, req EnhancementRequest) bool {
	if !req.ConsiderArchitecture || len(req.ArchitectureLayers) == 0 {
		return false
	}

	b.WriteString("## ARCHITECTURE CONTEXT\n")
	total := graph.TotalNodes(req.ArchitectureLayers)
	countsOnly := total > pc.cfg.MaxTotalComponents
	if countsOnly {
		fmt.Fprintf(b, "The planning graph defines %d components across %d layers (summarized):\n", total, len(req.ArchitectureLayers))
	} else {
		fmt.Fprintf(b, "The planning graph defines %d components across %d layers:\n", total, len(req.ArchitectureLayers))
	}

	for _, layer := range req.ArchitectureLayers {
		fmt.Fprintf(b, "- **%s** (%d components)", layer.Name, layer.NodeCount)
		if countsOnly {
			b.WriteString("\n")
			continue
		}

		nodes := layer.Nodes
		if len(nodes) > pc.cfg.MaxComponentsPerLayer {
			nodes = nodes[:pc.cfg.MaxComponentsPerLayer]
		}
		names := make([]string, 0, len(nodes))
		for _, n := range nodes {
			names = append(names, n.Name)
		}
		if len(names) > 0 {
			fmt.Fprintf(b, ": %s", strings.Join(names, ", "))
		}
		if hidden := layer.NodeCount - len(nodes); hidden > 0 {
			fmt.Fprintf(b, " (and %d more)", hidden)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return true
}

func (pc *Constructor) writeInstructions(b *strings.Builder, entry CatalogEntry, t EnhancementType) {
	b.WriteString("## ENHANCEMENT INSTRUCTIONS\n")
	desc := strings.ReplaceAll(entry.DescriptionTemplate, "{task_type}", typeLabel(t))
	b.WriteString(desc)
	b.WriteString("\n\n")

	if len(entry.StructureSections) > 0 {
		b.WriteString("Please provide:\n")
		for i, section := range entry.StructureSections {
			fmt.Fprintf(b, "%d. **%s**\n", i+1, section)
		}
		b.WriteString("\n")
	}
}

func (pc *Constructor) writeGuidelines(b *strings.Builder, entry CatalogEntry, archIncluded bool) {
	b.WriteString("## GUIDELINES\n")
	for _, g := range genericGuidelines {
		fmt.Fprintf(b, "- %s\n", g)
	}
	for _, g := range entry.RequirementsBullets {
		fmt.Fprintf(b, "- %s\n", g)
	}
	if archIncluded {
		for _, g := range architectureGuidelines {
			fmt.Fprintf(b, "- %s\n", g)
		}
	}
}

// genericGuidelines apply to every enhancement regardless of type.
var genericGuidelines = []string{
	"Write clean, readable, and maintainable solutions",
	"Include appropriate error handling and validation",
	"Consider performance implications",
	"Think about testing strategies",
}

// architectureGuidelines are appended only when architecture context was
// included in the body.
var architectureGuidelines = []string{
	"Respect the existing layer boundaries when proposing changes",
	"Call out any new components and which layer they belong to",
}

func typeLabel(t EnhancementType) string {
	return strings.ReplaceAll(string(t), "_", " ")
}

// truncate caps s at limit bytes on a rune boundary, appending a marker
// when content was dropped. A non-positive limit disables truncation.
func truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "\n... [truncated]"
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
