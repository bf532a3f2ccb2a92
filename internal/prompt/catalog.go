package prompt

import (
	"encoding/json"
	"log"
	"os"
	"sync"
)

// EnhancementType selects which instruction template governs prompt
// construction.
type EnhancementType string

const (
	TypeFullSpecification EnhancementType = "full_specification"
	TypeEnhancedPrompt    EnhancementType = "enhanced_prompt"
	TypeRephrase          EnhancementType = "rephrase"
	TypeCustom            EnhancementType = "custom"
	TypeDefault           EnhancementType = "default"
)

// CatalogEntry holds the instruction template for one enhancement type.
type CatalogEntry struct {
	SystemPrompt        string   `json:"system_prompt"`
	Title               string   `json:"title"`
	DescriptionTemplate string   `json:"description_template"`
	StructureSections   []string `json:"structure_sections"`
	RequirementsBullets []string `json:"requirements_bullets"`
}

// Catalog maps enhancement types to instruction templates. It is loaded
// once at startup from a JSON file and is safe for concurrent lookups;
// Reload replaces the whole mapping atomically.
type Catalog struct {
	mu      sync.RWMutex
	path    string
	entries map[EnhancementType]CatalogEntry
}

// catalogFile is the on-disk shape of the prompt configuration file.
type catalogFile struct {
	Instructions map[string]CatalogEntry `json:"instructions"`
}

// LoadCatalog reads the instruction catalog from path. A missing or
// corrupt file falls back to the built-in catalog rather than failing:
// the service must always be able to resolve a system prompt.
func LoadCatalog(path string) *Catalog {
	c := &Catalog{path: path}
	c.entries = loadEntries(path)
	return c
}

func loadEntries(path string) map[EnhancementType]CatalogEntry {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf(`{"level":"warn","message":"Prompt config not readable, using built-in catalog","path":"%s","error":"%v"}`, path, err)
		return fallbackEntries()
	}

	var file catalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		log.Printf(`{"level":"error","message":"Invalid prompt config JSON, using built-in catalog","path":"%s","error":"%v"}`, path, err)
		return fallbackEntries()
	}

	entries := fallbackEntries()
	for key, entry := range file.Instructions {
		merged := entries[EnhancementType(key)]
		if entry.SystemPrompt != "" {
			merged.SystemPrompt = entry.SystemPrompt
		}
		if entry.Title != "" {
			merged.Title = entry.Title
		}
		if entry.DescriptionTemplate != "" {
			merged.DescriptionTemplate = entry.DescriptionTemplate
		}
		if len(entry.StructureSections) > 0 {
			merged.StructureSections = entry.StructureSections
		}
		if len(entry.RequirementsBullets) > 0 {
			merged.RequirementsBullets = entry.RequirementsBullets
		}
		entries[EnhancementType(key)] = merged
	}
	return entries
}

// Lookup returns the entry for the given type, falling back to the
// default entry for unknown or empty types. It never fails.
func (c *Catalog) Lookup(t EnhancementType) CatalogEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if entry, ok := c.entries[t]; ok {
		return entry
	}
	return c.entries[TypeDefault]
}

// Types returns the enhancement types the catalog currently knows.
func (c *Catalog) Types() []EnhancementType {
	c.mu.RLock()
	defer c.mu.RUnlock()

	types := make([]EnhancementType, 0, len(c.entries))
	for t := range c.entries {
		types = append(types, t)
	}
	return types
}

// Reload re-reads the catalog from disk so operators can tune prompts
// without a restart. On failure the previous entries stay in place.
func (c *Catalog) Reload() {
	entries := loadEntries(c.path)

	c.mu.Lock()
	c.entries = entries
	c.mu.Unlock()
}

// fallbackEntries is the built-in catalog used when no configuration file
// is available. Every lookup path must resolve through here, so the
// default entry is always present.
func fallbackEntries() map[EnhancementType]CatalogEntry {
	return map[EnhancementType]CatalogEntry{
		TypeDefault: {
			SystemPrompt:        "You are an expert AI coding assistant. Provide detailed, actionable specifications for coding projects.",
			Title:               "Enhanced Specification Request",
			DescriptionTemplate: "Transform the above user request into a comprehensive specification for this {task_type} project.",
			StructureSections: []string{
				"Executive Summary",
				"Functional Requirements",
				"Technical Specifications",
				"Implementation Strategy",
				"Quality Assurance",
				"Success Criteria",
			},
			RequirementsBullets: []string{
				"Provide a detailed, actionable specification that serves as a complete requirements document",
			},
		},
		TypeFullSpecification: {
			SystemPrompt:        "You are an expert business analyst and technical architect specializing in comprehensive project planning. Create detailed functional and non-functional specifications with complete task breakdowns. Your specifications should include clear business benefits, detailed task lists, and proper testing phases.",
			Title:               "Full Specification Request",
			DescriptionTemplate: "Transform the above user request into a complete Business Requirements Specification for this {task_type} project.",
			StructureSections: []string{
				"Executive Summary",
				"Business Benefits",
				"Functional Requirements",
				"Non-Functional Requirements",
				"Task Breakdown",
				"Testing Phases",
				"Success Criteria",
			},
			RequirementsBullets: []string{
				"Include clear business benefits for each major feature",
				"Break work down into discrete, estimable tasks",
				"Define testing phases with entry and exit criteria",
			},
		},
		TypeEnhancedPrompt: {
			SystemPrompt:        "You are an expert AI coding assistant specializing in structured implementation planning. Create clear 8-12 step implementation plans where each step includes both functional and non-functional requirements. Focus on actionable steps with clear requirement alignment.",
			Title:               "Implementation Plan Request",
			DescriptionTemplate: "Transform the above user request into a structured implementation plan for this {task_type} project.",
			StructureSections: []string{
				"Objective",
				"Implementation Steps",
				"Requirement Alignment",
				"Validation",
			},
			RequirementsBullets: []string{
				"Produce 8-12 numbered implementation steps",
				"Tie each step to the functional and non-functional requirements it serves",
			},
		},
		TypeRephrase: {
			SystemPrompt:        "You are an expert technical writer specializing in prompt optimization. Your task is to rephrase user input to make it more concise, clear, and effective for LLM processing while preserving the original intent and requirements.",
			Title:               "Rephrase Request",
			DescriptionTemplate: "Rephrase the above user request for this {task_type} task, preserving its intent.",
			StructureSections:   []string{"Rephrased Request"},
			RequirementsBullets: []string{
				"Preserve the original intent and all stated requirements",
				"Prefer concise, unambiguous phrasing",
			},
		},
		TypeCustom: {
			SystemPrompt:        "You are an expert AI coding assistant.",
			Title:               "Custom Enhancement Request",
			DescriptionTemplate: "Apply the supplied custom instructions to the above user request for this {task_type} task.",
			StructureSections:   []string{"Response"},
			RequirementsBullets: []string{
				"Follow the caller-supplied instructions exactly",
			},
		},
	}
}
