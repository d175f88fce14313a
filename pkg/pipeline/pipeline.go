// Package pipeline provides the batch path from a roster file to rendered
// charts.
//
// This package implements the complete parse → layout → render pipeline used
// by the render command and by the server's initial load. By centralizing
// this logic, every entry point builds graphs, settles layouts and renders
// artifacts the same way.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Parse: Read the roster (CSV, JSON, TOML, YAML or a graph document)
//     and build the layout input
//  2. Layout: Load the graph into an engine and settle it synchronously
//  3. Avatars: Optionally download and crop profile pictures
//  4. Render: Generate output in various formats (SVG, PNG, JSON, DOT,
//     Graphviz)
//
// Layouts are never persisted; only avatars go through the cache, inside
// the [avatar.Fetcher] handed to the runner.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(fetcher, logger)
//	opts := pipeline.Options{
//	    Roster:  "team.csv",
//	    Formats: []string{"svg", "png"},
//	    Focus:   "ada",
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	g, records, issues, err := runner.Parse(ctx, opts)
//	e, ticks, err := runner.Layout(ctx, g, opts)
//	artifacts, err := runner.Render(ctx, e, opts, avatars)
//
// [avatar.Fetcher]: github.com/matzehuels/orgchart/pkg/avatar.Fetcher
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/orgchart/pkg/avatar"
	"github.com/matzehuels/orgchart/pkg/errors"
	"github.com/matzehuels/orgchart/pkg/geom"
	"github.com/matzehuels/orgchart/pkg/graph"
	"github.com/matzehuels/orgchart/pkg/layout"
	"github.com/matzehuels/orgchart/pkg/roster"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultMaxTicks bounds the synchronous settle. A default simulation
	// reaches alphaMin after about 300 ticks.
	DefaultMaxTicks = 1000

	// DefaultScale is the PNG resolution factor.
	DefaultScale = 2.0
)

// Format constants for output formats.
const (
	FormatSVG      = "svg"
	FormatPNG      = "png"
	FormatJSON     = "json"
	FormatDOT      = "dot"
	FormatGraphviz = "graphviz"
	FormatGraph    = "graph"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:      true,
	FormatPNG:      true,
	FormatJSON:     true,
	FormatDOT:      true,
	FormatGraphviz: true,
	FormatGraph:    true,
}

// Extension returns the file extension for an output format.
func Extension(format string) string {
	switch format {
	case FormatGraphviz:
		return "graphviz.svg"
	case FormatGraph:
		return "graph.json"
	}
	return format
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
type Options struct {
	// Parse options
	Roster    string       `json:"roster,omitempty"`
	Graph     *graph.Graph `json:"-"`                   // Used instead of Roster when set
	Locations []string     `json:"locations,omitempty"` // Known facility tags; empty accepts any

	// Layout options
	Params   layout.Params `json:"-"`
	MaxTicks int           `json:"max_ticks,omitempty"`

	// Render options
	Formats   []string `json:"formats,omitempty"`
	Width     float64  `json:"width,omitempty"`  // 0 fits the chart
	Height    float64  `json:"height,omitempty"` // 0 fits the chart
	Focus     string   `json:"focus,omitempty"`
	Avatars   bool     `json:"avatars,omitempty"`
	Scale     float64  `json:"scale,omitempty"`
	EmbedFont bool     `json:"embed_font,omitempty"`
	Members   bool     `json:"members,omitempty"` // DOT: draw team members as clusters

	// Runtime options (not serialized)
	Logger   *log.Logger   `json:"-"`
	Measurer geom.Measurer `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Graph is the layout input.
	Graph *graph.Graph

	// Records are the roster rows the graph was built from.
	Records []roster.Record

	// Issues are the recoverable problems found while building the graph
	// and the layout.
	Issues []layout.Issue

	// Frame is the settled layout.
	Frame graph.Frame

	// Avatars holds the fetched pictures and the failures.
	Avatars avatar.Result

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount   int
	PersonCount int
	LinkCount   int
	Ticks       int
	ParseTime   time.Duration
	LayoutTime  time.Duration
	AvatarTime  time.Duration
	RenderTime  time.Duration
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidInput,
			"invalid format: %q (must be one of: svg, png, json, dot, graphviz)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the
// full pipeline. Calling it more than once has no further effect.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForParse(); err != nil {
		return err
	}
	o.SetLayoutDefaults()
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForParse checks that there is something to parse.
func (o *Options) ValidateForParse() error {
	if o.Graph == nil && o.Roster == "" {
		return errors.New(errors.ErrCodeInvalidInput, "roster is required")
	}
	if o.Graph == nil {
		if _, err := roster.FormatOf(o.Roster); err != nil {
			return err
		}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// SetLayoutDefaults sets default values for layout computation.
func (o *Options) SetLayoutDefaults() {
	if o.Params == (layout.Params{}) {
		o.Params = layout.DefaultParams()
	}
	if o.MaxTicks <= 0 {
		o.MaxTicks = DefaultMaxTicks
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Scale <= 0 {
		o.Scale = DefaultScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Width < 0 || o.Height < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "size must not be negative: %gx%g", o.Width, o.Height)
	}
	if o.Focus != "" {
		if err := errors.ValidateNodeID(o.Focus); err != nil {
			return fmt.Errorf("focus: %w", err)
		}
	}
	return nil
}

// Wants reports whether format was requested.
func (o *Options) Wants(format string) bool {
	for _, f := range o.Formats {
		if f == format {
			return true
		}
	}
	return false
}
