package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/orgchart/pkg/avatar"
	"github.com/matzehuels/orgchart/pkg/graph"
	"github.com/matzehuels/orgchart/pkg/layout"
	"github.com/matzehuels/orgchart/pkg/render/sink"
)

// Render generates output artifacts in the requested formats from the
// layout's current positions.
func Render(ctx context.Context, l *layout.Layout, opts Options, avatars avatar.Result) (map[string][]byte, error) {
	sinkOpts := buildSinkOptions(opts, avatars)
	artifacts := make(map[string][]byte, len(opts.Formats))

	var dot string
	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data, err = sink.RenderSVG(l, sinkOpts...)
		case FormatPNG:
			data, err = sink.RenderPNG(l, sinkOpts...)
		case FormatJSON:
			data, err = sink.RenderJSON(l, sinkOpts...)
		case FormatDOT, FormatGraphviz:
			if dot == "" {
				dot = sink.ToDOT(l, sink.DOTOptions{Pinned: true, Members: opts.Members})
			}
			if format == FormatDOT {
				data = []byte(dot)
			} else {
				data, err = sink.RenderGraphviz(ctx, dot)
			}
		case FormatGraph:
			// The cleaned graph the layout ran on, loadable as a roster.
			data, err = graph.MarshalGraph(&graph.Graph{Nodes: l.Nodes(), Links: l.Links()})
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}

// buildSinkOptions builds the options shared by the SVG, PNG and JSON sinks.
func buildSinkOptions(opts Options, avatars avatar.Result) []sink.Option {
	var sinkOpts []sink.Option

	if opts.Width > 0 && opts.Height > 0 {
		sinkOpts = append(sinkOpts, sink.WithSize(opts.Width, opts.Height))
	}
	if opts.Focus != "" {
		sinkOpts = append(sinkOpts, sink.WithFocus(opts.Focus))
	}
	if opts.EmbedFont {
		sinkOpts = append(sinkOpts, sink.WithEmbeddedFont())
	}
	if opts.Scale > 0 {
		sinkOpts = append(sinkOpts, sink.WithScale(opts.Scale))
	}
	if len(avatars.Avatars) > 0 {
		sinkOpts = append(sinkOpts,
			sink.WithAvatarHrefs(avatars.Hrefs()),
			sink.WithAvatarImages(avatars.Images()),
		)
	}

	return sinkOpts
}
