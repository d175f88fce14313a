// Package pkg provides the libraries behind orgchart.
//
// # Overview
//
// Orgchart draws an organisation as bubbles: people are circles sized by
// their wrapped name, teams are clusters of their members, and a force
// simulation spreads the top-level nodes apart while links pull managers
// and reports together.
//
// # Architecture
//
// The typical data flow:
//
//	roster file (CSV, JSON, YAML, TOML)
//	         ↓
//	    [roster] package (records → graph of people and teams)
//	         ↓
//	    [layout] package (team packing + outer force simulation)
//	         ↓
//	    [engine] package (tick scheduler, viewport, scene binding)
//	         ↓
//	    [render/sink] or [server] (files, or a live page over websockets)
//
// # Main Packages
//
// [geom] - Label wrapping and measurement, minimal enclosing circles.
//
// [graph] - The layout input (people, teams, links) and per-tick frames.
//
// [layout] - Radius policy, team packing and the outer simulation, built on
// the generic force simulation in [layout/force].
//
// [viewport] - Pan/zoom transform with eased focus transitions.
//
// [engine] - Mount point tying a layout, the viewport and the scene binder
// behind one mutex, ticked by a pluggable host.
//
// [render/scene] and [render/sink] - Live SVG scene and one-shot renderers.
//
// [pipeline] - parse → layout → avatars → render, shared by the CLI and
// the server.
//
// ## Infrastructure
//
// [config] - YAML config with environment overrides.
//
// [cache] and [avatar] - Cached profile picture downloads (file or Redis).
//
// [observability] - Hook interfaces, with Prometheus metrics in
// [observability/promhooks].
//
// [errors] - Structured error codes.
package pkg
