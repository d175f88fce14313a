// Package geom provides the small amount of plane geometry the layout needs.
//
// # Enclosing circles
//
// [Enclose] computes the minimal circle containing a set of circles. Team
// bubbles are sized with it: the packed member circles are enclosed and a
// label margin is added on top.
//
// # Labels
//
// [WrapLabel] splits a display name into lines no wider than a maximum
// width. Widths come from a [Measurer]; [FontMeasurer] uses the embedded Go
// Regular face and [FixedMeasurer] a constant per-rune advance. The number of
// wrapped lines feeds the radius of each person circle.
package geom
