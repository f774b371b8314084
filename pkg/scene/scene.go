// Package scene builds immutable 3D scene snapshots from alignment
// results.
//
// A Scene is pure data: layers of colored points stacked along z,
// dashed correspondence lines between layers, and optional endpoint
// markers. Builders normalize their inputs once at construction
// (defensive copies, coordinate rescaling, subsampling) and Build
// derives the scene from that snapshot; rendering lives in pkg/render.
package scene

// Vec3 is a point in scene space. Layer coordinates are normalized to
// [0,1] on x/y when rescaling is enabled; z encodes the layer depth.
type Vec3 struct {
	X, Y, Z float64
}

// Point is one scattered cell.
type Point struct {
	Pos   Vec3
	Color string // hex color
	Size  float64
	Alpha float64
}

// Layer groups the points of one dataset at a fixed depth.
type Layer struct {
	Name   string
	Z      float64
	Points []Point
}

// Line is a correspondence drawn between two layers.
type Line struct {
	From, To Vec3
	Color    string
	Width    float64
	Alpha    float64
	Dashed   bool
}

// Marker is an emphasized endpoint dot drawn above the scatter.
type Marker struct {
	Pos   Vec3
	Color string
	Size  float64
}

// Scene is the finished snapshot handed to a renderer.
type Scene struct {
	Layers  []Layer
	Lines   []Line
	Markers []Marker

	// Colors is the category→color legend used for the scatter,
	// empty when points are colored by expression or uniformly.
	Colors map[string]string
}
