// Package sketch owns the shape-classification engine.
//
// Responsibilities: geometric feature extraction from a completed stroke
// (bounding box, aspect ratio, centroid, circularity, vertex angles) and the
// ordered rule cascade that maps those features onto one of the fixed
// object categories.
//
// Dependency rule: sketch depends on nothing above internal/monitoring.
// Capture, rendering, storage and transport live in sibling packages and
// consume the values defined here.
//
// Everything in this package is a pure function of its inputs. A stroke is
// passed by value; no classifier state survives between calls.
package sketch
