// Package imaging provides the image handling behind item previews.
//
// It decodes and caches source images, builds zoom-dependent thumbnails,
// lays thumbnails out in a numbered grid (the contact sheet), and measures
// page tone for the recognizer's preprocessing step.
//
// # Coordinate System
//
// Pixel coordinates are 0-based with (0,0) at the top-left corner. Grid rows
// and columns are 0-based; item positions are 1-based.
//
// # Zoom
//
// A PreviewCache holds thumbnails at exactly one size. Changing the size
// invalidates every thumbnail explicitly; nothing is regenerated as a side
// effect of layout. Sizes are clamped by the caller to the 100..300 zoom range.
//
// # Thread Safety
//
// ImageCache and PreviewCache are safe for concurrent use. The free functions
// are stateless.
package imaging
