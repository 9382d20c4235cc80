// Package imageprocessor reads image headers and applies crop, resize and
// save for export, with OpenCV (gocv) and pure-Go (imaging) engines.
package imageprocessor
