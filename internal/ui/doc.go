// Package ui implements the nestmap terminal viewer using Bubbletea.
//
// The treemap is laid out in pixels by the core controller and then mapped
// onto 8x16 pixel terminal cells, so the same layout options that drive a
// graphical surface drive the terminal one.
package ui
