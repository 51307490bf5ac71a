// Package window shows a display in a desktop window. Dispatched regions are
// blitted into a canvas that the window uploads each frame; pressing O
// outlines the regions as they arrive.
//
// The window needs the ebiten build tag; without it Run returns ErrNoGUI.
package window
