package core

// Size describes the dimensions of a grid or pixel surface.
type Size struct {
	W int
	H int
}
