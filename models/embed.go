package models

import "embed"

// FS contains the models that ship with the binary. Both files hold the same two unit
// cubes, named cube1 and cube2, side by side on the X axis.
//
//go:embed cubes.glb cubes.obj
var FS embed.FS

// Default is the model loaded when none is given on the command line.
const Default = "cubes.glb"
