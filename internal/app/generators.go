package app

import (
	"github.com/packsmith/pipegen/generators/gitlab"
	"github.com/packsmith/pipegen/internal/generator"
)

// coreGenerators is the definitive list of all pipeline generators that are
// compiled into the pipegen binary.
var coreGenerators = []generator.Generator{
	gitlab.New(),
}
