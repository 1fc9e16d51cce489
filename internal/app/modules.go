package app

import (
	"github.com/vk/discretego/internal/registry"
	"github.com/vk/discretego/modules/finitevolume"
	"github.com/vk/discretego/modules/zerodimensional"
)

// coreModules is the definitive list of all spatial method modules that are
// compiled into the discretego binary.
var coreModules = []registry.Module{
	&finitevolume.Module{},
	&zerodimensional.Module{},
}
