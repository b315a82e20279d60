package app

import (
	"github.com/vk/draftpipe/internal/registry"
	"github.com/vk/draftpipe/modules/hybridsearch"
	"github.com/vk/draftpipe/modules/mockllm"
	"github.com/vk/draftpipe/modules/openaillm"
	"github.com/vk/draftpipe/modules/statusevents"
)

// coreModules is the default set of provider modules compiled into the
// binary. Tests pass their own set to NewApp instead.
var coreModules = []registry.Module{
	&openaillm.Module{},
	&mockllm.Module{},
	&hybridsearch.Module{},
	&statusevents.Module{},
}
