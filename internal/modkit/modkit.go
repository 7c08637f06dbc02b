package modkit

import "harborlist/internal/modkit/module"

// Module is what api.Mount composes
type Module = module.Module
