// Package modkit wires API modules: shared deps, build options and the module contract
package modkit

import "transitplan/internal/modkit/module"

// Module is the contract every API module satisfies
type Module = module.Module
