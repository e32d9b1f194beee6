package module

import "transitplan/internal/services/planning/domain"

// Ports exported by the planning module
type Ports struct {
	Planner domain.ServicePort
}

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }
