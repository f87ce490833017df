package dispatch

import "github.com/leadwise/dispatch/types"

// Re-export types from the types subpackage.
//
// Type aliases give users the convenient dispatch.Request, dispatch.Logger,
// etc. while letting internal packages depend on types without importing the
// root package, which would otherwise create an import cycle.
type (
	Operator     = types.Operator
	OperatorInfo = types.OperatorInfo
	Channel      = types.Channel
	Lead         = types.Lead
	LeadProfile  = types.LeadProfile
	Registration = types.Registration
	Request      = types.Request
	WeightEntry  = types.WeightEntry
	Candidate    = types.Candidate
)

// Re-export interfaces from the types subpackage for convenience.
type (
	Selector          = types.Selector
	LeadResolver      = types.LeadResolver
	OperatorDirectory = types.OperatorDirectory
	RequestStore      = types.RequestStore
	Logger            = types.Logger
	MetricsCollector  = types.MetricsCollector
)

// Re-export request status constants from the types subpackage.
const (
	RequestOpen   = types.RequestOpen
	RequestClosed = types.RequestClosed
)
