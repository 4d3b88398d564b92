package maintenance

import (
	"log/slog"
	"time"

	"github.com/routewatch/routewatch/internal/domain/job"
)

// RegistryOptions configures NewRegistry.
type RegistryOptions struct {
	IncludeOptional bool
	Logger          *slog.Logger
	PingTimeout     time.Duration
}

// NewRegistry builds the batch job list: DefaultJobs, then OptionalJobs when requested.
func NewRegistry(opts RegistryOptions) *job.Registry {
	specs := DefaultJobs
	if opts.IncludeOptional {
		specs = append(append([]Spec(nil), DefaultJobs...), OptionalJobs...)
	}

	reg := job.NewRegistry()
	for _, spec := range specs {
		reg.MustRegister(spec.Name, NewJob(spec, opts.Logger, opts.PingTimeout))
	}
	return reg
}
