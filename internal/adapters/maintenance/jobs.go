// Package maintenance provides the batch's maintenance jobs. Their real work (alerts,
// notifications, external data feeds, exports) lives outside this module; each job here
// only checks that the data store is reachable and reports through the job contract.
package maintenance

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/routewatch/routewatch/internal/domain/job"
	apperrors "github.com/routewatch/routewatch/internal/errors"
)

// Job names, in batch order.
const (
	TrafficAlerts      = "traffic_alerts"
	Notifications      = "notifications"
	NotificationWorker = "notification_worker"
	TrafficJams        = "traffic_jams"
	CemadenRainfall    = "cemaden_rainfall"
	CemadenHydrology   = "cemaden_hydrology"
	XMLExport          = "xml_export"
	EmailAlerts        = "email_alerts"

	// Optional jobs.
	JSONExport   = "json_export"
	RouteHistory = "route_history"
)

// DefaultPingTimeout bounds the store check each job performs.
const DefaultPingTimeout = 5 * time.Second

// ErrStoreUnavailable is the failure reported when the batch runs without a data store.
var ErrStoreUnavailable = errors.New("data store unavailable")

// Spec describes one maintenance job.
type Spec struct {
	Name    string
	Summary string
}

// DefaultJobs is the fixed batch order.
var DefaultJobs = []Spec{
	{Name: TrafficAlerts, Summary: "evaluate traffic alert rules"},
	{Name: Notifications, Summary: "queue user notifications"},
	{Name: NotificationWorker, Summary: "deliver queued notifications"},
	{Name: TrafficJams, Summary: "refresh traffic jam records"},
	{Name: CemadenRainfall, Summary: "import rainfall readings"},
	{Name: CemadenHydrology, Summary: "import hydrological readings"},
	{Name: XMLExport, Summary: "publish the XML feed"},
	{Name: EmailAlerts, Summary: "send alert e-mails"},
}

// OptionalJobs run after DefaultJobs when enabled.
var OptionalJobs = []Spec{
	{Name: JSONExport, Summary: "publish the JSON feed"},
	{Name: RouteHistory, Summary: "archive route history"},
}

// NewJob returns the job for spec. It fails with ErrStoreUnavailable without a store and
// with a data_source error when the store does not answer a ping.
func NewJob(spec Spec, logger *slog.Logger, pingTimeout time.Duration) job.Job {
	if logger == nil {
		logger = slog.Default()
	}
	if pingTimeout <= 0 {
		pingTimeout = DefaultPingTimeout
	}
	logger = logger.With("job", spec.Name)

	return job.Func(func(ctx context.Context, ec job.ExecutionContext) error {
		logger.InfoContext(ctx, "task started", "task", spec.Summary)

		if ec.Degraded() {
			logger.WarnContext(ctx, "task skipped", "reason", ErrStoreUnavailable)
			return ErrStoreUnavailable
		}

		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := ec.DB.PingContext(pingCtx); err != nil {
			return apperrors.DataSource("ping data store", apperrors.MapDBError(err))
		}

		logger.InfoContext(ctx, "task finished")
		return nil
	})
}
