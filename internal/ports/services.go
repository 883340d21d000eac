package ports

import "github.com/maghraz/crm/internal/domain/entities"

// Notifier delivers the user-facing alert for an expired reminder. The
// delivery is fire-and-forget: failures are the notifier's problem and
// never block or roll back the sweep.
type Notifier interface {
	NotifyReminder(customer entities.Customer)
}
