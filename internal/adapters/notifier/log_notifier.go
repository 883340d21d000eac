package notifier

import (
	"github.com/maghraz/crm/internal/domain/entities"
	"github.com/maghraz/crm/internal/infrastructure/logger"
	"github.com/maghraz/crm/internal/ports"
)

// LogNotifier surfaces reminder alerts through the application log. A
// headless service has no desktop notification channel; this is the
// fallback sink, and the Notifier port is where a push or webhook sender
// would plug in.
type LogNotifier struct {
	logger *logger.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier(appLogger *logger.Logger) ports.Notifier {
	return &LogNotifier{logger: appLogger}
}

// NotifyReminder logs the follow-up alert for one customer.
func (n *LogNotifier) NotifyReminder(customer entities.Customer) {
	n.logger.Warnw("یادآوری پیگیری مشتری",
		"customer_id", customer.ID,
		"name", customer.Name,
		"shop_name", customer.ShopName,
	)
}
