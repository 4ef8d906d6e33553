package parts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"servicedesk/internal/notify"
	"servicedesk/pkg/config"
)

// Reminder nags the admin about pending orders that have sat too long.
// It runs on a cron schedule from main.
type Reminder struct {
	Orders *Repository
	Notify *notify.Dispatcher
	Cfg    config.Config
	Log    *zap.Logger
}

func (rem *Reminder) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	olderThan := time.Duration(rem.Cfg.Notify.ReminderAgeHours) * time.Hour
	stale, err := rem.Orders.ListStalePending(ctx, olderThan)
	if err != nil {
		rem.Log.Error("overdue parts scan failed", zap.Error(err))
		return
	}
	if len(stale) == 0 {
		return
	}
	rem.Log.Info("overdue parts reminder", zap.Int("orders", len(stale)))

	body := DigestBody(stale, olderThan)
	// Date-stamped dedupe key: at most one digest per day even if the
	// schedule fires more often.
	key := "parts-reminder:" + time.Now().Format("2006-01-02")
	rem.Notify.Async(key,
		notify.Message{Channel: notify.ChannelSMS, Recipient: rem.Cfg.Notify.AdminPhone,
			Body: fmt.Sprintf("%d spare part order(s) still pending past %s. Check the pending parts board.", len(stale), olderThan)},
		notify.Message{Channel: notify.ChannelEmail, Recipient: rem.Cfg.Notify.AdminEmail,
			Subject: "Overdue spare part orders", Body: body},
	)
}

// DigestBody renders the overdue orders grouped by tenant, oldest first
// within each group.
func DigestBody(stale []StaleOrder, olderThan time.Duration) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Spare part orders pending for more than %s:\n", olderThan)

	byTenant := map[string][]StaleOrder{}
	var tenantOrder []string
	for _, s := range stale {
		if _, seen := byTenant[s.TenantName]; !seen {
			tenantOrder = append(tenantOrder, s.TenantName)
		}
		byTenant[s.TenantName] = append(byTenant[s.TenantName], s)
	}

	for _, name := range tenantOrder {
		fmt.Fprintf(&b, "\n%s:\n", name)
		for _, s := range byTenant[name] {
			fmt.Fprintf(&b, "  - %dx %s (%s) for service %s, requested %s\n",
				s.Quantity, s.PartName, s.Urgency, s.ServiceID, s.CreatedAt.Format("2006-01-02"))
		}
	}
	return b.String()
}
