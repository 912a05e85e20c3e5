// Package reminder emails a notice shortly before each unfinished schedule starts.
package reminder

import (
	"context"
	"fmt"
	"net/mail"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mutabaah/mutabaah/core"
	"github.com/mutabaah/mutabaah/core/schedule"
)

const templateName = "activity_reminder"

// Upcomer lists the unfinished schedules starting inside [from, to].
type Upcomer interface {
	Upcoming(ctx context.Context, from, to time.Time) ([]schedule.Schedule, error)
}

type Service struct {
	schedules Upcomer
	mailer    core.EmailService
	logger    core.Logger
	loc       *time.Location
	lead      time.Duration
	spec      string
	to        []mail.Address
	now       func() time.Time

	mu   sync.Mutex
	sent map[string]time.Time // schedule stamp -> start
	cron *cron.Cron
}

func NewService(schedules Upcomer, mailer core.EmailService, conf *core.Config, logger core.Logger) *Service {
	svc := &Service{
		schedules: schedules,
		mailer:    mailer,
		logger:    logger,
		loc:       conf.Location,
		lead:      conf.Reminder.Lead,
		spec:      conf.Reminder.Spec,
		now:       time.Now,
		sent:      make(map[string]time.Time),
	}
	if conf.Reminder.To != "" {
		to, err := mail.ParseAddressList(conf.Reminder.To)
		if err != nil {
			logger.Error(fmt.Sprintf("reminder: parsing recipients %q: %v", conf.Reminder.To, err), err)
		}
		for _, a := range to {
			svc.to = append(svc.to, *a)
		}
	}
	return svc
}

// Tick sends one reminder per schedule occurrence starting within the lead time.
// It returns the number of reminders sent.
func (svc *Service) Tick(ctx context.Context) (int, error) {
	if len(svc.to) == 0 {
		return 0, nil
	}
	now := svc.now()
	upcoming, err := svc.schedules.Upcoming(ctx, now, now.Add(svc.lead))
	if err != nil {
		return 0, err
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	// forget reminders of occurrences already started
	for stamp, start := range svc.sent {
		if start.Before(now) {
			delete(svc.sent, stamp)
		}
	}

	messages := make([]*core.EmailMessage, 0, len(upcoming))
	for _, s := range upcoming {
		stamp := s.Stamp()
		if _, ok := svc.sent[stamp]; ok {
			continue
		}
		svc.sent[stamp] = s.StartDate
		messages = append(messages, &core.EmailMessage{
			To:           svc.to,
			Subject:      fmt.Sprintf("%s starts soon", s.Title),
			TemplateName: templateName,
			TemplateData: map[string]string{
				"Title":     s.Title,
				"ChildName": s.ChildName,
				"StartTime": s.StartDate.In(svc.loc).Format("15:04"),
			},
		})
	}
	if len(messages) > 0 {
		svc.mailer.SendMessages(messages...)
	}
	return len(messages), nil
}

// Start runs Tick on the configured cron spec until Stop.
func (svc *Service) Start() error {
	c := cron.New(cron.WithLocation(svc.loc))
	_, err := c.AddFunc(svc.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if n, err := svc.Tick(ctx); err != nil {
			svc.logger.Error(fmt.Sprintf("reminder: %v", err), err)
		} else if n > 0 {
			svc.logger.Info(fmt.Sprintf("reminder: sent %d reminder(s)", n))
		}
	})
	if err != nil {
		return err
	}
	svc.cron = c
	c.Start()
	return nil
}

// Stop waits for a running tick to finish.
func (svc *Service) Stop() {
	if svc.cron != nil {
		<-svc.cron.Stop().Done()
	}
}
