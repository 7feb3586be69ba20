package sweeper

import "time"

// Config holds the cron schedules of the periodic billing jobs.
// Schedules use the standard five-field cron syntax or descriptors such as
// "@every 5m"; an empty schedule disables the job.
type Config struct {
	ExpireSchedule   string        `env:"SWEEP_EXPIRE_SCHEDULE" envDefault:"@every 5m"`
	InvoiceSchedule  string        `env:"SWEEP_INVOICE_SCHEDULE" envDefault:"@every 15m"`
	ReminderSchedule string        `env:"SWEEP_REMINDER_SCHEDULE" envDefault:"0 9 * * *"`
	ReminderWindow   time.Duration `env:"SWEEP_REMINDER_WINDOW" envDefault:"72h"`
	JobTimeout       time.Duration `env:"SWEEP_JOB_TIMEOUT" envDefault:"2m"`
}
