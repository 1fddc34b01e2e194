package store

import (
	"context"

	"github.com/aaronsb/playtimed/internal/domain"
)

// seedTemplate is the shape of a built-in message variant seeded on first
// boot. Admins may override any of these through InsertTemplate, which
// upserts on (intention, variant).
type seedTemplate struct {
	intention string
	variant   string
	title     string
	body      string
	icon      string
	urgency   domain.Urgency
}

var seedTemplates = []seedTemplate{
	{"process_start", "default", "{display_name} started", "Keeping an eye on {display_name} for {user}.", "dialog-information", domain.UrgencyLow},
	{"process_end", "default", "{display_name} closed", "{display_name} session for {user} has ended.", "dialog-information", domain.UrgencyLow},
	{"time_warning_30", "default", "30 minutes remaining", "{user} has 30 minutes of gaming time left today.", "appointment-soon", domain.UrgencyNormal},
	{"time_warning_15", "default", "15 minutes remaining", "{user} has 15 minutes of gaming time left today.", "appointment-soon", domain.UrgencyNormal},
	{"time_warning_5", "default", "5 minutes remaining", "{user}'s gaming time ends in 5 minutes.", "appointment-soon", domain.UrgencyCritical},
	{"time_expired", "default", "Time's up", "{user}'s gaming time limit for today has been reached.", "dialog-warning", domain.UrgencyCritical},
	{"grace_period", "default", "Please wrap up", "{user}, please save and close within the grace period.", "dialog-warning", domain.UrgencyCritical},
	{"enforcement", "default", "{display_name} closed", "{display_name} was closed because today's limit was reached.", "dialog-warning", domain.UrgencyCritical},
	{"blocked_launch", "default", "{display_name} is blocked", "{display_name} can't start: {user}'s gaming time for today is used up.", "dialog-error", domain.UrgencyNormal},
	{"outside_hours", "default", "Outside allowed hours", "{display_name} isn't allowed right now for {user}.", "dialog-warning", domain.UrgencyNormal},
	{"discovery", "default", "New activity noticed", "{display_name} looks new — ask an admin to classify it.", "dialog-information", domain.UrgencyLow},
	{"day_reset", "default", "New day, new time", "{user}'s daily gaming time has reset.", "dialog-information", domain.UrgencyLow},
	{"mode_change", "default", "Monitoring mode changed", "Playtimed is now running in {mode} mode.", "dialog-information", domain.UrgencyLow},
}

// seedTemplatesIfEmpty populates message_templates with the built-in
// defaults on first boot, mirroring the original implementation's shipped
// message catalogue. It is a no-op once any row exists, so an admin who has
// already customised templates is never overwritten.
func (s *Store) seedTemplatesIfEmpty(ctx context.Context) error {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM message_templates`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, t := range seedTemplates {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO message_templates (intention, variant, title, body, icon, urgency, enabled)
			VALUES (?, ?, ?, ?, ?, ?, 1)
			ON CONFLICT(intention, variant) DO NOTHING
		`, t.intention, t.variant, t.title, t.body, t.icon, t.urgency); err != nil {
			return err
		}
	}
	return tx.Commit()
}
