package store

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/aaronsb/playtimed/internal/domain"
)

func (s *Store) AppendAudit(ctx context.Context, a domain.AuditEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit (timestamp, user, pid, process_name, pattern_id, reason, signal_sent, exit_observed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, a.Timestamp.Unix(), a.User, a.PID, a.ProcessName, a.PatternID, a.Reason, a.SignalSent, boolToInt(a.ExitObserved))
	if err != nil {
		// The error is returned rather than swallowed here; the Daemon
		// Loop logs a failed kill-protocol step and carries on.
		return domain.Wrap(domain.ErrStoreConflict, "AppendAudit", err)
	}
	return nil
}

func (s *Store) ListAudit(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp, user, pid, process_name, pattern_id, reason, signal_sent, exit_observed
		FROM audit ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, domain.Wrap(domain.ErrStoreUnavailable, "ListAudit", err)
	}
	defer rows.Close()

	var out []domain.AuditEntry
	for rows.Next() {
		var a domain.AuditEntry
		var ts int64
		var exitObserved int
		if err := rows.Scan(&a.ID, &ts, &a.User, &a.PID, &a.ProcessName, &a.PatternID, &a.Reason, &a.SignalSent, &exitObserved); err != nil {
			return nil, domain.Wrap(domain.ErrStoreUnavailable, "ListAudit", err)
		}
		a.Timestamp = time.Unix(ts, 0).UTC()
		a.ExitObserved = exitObserved != 0
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) ListTemplates(ctx context.Context, intention string) ([]domain.MessageTemplate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, intention, variant, title, body, icon, urgency, enabled
		FROM message_templates WHERE intention = ? AND enabled = 1
	`, intention)
	if err != nil {
		return nil, domain.Wrap(domain.ErrStoreUnavailable, "ListTemplates", err)
	}
	defer rows.Close()

	var out []domain.MessageTemplate
	for rows.Next() {
		var t domain.MessageTemplate
		var enabled int
		if err := rows.Scan(&t.ID, &t.Intention, &t.Variant, &t.Title, &t.Body, &t.Icon, &t.Urgency, &enabled); err != nil {
			return nil, domain.Wrap(domain.ErrStoreUnavailable, "ListTemplates", err)
		}
		t.Enabled = enabled != 0
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) InsertTemplate(ctx context.Context, t domain.MessageTemplate) (int64, error) {
	enabled := 1
	if !t.Enabled {
		enabled = 0
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO message_templates (intention, variant, title, body, icon, urgency, enabled)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(intention, variant) DO UPDATE SET
			title = excluded.title, body = excluded.body, icon = excluded.icon,
			urgency = excluded.urgency, enabled = excluded.enabled
	`, t.Intention, t.Variant, t.Title, t.Body, t.Icon, t.Urgency, enabled)
	if err != nil {
		return 0, domain.Wrap(domain.ErrStoreConflict, "InsertTemplate", err)
	}
	return res.LastInsertId()
}

func (s *Store) AppendMessageLog(ctx context.Context, m domain.MessageLog) error {
	var templateID sql.NullInt64
	if m.TemplateID != nil {
		templateID = sql.NullInt64{Int64: *m.TemplateID, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO message_log (timestamp, user, intention, template_id, rendered_title, rendered_body, backend, notification_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, m.Timestamp.Unix(), m.User, m.Intention, templateID, m.RenderedTitle, m.RenderedBody, m.Backend, m.NotificationID)
	if err != nil {
		if s.log != nil {
			s.log.Warn("message log write failed", zap.Error(err))
		}
		return nil // non-essential table: log and swallow, per §7
	}
	return nil
}
