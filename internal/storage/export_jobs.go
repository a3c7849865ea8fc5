package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"fooddiary/internal/core"
)

type exportJobRow struct {
	ID        string `db:"id"`
	Kind      string `db:"kind"`
	StartDate string `db:"start_date"`
	EndDate   string `db:"end_date"`
	Status    string `db:"status"`
	Attempts  int    `db:"attempts"`
	LastError string `db:"last_error"`
	ResultRef string `db:"result_ref"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

func (r exportJobRow) toCore() (core.ExportJob, error) {
	start, err := core.ParseDate(r.StartDate)
	if err != nil {
		return core.ExportJob{}, fmt.Errorf("export job %s: %w", r.ID, err)
	}
	end, err := core.ParseDate(r.EndDate)
	if err != nil {
		return core.ExportJob{}, fmt.Errorf("export job %s: %w", r.ID, err)
	}
	return core.ExportJob{
		ID:        r.ID,
		Kind:      core.ExportKind(r.Kind),
		Range:     core.DateRange{Start: start, End: end},
		Status:    core.JobStatus(r.Status),
		Attempts:  r.Attempts,
		LastError: r.LastError,
		ResultRef: r.ResultRef,
		CreatedAt: parseTime(r.CreatedAt),
		UpdatedAt: parseTime(r.UpdatedAt),
	}, nil
}

const exportJobColumns = `id, kind, start_date, end_date, status, attempts, last_error, result_ref, created_at, updated_at`

// JobStats counts export jobs per status.
type JobStats struct {
	Pending    int `db:"pending"`
	Processing int `db:"processing"`
	Done       int `db:"done"`
	Failed     int `db:"failed"`
}

func (q *Queries) CreateExportJob(ctx context.Context, job core.ExportJob) error {
	now := formatTime(time.Now())
	_, err := q.db.ExecContext(ctx, `INSERT INTO export_jobs (`+exportJobColumns+`)
		VALUES (?, ?, ?, ?, ?, 0, '', '', ?, ?)`,
		job.ID, string(job.Kind), job.Range.Start.String(), job.Range.End.String(), string(core.JobPending), now, now)
	if err != nil {
		return fmt.Errorf("create export job: %w", err)
	}
	return nil
}

func (q *Queries) GetExportJob(ctx context.Context, id string) (core.ExportJob, error) {
	var row exportJobRow
	if err := sqlx.GetContext(ctx, q.db, &row, `SELECT `+exportJobColumns+` FROM export_jobs WHERE id = ?`, id); err != nil {
		return core.ExportJob{}, notFound(err, "export job", id)
	}
	return row.toCore()
}

// PendingExportJobs returns up to limit pending jobs, oldest first.
func (q *Queries) PendingExportJobs(ctx context.Context, limit int) ([]core.ExportJob, error) {
	var rows []exportJobRow
	err := sqlx.SelectContext(ctx, q.db, &rows, `SELECT `+exportJobColumns+` FROM export_jobs
		WHERE status = ? ORDER BY created_at, id LIMIT ?`, string(core.JobPending), limit)
	if err != nil {
		return nil, fmt.Errorf("pending export jobs: %w", err)
	}
	jobs := make([]core.ExportJob, 0, len(rows))
	for _, r := range rows {
		j, err := r.toCore()
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}

// ClaimExportJob moves a pending job to processing. It reports false when
// another consumer already took it or it is not pending.
func (q *Queries) ClaimExportJob(ctx context.Context, id string) (bool, error) {
	res, err := q.db.ExecContext(ctx, `UPDATE export_jobs SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(core.JobProcessing), formatTime(time.Now()), id, string(core.JobPending))
	if err != nil {
		return false, fmt.Errorf("claim export job: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

func (q *Queries) CompleteExportJob(ctx context.Context, id, ref string) error {
	res, err := q.db.ExecContext(ctx, `UPDATE export_jobs SET status = ?, result_ref = ?, last_error = '', attempts = attempts + 1, updated_at = ? WHERE id = ?`,
		string(core.JobDone), ref, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("complete export job: %w", err)
	}
	return requireAffected(res, "export job", id)
}

// RetryExportJob records a failed attempt and returns the job to pending.
func (q *Queries) RetryExportJob(ctx context.Context, id, errMsg string) error {
	res, err := q.db.ExecContext(ctx, `UPDATE export_jobs SET status = ?, last_error = ?, attempts = attempts + 1, updated_at = ? WHERE id = ?`,
		string(core.JobPending), errMsg, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("retry export job: %w", err)
	}
	return requireAffected(res, "export job", id)
}

func (q *Queries) FailExportJob(ctx context.Context, id, errMsg string) error {
	res, err := q.db.ExecContext(ctx, `UPDATE export_jobs SET status = ?, last_error = ?, attempts = attempts + 1, updated_at = ? WHERE id = ?`,
		string(core.JobFailed), errMsg, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("fail export job: %w", err)
	}
	return requireAffected(res, "export job", id)
}

// ResetStaleExportJobs returns jobs left processing by a crashed worker to pending.
func (q *Queries) ResetStaleExportJobs(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, `UPDATE export_jobs SET status = ?, updated_at = ? WHERE status = ? AND updated_at < ?`,
		string(core.JobPending), formatTime(time.Now()), string(core.JobProcessing), formatTime(olderThan))
	if err != nil {
		return 0, fmt.Errorf("reset stale export jobs: %w", err)
	}
	return res.RowsAffected()
}

// CleanupExportJobs deletes finished jobs last touched before cutoff.
func (q *Queries) CleanupExportJobs(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM export_jobs WHERE status IN (?, ?) AND updated_at < ?`,
		string(core.JobDone), string(core.JobFailed), formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("cleanup export jobs: %w", err)
	}
	return res.RowsAffected()
}

func (q *Queries) ExportJobStats(ctx context.Context) (JobStats, error) {
	var s JobStats
	err := sqlx.GetContext(ctx, q.db, &s, `SELECT
		COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0) AS pending,
		COALESCE(SUM(CASE WHEN status = 'processing' THEN 1 ELSE 0 END), 0) AS processing,
		COALESCE(SUM(CASE WHEN status = 'done' THEN 1 ELSE 0 END), 0) AS done,
		COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0) AS failed
		FROM export_jobs`)
	if err != nil {
		return JobStats{}, fmt.Errorf("export job stats: %w", err)
	}
	return s, nil
}
