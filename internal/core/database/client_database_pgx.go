package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/medscanlabs/mediscan/internal/config"
	"github.com/medscanlabs/mediscan/internal/core"
	"github.com/medscanlabs/mediscan/internal/models"
)

type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (*DatabaseClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Pool sizing for an API service; slow OCR/LLM calls never hold a
	// connection, so a small pool suffices.
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

// DB exposes the underlying pool so the pgvector index backend can share
// the same connections.
func (c *DatabaseClient) DB() *sql.DB {
	return c.db
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// ---------------- reports ----------------

func (c *DatabaseClient) CreateReport(ctx context.Context, report *models.Report) error {
	if report == nil {
		return errors.New("nil report")
	}
	const q = `
		INSERT INTO reports
			(report_id, report_type, report_name, file_url, status, summary, key_findings, insights, recommendations, uploaded_at)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9, COALESCE($10, now()))
	`
	_, err := c.db.ExecContext(ctx, q,
		report.ID, report.ReportType, report.ReportName, report.FileURL, report.Status,
		toJSON(report.Summary), toJSON(report.KeyFindings), toJSON(report.Insights), toJSON(report.Recommendations),
		nullTime(report.UploadedAt),
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", translateErr(err))
	}
	return nil
}

func (c *DatabaseClient) GetReportByID(ctx context.Context, id string) (*models.Report, error) {
	const q = `
		SELECT report_id, report_type, report_name, file_url, status, summary, key_findings, insights, recommendations, uploaded_at
		FROM reports
		WHERE report_id = $1
	`
	var (
		r                                 models.Report
		summary, findings, insights, recs []byte
	)
	err := c.db.QueryRowContext(ctx, q, id).Scan(
		&r.ID, &r.ReportType, &r.ReportName, &r.FileURL, &r.Status,
		&summary, &findings, &insights, &recs, &r.UploadedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("report %s: %w", id, models.ErrReportNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}

	if err := fromJSON(summary, &r.Summary); err != nil {
		return nil, err
	}
	if err := fromJSON(findings, &r.KeyFindings); err != nil {
		return nil, err
	}
	if err := fromJSON(insights, &r.Insights); err != nil {
		return nil, err
	}
	if err := fromJSON(recs, &r.Recommendations); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *DatabaseClient) ListReports(ctx context.Context) ([]models.Report, error) {
	const q = `
		SELECT report_id, report_type, report_name, status, uploaded_at
		FROM reports
		ORDER BY uploaded_at DESC
	`
	rows, err := c.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var out []models.Report
	for rows.Next() {
		var r models.Report
		if err := rows.Scan(&r.ID, &r.ReportType, &r.ReportName, &r.Status, &r.UploadedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) DeleteReport(ctx context.Context, id string) error {
	const q = `DELETE FROM reports WHERE report_id = $1`
	res, err := c.db.ExecContext(ctx, q, id)
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("report %s: %w", id, models.ErrReportNotFound)
	}
	return nil
}

func (c *DatabaseClient) MarkReportIngested(ctx context.Context, id string, summary *models.Summary, insights *models.Insights) error {
	const q = `
		UPDATE reports
		SET status = $2, summary = $3, insights = $4, uploaded_at = now()
		WHERE report_id = $1
	`
	res, err := c.db.ExecContext(ctx, q, id, models.StatusCompleted, toJSON(summary), toJSON(insights))
	if err != nil {
		return fmt.Errorf("mark ingested: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("report %s: %w", id, models.ErrReportNotFound)
	}
	return nil
}

func (c *DatabaseClient) MarkReportFailed(ctx context.Context, id string, insights *models.Insights) error {
	const q = `
		UPDATE reports
		SET status = $2, insights = $3
		WHERE report_id = $1
	`
	res, err := c.db.ExecContext(ctx, q, id, models.StatusFailed, toJSON(insights))
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("report %s: %w", id, models.ErrReportNotFound)
	}
	return nil
}

func (c *DatabaseClient) UpdateReportAnalysis(ctx context.Context, id string, summary *models.Summary, keyFindings map[string]string, recommendations []string, insights *models.Insights) error {
	const q = `
		UPDATE reports
		SET summary = $2, key_findings = $3, recommendations = $4, insights = $5
		WHERE report_id = $1
	`
	res, err := c.db.ExecContext(ctx, q, id,
		toJSON(summary), toJSON(keyFindings), toJSON(recommendations), toJSON(insights))
	if err != nil {
		return fmt.Errorf("update analysis: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("report %s: %w", id, models.ErrReportNotFound)
	}
	return nil
}

// ---------------- dashboards ----------------

func (c *DatabaseClient) CreateDashboard(ctx context.Context, d *models.Dashboard) error {
	if d == nil {
		return errors.New("nil dashboard")
	}
	const q = `
		INSERT INTO dashboards (dashboard_id, report_id, dashboard_type, metrics, charts, created_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, now()))
	`
	_, err := c.db.ExecContext(ctx, q,
		d.ID, d.ReportID, d.DashboardType, toJSON(d.Metrics), toJSON(d.Charts), nullTime(d.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert dashboard: %w", translateErr(err))
	}
	return nil
}

func (c *DatabaseClient) GetDashboardByReportID(ctx context.Context, reportID string) (*models.Dashboard, error) {
	const q = `
		SELECT dashboard_id, report_id, dashboard_type, metrics, charts, created_at
		FROM dashboards
		WHERE report_id = $1
	`
	var (
		d               models.Dashboard
		metrics, charts []byte
	)
	err := c.db.QueryRowContext(ctx, q, reportID).Scan(
		&d.ID, &d.ReportID, &d.DashboardType, &metrics, &charts, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("dashboard for report %s: %w", reportID, models.ErrReportNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get dashboard: %w", err)
	}
	if err := fromJSON(metrics, &d.Metrics); err != nil {
		return nil, err
	}
	if err := fromJSON(charts, &d.Charts); err != nil {
		return nil, err
	}
	return &d, nil
}

// ---------------- helpers ----------------

// translateErr maps Postgres unique violations onto the shared sentinel
// so services can apply the return-existing-row policy.
func translateErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%v: %w", err, models.ErrAlreadyExists)
	}
	return err
}

// toJSON marshals a JSONB column value; nil maps to SQL NULL.
func toJSON(v any) any {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	if string(raw) == "null" {
		return nil
	}
	return raw
}

func fromJSON(raw []byte, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode jsonb: %w", err)
	}
	return nil
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

var _ core.ReportStore = (*DatabaseClient)(nil)
