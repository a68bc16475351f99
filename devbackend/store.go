package devbackend

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/osmium/blog-admin/database"
	"github.com/osmium/blog-admin/models"
	"github.com/osmium/blog-admin/pkg"
)

// Store is the dev backend's SQLite persistence.
type Store struct {
	db  database.TxQuerier
	now func() time.Time
}

// NewStore, constructor.
func NewStore(db database.TxQuerier) *Store {
	return &Store{db: db, now: time.Now}
}

// user is a staff account.
type user struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
}

func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func (s *Store) stamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

// ─── Users ───

func (s *Store) CreateUser(ctx context.Context, name, email, passwordHash string) (string, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE email = ?`, email).Scan(&exists)
	if err != nil {
		return "", fmt.Errorf("failed to check email: %w", err)
	}
	if exists > 0 {
		return "", fmt.Errorf("%w: User already exists", pkg.ErrAlreadyExists)
	}

	id := newID()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, name, email, passwordHash, s.stamp())
	if err != nil {
		return "", fmt.Errorf("failed to create user: %w", err)
	}
	return id, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*user, error) {
	u := &user{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash FROM users WHERE email = ?`, email,
	).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user not found", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (s *Store) UserExists(ctx context.Context, id string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE id = ?`, id).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check user: %w", err)
	}
	return n > 0, nil
}

// ─── Refresh sessions ───

func (s *Store) CreateRefresh(ctx context.Context, token, userID string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO refresh_sessions (token, user_id, expires_at) VALUES (?, ?, ?)`,
		token, userID, expiresAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to create refresh session: %w", err)
	}
	return nil
}

func (s *Store) DeleteRefresh(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM refresh_sessions WHERE token = ?`, token)
	if err != nil {
		return fmt.Errorf("failed to delete refresh session: %w", err)
	}
	return nil
}

// ─── Blogs ───

const blogColumns = `id, slug, title, summary, author, date, category, content, images, created_at`

func scanBlog(row interface{ Scan(...any) error }) (models.BlogPost, error) {
	var p models.BlogPost
	var images string
	if err := row.Scan(&p.ID, &p.Slug, &p.Title, &p.Summary, &p.Author, &p.Date,
		&p.Category, &p.Content, &images, &p.CreatedAt); err != nil {
		return p, err
	}
	if err := json.Unmarshal([]byte(images), &p.Images); err != nil || p.Images == nil {
		p.Images = []string{}
	}
	return p, nil
}

// ListBlogs returns posts newest first; limit <= 0 means all.
func (s *Store) ListBlogs(ctx context.Context, limit int) ([]models.BlogPost, error) {
	query := `SELECT ` + blogColumns + ` FROM blogs ORDER BY created_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list blogs: %w", err)
	}
	defer rows.Close()

	posts := []models.BlogPost{}
	for rows.Next() {
		p, err := scanBlog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan blog: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// GetBlog finds a post by id or slug.
func (s *Store) GetBlog(ctx context.Context, ref string) (models.BlogPost, error) {
	p, err := scanBlog(s.db.QueryRowContext(ctx,
		`SELECT `+blogColumns+` FROM blogs WHERE id = ? OR slug = ?`, ref, ref))
	if errors.Is(err, sql.ErrNoRows) {
		return p, fmt.Errorf("%w: Blog not found", pkg.ErrNotFound)
	}
	if err != nil {
		return p, fmt.Errorf("failed to get blog: %w", err)
	}
	return p, nil
}

// UniqueSlug returns base, or base-2, base-3... whichever no other post uses.
func (s *Store) UniqueSlug(ctx context.Context, base, exceptID string) (string, error) {
	slug := base
	for i := 2; ; i++ {
		var n int
		err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM blogs WHERE slug = ? AND id <> ?`, slug, exceptID).Scan(&n)
		if err != nil {
			return "", fmt.Errorf("failed to check slug: %w", err)
		}
		if n == 0 {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

func (s *Store) InsertBlog(ctx context.Context, p *models.BlogPost) error {
	p.ID = newID()
	p.CreatedAt = s.stamp()
	images, _ := json.Marshal(p.Images)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO blogs (`+blogColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Slug, p.Title, p.Summary, p.Author, p.Date, p.Category, p.Content, string(images), p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert blog: %w", err)
	}
	return nil
}

func (s *Store) UpdateBlog(ctx context.Context, p models.BlogPost) error {
	images, _ := json.Marshal(p.Images)
	res, err := s.db.ExecContext(ctx,
		`UPDATE blogs SET slug = ?, title = ?, summary = ?, author = ?, date = ?, category = ?,
		 content = ?, images = ? WHERE id = ?`,
		p.Slug, p.Title, p.Summary, p.Author, p.Date, p.Category, p.Content, string(images), p.ID)
	if err != nil {
		return fmt.Errorf("failed to update blog: %w", err)
	}
	return requireRow(res, "Blog not found")
}

// DeleteBlog removes a post and returns it, so its images can be removed.
func (s *Store) DeleteBlog(ctx context.Context, id string) (models.BlogPost, error) {
	p, err := s.GetBlog(ctx, id)
	if err != nil {
		return p, err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM blogs WHERE id = ?`, p.ID); err != nil {
		return p, fmt.Errorf("failed to delete blog: %w", err)
	}
	return p, nil
}

func (s *Store) BlogStats(ctx context.Context) (models.BlogStats, error) {
	var st models.BlogStats
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COUNT(DISTINCT NULLIF(author, '')),
		        COUNT(DISTINCT NULLIF(category, ''))
		 FROM blogs`,
	).Scan(&st.TotalPosts, &st.TotalAuthors, &st.TotalCategories)
	if err != nil {
		return st, fmt.Errorf("failed to count blogs: %w", err)
	}
	return st, nil
}

// ─── Jobs ───

const jobColumns = `id, title, department, location, type, summary, description, requirements, salary_range, deadline`

func (s *Store) ListJobs(ctx context.Context) ([]models.Job, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM jobs ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	jobs := []models.Job{}
	for rows.Next() {
		var j models.Job
		if err := rows.Scan(&j.ID, &j.Title, &j.Department, &j.Location, &j.Type, &j.Summary,
			&j.Description, &j.Requirements, &j.SalaryRange, &j.Deadline); err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (s *Store) InsertJob(ctx context.Context, j *models.Job) error {
	j.ID = newID()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (`+jobColumns+`, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ID, j.Title, j.Department, j.Location, j.Type, j.Summary, j.Description,
		j.Requirements, j.SalaryRange, j.Deadline, s.stamp())
	if err != nil {
		return fmt.Errorf("failed to insert job: %w", err)
	}
	return nil
}

// UpdateJob overwrites the fields present in fields (wire names) and leaves
// the others, so a partial form keeps what was stored.
func (s *Store) UpdateJob(ctx context.Context, id string, fields map[string]string) error {
	columns := map[string]string{
		"title": "title", "department": "department", "location": "location",
		"type": "type", "summary": "summary", "description": "description",
		"requirements": "requirements", "salaryRange": "salary_range", "deadline": "deadline",
	}

	var sets []string
	var args []any
	for key, col := range columns {
		if v, ok := fields[key]; ok {
			sets = append(sets, col+" = ?")
			args = append(args, v)
		}
	}
	if len(sets) == 0 {
		return s.requireJob(ctx, id)
	}
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, `UPDATE jobs SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	return requireRow(res, "Job not found")
}

func (s *Store) DeleteJob(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	return requireRow(res, "Job not found")
}

func (s *Store) requireJob(ctx context.Context, id string) error {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs WHERE id = ?`, id).Scan(&n); err != nil {
		return fmt.Errorf("failed to check job: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: Job not found", pkg.ErrNotFound)
	}
	return nil
}

func (s *Store) JobStats(ctx context.Context) (models.HiringStats, error) {
	var st models.HiringStats
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COUNT(DISTINCT NULLIF(department, '')),
		        COUNT(DISTINCT NULLIF(type, ''))
		 FROM jobs`,
	).Scan(&st.TotalJobs, &st.TotalDepartments, &st.TotalTypes)
	if err != nil {
		return st, fmt.Errorf("failed to count jobs: %w", err)
	}
	return st, nil
}

// ─── Applications ───

// ListApplications returns applications with their job populated as
// {_id, title}; jobID "" lists every job.
func (s *Store) ListApplications(ctx context.Context, jobID string) ([]models.Application, error) {
	query := `SELECT a.id, a.job_id, COALESCE(j.title, ''), a.name, a.email, a.phone, a.cover_letter,
	                 a.cv_url, a.documents, a.status, a.created_at
	          FROM applications a LEFT JOIN jobs j ON j.id = a.job_id`
	var args []any
	if jobID != "" {
		query += ` WHERE a.job_id = ?`
		args = append(args, jobID)
	}
	query += ` ORDER BY a.created_at DESC, a.rowid DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	apps := []models.Application{}
	for rows.Next() {
		var a models.Application
		var docs string
		if err := rows.Scan(&a.ID, &a.Job.ID, &a.Job.Title, &a.Name, &a.Email, &a.Phone,
			&a.CoverLetter, &a.CVURL, &docs, &a.Status, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		if err := json.Unmarshal([]byte(docs), &a.Documents); err != nil || a.Documents == nil {
			a.Documents = []string{}
		}
		apps = append(apps, a)
	}
	return apps, rows.Err()
}

func (s *Store) InsertApplication(ctx context.Context, a *models.Application) error {
	if err := s.requireJob(ctx, a.Job.ID); err != nil {
		return err
	}
	a.ID = newID()
	a.Status = models.StatusPending
	a.CreatedAt = s.stamp()
	if a.Documents == nil {
		a.Documents = []string{}
	}
	docs, _ := json.Marshal(a.Documents)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO applications (id, job_id, name, email, phone, cover_letter, cv_url, documents, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Job.ID, a.Name, a.Email, a.Phone, a.CoverLetter, a.CVURL, string(docs), a.Status, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert application: %w", err)
	}
	return nil
}

func (s *Store) UpdateApplicationStatus(ctx context.Context, id string, status models.ApplicationStatus) error {
	res, err := s.db.ExecContext(ctx, `UPDATE applications SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update application: %w", err)
	}
	return requireRow(res, "Application not found")
}

func requireRow(res sql.Result, msg string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", pkg.ErrNotFound, msg)
	}
	return nil
}
