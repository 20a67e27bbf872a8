package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	s := &PostgresStore{db: db}
	if err := s.migrate(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	// Use advisory lock to prevent concurrent migrations when gateway and
	// worker start at the same time.
	const lockID = 424242001

	var acquired bool
	err := s.db.QueryRowContext(ctx, `SELECT pg_try_advisory_lock($1)`, lockID).Scan(&acquired)
	if err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	if !acquired {
		// Another process is running migrations; wait briefly and skip
		time.Sleep(2 * time.Second)
		return nil
	}
	defer func() {
		_, _ = s.db.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, lockID)
	}()

	_, err = s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS dub_jobs (
		id UUID PRIMARY KEY,
		filename TEXT,
		target_locale TEXT,
		media_path TEXT,
		status TEXT,
		murf_job_id TEXT DEFAULT '',
		video_url TEXT DEFAULT '',
		subtitles_url TEXT DEFAULT '',
		notes TEXT[] DEFAULT ARRAY[]::TEXT[],
		failure_reason TEXT DEFAULT '',
		created_at TIMESTAMPTZ DEFAULT now()
	);`)
	return err
}

func (s *PostgresStore) CreateJob(ctx context.Context, filename, targetLocale, mediaPath string) (DubJob, error) {
	id := uuid.New()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO dub_jobs(id, filename, target_locale, media_path, status) VALUES($1,$2,$3,$4,$5)`,
		id, filename, targetLocale, mediaPath, StatusQueued)
	if err != nil {
		return DubJob{}, err
	}
	return DubJob{
		ID:           id,
		Filename:     filename,
		TargetLocale: targetLocale,
		MediaPath:    mediaPath,
		Status:       StatusQueued,
		CreatedAt:    time.Now(),
	}, nil
}

func (s *PostgresStore) GetJob(ctx context.Context, id uuid.UUID) (DubJob, error) {
	var job DubJob
	var notes []string
	row := s.db.QueryRowContext(ctx, `
		SELECT id, filename, target_locale, media_path, status, murf_job_id,
		       video_url, subtitles_url, notes, failure_reason, created_at
		FROM dub_jobs WHERE id=$1`, id)
	err := row.Scan(&job.ID, &job.Filename, &job.TargetLocale, &job.MediaPath,
		&job.Status, &job.MurfJobID, &job.VideoURL, &job.SubtitlesURL,
		pq.Array(&notes), &job.FailureReason, &job.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return DubJob{}, ErrJobNotFound
		}
		return DubJob{}, fmt.Errorf("failed to get dub job %s: %w", id, err)
	}
	job.Notes = notes
	return job, nil
}

func (s *PostgresStore) UpdateJobStatus(ctx context.Context, id uuid.UUID, status JobStatus) error {
	res, err := s.db.ExecContext(ctx, `UPDATE dub_jobs SET status=$1 WHERE id=$2`, status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrJobNotFound
	}
	return nil
}

func (s *PostgresStore) SetMurfJobID(ctx context.Context, id uuid.UUID, murfJobID string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE dub_jobs SET murf_job_id=$1, status=$2 WHERE id=$3`,
		murfJobID, StatusDubbing, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrJobNotFound
	}
	return nil
}

func (s *PostgresStore) SaveResult(ctx context.Context, id uuid.UUID, result Result) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE dub_jobs
		SET status=$1, video_url=$2, subtitles_url=$3, notes=$4
		WHERE id=$5`,
		StatusCompleted, result.VideoURL, result.SubtitlesURL, pq.Array(result.Notes), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrJobNotFound
	}
	return nil
}

func (s *PostgresStore) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE dub_jobs SET status=$1, failure_reason=$2 WHERE id=$3`,
		StatusFailed, reason, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrJobNotFound
	}
	return nil
}
