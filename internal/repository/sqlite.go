package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/jornadaii/certify/internal/dataset"
	"github.com/jornadaii/certify/internal/models"
)

// Repository provides data access methods
type Repository struct {
	db *sql.DB
}

// New creates a new Repository
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1) // SQLite works best with single connection
	db.SetMaxIdleConns(1)

	repo := &Repository{db: db}

	if err := repo.migrate(); err != nil {
		return nil, err
	}

	return repo, nil
}

// DB returns the underlying database connection (for transactions)
func (r *Repository) DB() *sql.DB {
	return r.db
}

// Close closes the database connection
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks if the database connection is alive
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// migrate runs database migrations
func (r *Repository) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS participants (
			email TEXT PRIMARY KEY,
			given_names TEXT NOT NULL DEFAULT '',
			family_names TEXT NOT NULL DEFAULT '',
			survey_completed BOOLEAN NOT NULL DEFAULT 0,
			survey_completed_at DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS activities (
			code TEXT PRIMARY KEY,
			title TEXT NOT NULL DEFAULT '',
			kind TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS attendance (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			participant_email TEXT NOT NULL,
			activity_code TEXT NOT NULL,
			activity_type TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS teams (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL DEFAULT '',
			captain_email TEXT NOT NULL,
			member_1 TEXT NOT NULL DEFAULT '',
			member_2 TEXT NOT NULL DEFAULT '',
			member_3 TEXT NOT NULL DEFAULT '',
			member_4 TEXT NOT NULL DEFAULT '',
			member_5 TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS survey_responses (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			submission_id TEXT NOT NULL,
			participant_email TEXT NOT NULL,
			display_name TEXT NOT NULL DEFAULT '',
			question_id INTEGER NOT NULL,
			question_text TEXT NOT NULL DEFAULT '',
			answer TEXT NOT NULL,
			submitted_at DATETIME NOT NULL,
			UNIQUE(participant_email, question_id)
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_attendance_participant ON attendance(participant_email)`,
		`CREATE INDEX IF NOT EXISTS idx_responses_question ON survey_responses(question_id)`,
		`CREATE INDEX IF NOT EXISTS idx_teams_captain ON teams(captain_email)`,
	}

	for _, migration := range migrations {
		if _, err := r.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}

// ==================== Participant Methods ====================

// FindParticipant retrieves a participant by email, case-insensitively
func (r *Repository) FindParticipant(ctx context.Context, email string) (*models.Participant, error) {
	var p models.Participant
	var completedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, `
		SELECT email, given_names, family_names, survey_completed, survey_completed_at
		FROM participants WHERE email = ?`, normalize(email)).
		Scan(&p.Email, &p.GivenNames, &p.FamilyNames, &p.SurveyCompleted, &completedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		p.SurveyCompletedAt = &completedAt.Time
	}
	return &p, nil
}

// ListParticipants returns every participant ordered by email
func (r *Repository) ListParticipants(ctx context.Context) ([]models.Participant, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT email, given_names, family_names, survey_completed, survey_completed_at
		FROM participants ORDER BY email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []models.Participant
	for rows.Next() {
		var p models.Participant
		var completedAt sql.NullTime
		if err := rows.Scan(&p.Email, &p.GivenNames, &p.FamilyNames, &p.SurveyCompleted, &completedAt); err != nil {
			return nil, err
		}
		if completedAt.Valid {
			t := completedAt.Time
			p.SurveyCompletedAt = &t
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

// SetSurveyCompleted flips the survey flag on. It never clears it.
func (r *Repository) SetSurveyCompleted(ctx context.Context, email string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE participants
		SET survey_completed = 1, survey_completed_at = COALESCE(survey_completed_at, ?)
		WHERE email = ?`, time.Now().UTC(), normalize(email))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ==================== Attendance Methods ====================

// CountAttendance returns the number of attendance rows for a participant
func (r *Repository) CountAttendance(ctx context.Context, email string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM attendance WHERE participant_email = ?`, normalize(email)).Scan(&n)
	return n, err
}

// ListAttendance returns a participant's attendance rows in import order,
// with the activity title joined in when the catalogue knows the code
func (r *Repository) ListAttendance(ctx context.Context, email string) ([]models.AttendanceRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.participant_email, a.activity_code, a.activity_type, COALESCE(act.title, '')
		FROM attendance a
		LEFT JOIN activities act ON act.code = a.activity_code
		WHERE a.participant_email = ?
		ORDER BY a.id`, normalize(email))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAttendance(rows)
}

// FindWorkshopAttendance returns the workshop the participant attended. With
// several workshops the lowest numbered one wins, then the lowest code.
func (r *Repository) FindWorkshopAttendance(ctx context.Context, email string) (*models.AttendanceRecord, bool, error) {
	records, err := r.ListAttendance(ctx, email)
	if err != nil {
		return nil, false, err
	}

	var best *models.AttendanceRecord
	for i := range records {
		rec := &records[i]
		if !rec.IsWorkshop() {
			continue
		}
		if best == nil || workshopBefore(rec, best) {
			best = rec
		}
	}
	return best, best != nil, nil
}

func workshopBefore(a, b *models.AttendanceRecord) bool {
	na, oka := a.WorkshopNumber()
	nb, okb := b.WorkshopNumber()
	switch {
	case oka && !okb:
		return true
	case !oka && okb:
		return false
	case oka && okb && na != nb:
		return na < nb
	}
	return a.ActivityCode < b.ActivityCode
}

// ListAllAttendance returns every attendance row in import order
func (r *Repository) ListAllAttendance(ctx context.Context) ([]models.AttendanceRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.participant_email, a.activity_code, a.activity_type, COALESCE(act.title, '')
		FROM attendance a
		LEFT JOIN activities act ON act.code = a.activity_code
		ORDER BY a.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAttendance(rows)
}

func scanAttendance(rows *sql.Rows) ([]models.AttendanceRecord, error) {
	var records []models.AttendanceRecord
	for rows.Next() {
		var rec models.AttendanceRecord
		if err := rows.Scan(&rec.ParticipantEmail, &rec.ActivityCode, &rec.ActivityType, &rec.ActivityTitle); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ListActivities returns the activity catalogue ordered by code
func (r *Repository) ListActivities(ctx context.Context) ([]models.Activity, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT code, title, kind FROM activities ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []models.Activity
	for rows.Next() {
		var a models.Activity
		if err := rows.Scan(&a.Code, &a.Title, &a.Kind); err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

// ==================== Team Methods ====================

// FindContestMembership reports whether email is the captain or any member of a team
func (r *Repository) FindContestMembership(ctx context.Context, email string) (bool, error) {
	e := normalize(email)
	if e == "" {
		return false, nil
	}
	var found bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM teams
			WHERE captain_email = ? OR member_1 = ? OR member_2 = ? OR member_3 = ? OR member_4 = ? OR member_5 = ?
		)`, e, e, e, e, e, e).Scan(&found)
	return found, err
}

// ListTeams returns every contest team
func (r *Repository) ListTeams(ctx context.Context) ([]models.TeamEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT name, captain_email, member_1, member_2, member_3, member_4, member_5
		FROM teams ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []models.TeamEntry
	for rows.Next() {
		var t models.TeamEntry
		if err := rows.Scan(&t.Name, &t.Captain, &t.Members[0], &t.Members[1], &t.Members[2], &t.Members[3], &t.Members[4]); err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

// ==================== Survey Response Methods ====================

// ReplaceResponses atomically swaps a participant's stored answers for the
// given set and marks their survey completed. Either everything is written
// or nothing is.
func (r *Repository) ReplaceResponses(ctx context.Context, email string, responses []models.SurveyResponse) (err error) {
	e := normalize(email)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM survey_responses WHERE participant_email = ?`, e); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO survey_responses
			(submission_id, participant_email, display_name, question_id, question_text, answer, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, resp := range responses {
		submitted := resp.SubmittedAt
		if submitted.IsZero() {
			submitted = now
		}
		if _, err = stmt.ExecContext(ctx, resp.SubmissionID, e, resp.DisplayName, resp.QuestionID,
			resp.QuestionText, resp.Answer, submitted.UTC()); err != nil {
			return err
		}
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE participants
		SET survey_completed = 1, survey_completed_at = COALESCE(survey_completed_at, ?)
		WHERE email = ?`, now, e)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		err = ErrNotFound
		return err
	}

	return tx.Commit()
}

const responseColumns = `submission_id, participant_email, display_name, question_id, question_text, answer, submitted_at`

// ListResponses returns every stored answer, newest submission first
func (r *Repository) ListResponses(ctx context.Context) ([]models.SurveyResponse, error) {
	return r.queryResponses(ctx, `SELECT `+responseColumns+` FROM survey_responses
		ORDER BY submitted_at DESC, participant_email, question_id`)
}

// ListResponsesByQuestion returns the answers given to one question
func (r *Repository) ListResponsesByQuestion(ctx context.Context, questionID int) ([]models.SurveyResponse, error) {
	return r.queryResponses(ctx, `SELECT `+responseColumns+` FROM survey_responses
		WHERE question_id = ? ORDER BY submitted_at DESC, participant_email`, questionID)
}

// ListResponsesByParticipant returns one participant's answers in question order
func (r *Repository) ListResponsesByParticipant(ctx context.Context, email string) ([]models.SurveyResponse, error) {
	return r.queryResponses(ctx, `SELECT `+responseColumns+` FROM survey_responses
		WHERE participant_email = ? ORDER BY question_id`, normalize(email))
}

func (r *Repository) queryResponses(ctx context.Context, query string, args ...interface{}) ([]models.SurveyResponse, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var responses []models.SurveyResponse
	for rows.Next() {
		var s models.SurveyResponse
		if err := rows.Scan(&s.SubmissionID, &s.ParticipantEmail, &s.DisplayName, &s.QuestionID,
			&s.QuestionText, &s.Answer, &s.SubmittedAt); err != nil {
			return nil, err
		}
		responses = append(responses, s)
	}
	return responses, rows.Err()
}

// ResponseStats summarises stored answers and survey completion
func (r *Repository) ResponseStats(ctx context.Context) (*models.SurveyStats, error) {
	stats := &models.SurveyStats{}

	if err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT participant_email) FROM survey_responses`).
		Scan(&stats.TotalResponses, &stats.TotalParticipants); err != nil {
		return nil, err
	}

	if err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN survey_completed THEN 1 ELSE 0 END), 0) FROM participants`).
		Scan(&stats.RegisteredCount, &stats.CompletedCount); err != nil {
		return nil, err
	}

	var last time.Time
	err := r.db.QueryRowContext(ctx, `
		SELECT submitted_at FROM survey_responses ORDER BY submitted_at DESC LIMIT 1`).Scan(&last)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return nil, err
	default:
		stats.LastResponseAt = &last
	}

	return stats, nil
}

// ==================== Import/Export Methods ====================

// ImportDatasets replaces participants, activities, attendance and teams
// with the bundle in a single transaction. Survey completion flags already
// stored are kept: the imported flag is OR-ed with the stored one.
func (r *Repository) ImportDatasets(ctx context.Context, b *dataset.Bundle) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	completed, err := completedFlags(ctx, tx)
	if err != nil {
		return err
	}

	for _, table := range []string{"participants", "activities", "attendance", "teams"} {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	now := time.Now().UTC()
	for _, p := range b.Participants {
		e := normalize(p.Email)
		var completedAt interface{}
		if at, ok := completed[e]; ok {
			completedAt = at
		} else if p.SurveyCompleted {
			if p.SurveyCompletedAt != nil {
				completedAt = p.SurveyCompletedAt.UTC()
			} else {
				completedAt = now
			}
		}
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO participants (email, given_names, family_names, survey_completed, survey_completed_at)
			VALUES (?, ?, ?, ?, ?)`,
			e, p.GivenNames, p.FamilyNames, completedAt != nil, completedAt); err != nil {
			return fmt.Errorf("inserting participant %s: %w", e, err)
		}
	}

	for _, a := range b.Activities {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO activities (code, title, kind) VALUES (?, ?, ?)
			ON CONFLICT(code) DO UPDATE SET title = excluded.title, kind = excluded.kind`,
			strings.ToUpper(a.Code), a.Title, a.Kind); err != nil {
			return fmt.Errorf("inserting activity %s: %w", a.Code, err)
		}
	}

	for _, rec := range b.Attendance {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO attendance (participant_email, activity_code, activity_type) VALUES (?, ?, ?)`,
			normalize(rec.ParticipantEmail), strings.ToUpper(rec.ActivityCode), rec.ActivityType); err != nil {
			return fmt.Errorf("inserting attendance: %w", err)
		}
	}

	for _, t := range b.Teams {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO teams (name, captain_email, member_1, member_2, member_3, member_4, member_5)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			t.Name, normalize(t.Captain), normalize(t.Members[0]), normalize(t.Members[1]),
			normalize(t.Members[2]), normalize(t.Members[3]), normalize(t.Members[4])); err != nil {
			return fmt.Errorf("inserting team %s: %w", t.Name, err)
		}
	}

	return tx.Commit()
}

func completedFlags(ctx context.Context, tx *sql.Tx) (map[string]time.Time, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT email, survey_completed_at FROM participants WHERE survey_completed = 1`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	flags := make(map[string]time.Time)
	for rows.Next() {
		var email string
		var at sql.NullTime
		if err := rows.Scan(&email, &at); err != nil {
			return nil, err
		}
		if !at.Valid {
			at.Time = time.Now().UTC()
		}
		flags[email] = at.Time
	}
	return flags, rows.Err()
}

// ExportDatasets reads every dataset back into a bundle
func (r *Repository) ExportDatasets(ctx context.Context) (*dataset.Bundle, error) {
	b := &dataset.Bundle{}
	var err error
	if b.Participants, err = r.ListParticipants(ctx); err != nil {
		return nil, err
	}
	if b.Activities, err = r.ListActivities(ctx); err != nil {
		return nil, err
	}
	if b.Attendance, err = r.ListAllAttendance(ctx); err != nil {
		return nil, err
	}
	if b.Teams, err = r.ListTeams(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

// ==================== Settings Methods ====================

// GetSetting retrieves a setting value
func (r *Repository) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	return value, err
}

// SetSetting updates a setting value
func (r *Repository) SetSetting(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)`, key, value)
	return err
}

func normalize(email string) string {
	return dataset.NormalizeEmail(email)
}
