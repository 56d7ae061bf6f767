package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jornadaii/certify/internal/dataset"
	"github.com/jornadaii/certify/internal/models"
)

func newMockRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &Repository{db: db}, mock
}

// TestFindParticipant_QueryError tests database error propagation
func TestFindParticipant_QueryError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM participants").WillReturnError(errors.New("disk I/O error"))

	_, err := repo.FindParticipant(context.Background(), "ana@example.com")
	if err == nil || err == ErrNotFound {
		t.Errorf("expected driver error, got %v", err)
	}
}

// TestListParticipants_ScanError tests row scanning error
func TestListParticipants_ScanError(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows([]string{"email", "given_names", "family_names", "survey_completed", "survey_completed_at"}).
		AddRow("ana@example.com", "Ana", "López", "not-a-bool", nil)
	mock.ExpectQuery("SELECT (.+) FROM participants").WillReturnRows(rows)

	if _, err := repo.ListParticipants(context.Background()); err == nil {
		t.Error("expected error from scan failure, got nil")
	}
}

// TestListAttendance_ScanError tests row scanning error
func TestListAttendance_ScanError(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows([]string{"participant_email", "activity_code"}).
		AddRow("ana@example.com", "C1")
	mock.ExpectQuery("SELECT (.+) FROM attendance").WillReturnRows(rows)

	if _, err := repo.ListAttendance(context.Background(), "ana@example.com"); err == nil {
		t.Error("expected error from column mismatch, got nil")
	}
}

// TestListActivities_QueryError tests database error propagation
func TestListActivities_QueryError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM activities").WillReturnError(errors.New("no such table"))

	if _, err := repo.ListActivities(context.Background()); err == nil {
		t.Error("expected error, got nil")
	}
}

// TestListTeams_RowError tests iteration errors surfaced by rows.Err
func TestListTeams_RowError(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows([]string{"name", "captain_email", "member_1", "member_2", "member_3", "member_4", "member_5"}).
		AddRow("Equipo", "cap@example.com", "", "", "", "", "").
		RowError(0, errors.New("connection reset"))
	mock.ExpectQuery("SELECT (.+) FROM teams").WillReturnRows(rows)

	if _, err := repo.ListTeams(context.Background()); err == nil {
		t.Error("expected row error, got nil")
	}
}

// TestReplaceResponses_InsertErrorRollsBack verifies no commit on partial failure
func TestReplaceResponses_InsertErrorRollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM survey_responses").WithArgs("ana@example.com").
		WillReturnResult(sqlmock.NewResult(0, 3))
	prep := mock.ExpectPrepare("INSERT INTO survey_responses")
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().WillReturnError(errors.New("database is locked"))
	mock.ExpectRollback()

	resp := []models.SurveyResponse{{QuestionID: 1, Answer: "5"}, {QuestionID: 2, Answer: "4"}}
	if err := repo.ReplaceResponses(context.Background(), "ANA@example.com", resp); err == nil {
		t.Fatal("expected error, got nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// TestReplaceResponses_FlagUpdateErrorRollsBack verifies responses are not
// committed without the flag
func TestReplaceResponses_FlagUpdateErrorRollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM survey_responses").WillReturnResult(sqlmock.NewResult(0, 0))
	prep := mock.ExpectPrepare("INSERT INTO survey_responses")
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE participants").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	resp := []models.SurveyResponse{{QuestionID: 1, Answer: "5"}}
	if err := repo.ReplaceResponses(context.Background(), "ana@example.com", resp); err == nil {
		t.Fatal("expected error, got nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// TestReplaceResponses_BeginError tests transaction start failure
func TestReplaceResponses_BeginError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin().WillReturnError(errors.New("database is locked"))

	if err := repo.ReplaceResponses(context.Background(), "ana@example.com", nil); err == nil {
		t.Error("expected error, got nil")
	}
}

// TestResponseStats_QueryError tests database error propagation
func TestResponseStats_QueryError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT COUNT(.+) FROM survey_responses").WillReturnError(errors.New("boom"))

	if _, err := repo.ResponseStats(context.Background()); err == nil {
		t.Error("expected error, got nil")
	}
}

// TestResponseStats_ParticipantCountError tests the second query failing
func TestResponseStats_ParticipantCountError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT COUNT(.+) FROM survey_responses").
		WillReturnRows(sqlmock.NewRows([]string{"total", "distinct"}).AddRow(4, 2))
	mock.ExpectQuery("SELECT COUNT(.+) FROM participants").WillReturnError(errors.New("boom"))

	if _, err := repo.ResponseStats(context.Background()); err == nil {
		t.Error("expected error, got nil")
	}
}

// TestImportDatasets_DeleteErrorRollsBack tests failure while clearing tables
func TestImportDatasets_DeleteErrorRollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT email, survey_completed_at FROM participants").
		WillReturnRows(sqlmock.NewRows([]string{"email", "survey_completed_at"}))
	mock.ExpectExec("DELETE FROM participants").WillReturnError(errors.New("locked"))
	mock.ExpectRollback()

	if err := repo.ImportDatasets(context.Background(), &dataset.Bundle{}); err == nil {
		t.Fatal("expected error, got nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// TestImportDatasets_FlagScanError tests a bad row in the preserved flags
func TestImportDatasets_FlagScanError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT email, survey_completed_at FROM participants").
		WillReturnRows(sqlmock.NewRows([]string{"email"}).AddRow("ana@example.com"))
	mock.ExpectRollback()

	if err := repo.ImportDatasets(context.Background(), &dataset.Bundle{}); err == nil {
		t.Fatal("expected error, got nil")
	}
}

// TestExportDatasets_PropagatesErrors tests the first failing list
func TestExportDatasets_PropagatesErrors(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM participants").WillReturnRows(
		sqlmock.NewRows([]string{"email", "given_names", "family_names", "survey_completed", "survey_completed_at"}))
	mock.ExpectQuery("SELECT (.+) FROM activities").WillReturnError(errors.New("boom"))

	if _, err := repo.ExportDatasets(context.Background()); err == nil {
		t.Error("expected error, got nil")
	}
}

// TestSetSurveyCompleted_ExecError tests database error propagation
func TestSetSurveyCompleted_ExecError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE participants").WillReturnError(errors.New("readonly database"))

	if err := repo.SetSurveyCompleted(context.Background(), "ana@example.com"); err == nil {
		t.Error("expected error, got nil")
	}
}
