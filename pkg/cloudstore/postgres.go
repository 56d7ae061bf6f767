package cloudstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jornadaii/certify/internal/dataset"
	"github.com/jornadaii/certify/internal/logger"
	"github.com/jornadaii/certify/internal/models"
)

// Table and column names follow the reporting database, which predates
// this service. Schema management is out of scope: the tables must exist.
const (
	tableParticipants = "participantes"
	tableActivities   = "actividades"
	tableAttendance   = "asistencias"
	tableTeams        = "equipos_concurso"
	tableResponses    = "encuesta_respuestas"
)

var (
	participantCols = []string{"email", "nombres", "apellidos", "encuesta_completada"}
	activityCols    = []string{"codigo", "titulo", "tipo"}
	attendanceCols  = []string{"participante_email", "actividad_codigo", "tipo_actividad"}
	teamCols        = []string{"nombre_equipo", "capitan_email", "integrante_1_email", "integrante_2_email",
		"integrante_3_email", "integrante_4_email", "integrante_5_email"}
	responseCols = []string{"participante_email", "nombre_completo", "pregunta_id", "pregunta_texto",
		"respuesta", "fecha", "timestamp"}
)

// Postgres is the Store backed by a pgx connection pool
type Postgres struct {
	pool *pgxpool.Pool
	log  logger.Logger
}

// Open connects to dsn and verifies the connection
func Open(ctx context.Context, dsn string, log logger.Logger) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing cloud DSN: %w", err)
	}
	cfg.MaxConns = 4
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to cloud store: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging cloud store: %w", err)
	}

	log.Info("Connected to cloud store", "host", cfg.ConnConfig.Host, "database", cfg.ConnConfig.Database)
	return &Postgres{pool: pool, log: log}, nil
}

// Ping checks the pool
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close releases all connections
func (p *Postgres) Close() {
	p.pool.Close()
}

// ReplaceResponses deletes the participant's previous answers and inserts the new set
func (p *Postgres) ReplaceResponses(ctx context.Context, email string, responses []models.SurveyResponse) error {
	e := dataset.NormalizeEmail(email)
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM `+tableResponses+` WHERE participante_email = $1`, e); err != nil {
			return fmt.Errorf("deleting previous responses: %w", err)
		}
		return copyResponses(ctx, tx, responses)
	})
}

// MarkSurveyCompleted sets the participant's flag in the cloud copy
func (p *Postgres) MarkSurveyCompleted(ctx context.Context, email string) error {
	_, err := p.pool.Exec(ctx,
		`UPDATE `+tableParticipants+` SET encuesta_completada = TRUE WHERE email = $1`,
		dataset.NormalizeEmail(email))
	return err
}

// PushResponses replaces the cloud answers of every participant present in responses
func (p *Postgres) PushResponses(ctx context.Context, responses []models.SurveyResponse) error {
	if len(responses) == 0 {
		return nil
	}
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		seen := make(map[string]bool)
		for _, r := range responses {
			e := dataset.NormalizeEmail(r.ParticipantEmail)
			if seen[e] {
				continue
			}
			seen[e] = true
			batch.Queue(`DELETE FROM `+tableResponses+` WHERE participante_email = $1`, e)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("deleting previous responses: %w", err)
		}
		return copyResponses(ctx, tx, responses)
	})
}

func copyResponses(ctx context.Context, tx pgx.Tx, responses []models.SurveyResponse) error {
	if len(responses) == 0 {
		return nil
	}
	_, err := tx.CopyFrom(ctx, pgx.Identifier{tableResponses}, responseCols,
		pgx.CopyFromSlice(len(responses), func(i int) ([]any, error) {
			r := responses[i]
			at := r.SubmittedAt.Local()
			return []any{
				dataset.NormalizeEmail(r.ParticipantEmail),
				r.DisplayName,
				r.QuestionID,
				r.QuestionText,
				r.Answer,
				at.Format("2006-01-02 15:04:05"),
				at.Unix(),
			}, nil
		}))
	if err != nil {
		return fmt.Errorf("inserting responses: %w", err)
	}
	return nil
}

// PushDatasets replaces the cloud copy of every dataset table
func (p *Postgres) PushDatasets(ctx context.Context, b *dataset.Bundle) error {
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		for _, table := range []string{tableAttendance, tableTeams, tableActivities, tableParticipants} {
			if _, err := tx.Exec(ctx, `DELETE FROM `+table); err != nil {
				return fmt.Errorf("clearing %s: %w", table, err)
			}
		}

		copies := []struct {
			table string
			cols  []string
			src   pgx.CopyFromSource
		}{
			{tableParticipants, participantCols, pgx.CopyFromSlice(len(b.Participants), func(i int) ([]any, error) {
				r := b.Participants[i]
				return []any{r.Email, r.GivenNames, r.FamilyNames, r.SurveyCompleted}, nil
			})},
			{tableActivities, activityCols, pgx.CopyFromSlice(len(b.Activities), func(i int) ([]any, error) {
				r := b.Activities[i]
				return []any{r.Code, r.Title, r.Kind}, nil
			})},
			{tableAttendance, attendanceCols, pgx.CopyFromSlice(len(b.Attendance), func(i int) ([]any, error) {
				r := b.Attendance[i]
				return []any{r.ParticipantEmail, r.ActivityCode, r.ActivityType}, nil
			})},
			{tableTeams, teamCols, pgx.CopyFromSlice(len(b.Teams), func(i int) ([]any, error) {
				r := b.Teams[i]
				return []any{r.Name, r.Captain, r.Members[0], r.Members[1], r.Members[2], r.Members[3], r.Members[4]}, nil
			})},
		}

		for _, c := range copies {
			n, err := tx.CopyFrom(ctx, pgx.Identifier{c.table}, c.cols, c.src)
			if err != nil {
				return fmt.Errorf("copying %s: %w", c.table, err)
			}
			p.log.Debug("Copied rows to cloud store", "table", c.table, "rows", n)
		}
		return nil
	})
}

// FetchDatasets reads every dataset table from the cloud copy
func (p *Postgres) FetchDatasets(ctx context.Context) (*dataset.Bundle, error) {
	b := &dataset.Bundle{}
	var err error

	b.Participants, err = collect(ctx, p.pool, `
		SELECT lower(trim(email)), COALESCE(nombres, ''), COALESCE(apellidos, ''), COALESCE(encuesta_completada, FALSE)
		FROM `+tableParticipants+` ORDER BY email`,
		func(row pgx.CollectableRow) (models.Participant, error) {
			var r models.Participant
			err := row.Scan(&r.Email, &r.GivenNames, &r.FamilyNames, &r.SurveyCompleted)
			return r, err
		})
	if err != nil {
		return nil, err
	}

	b.Activities, err = collect(ctx, p.pool, `
		SELECT upper(trim(codigo)), COALESCE(titulo, ''), COALESCE(tipo, '') FROM `+tableActivities+` ORDER BY codigo`,
		func(row pgx.CollectableRow) (models.Activity, error) {
			var r models.Activity
			err := row.Scan(&r.Code, &r.Title, &r.Kind)
			return r, err
		})
	if err != nil {
		return nil, err
	}

	b.Attendance, err = collect(ctx, p.pool, `
		SELECT lower(trim(participante_email)), upper(trim(actividad_codigo)), COALESCE(tipo_actividad, '')
		FROM `+tableAttendance,
		func(row pgx.CollectableRow) (models.AttendanceRecord, error) {
			var r models.AttendanceRecord
			err := row.Scan(&r.ParticipantEmail, &r.ActivityCode, &r.ActivityType)
			return r, err
		})
	if err != nil {
		return nil, err
	}

	b.Teams, err = collect(ctx, p.pool, `
		SELECT COALESCE(nombre_equipo, ''), lower(trim(capitan_email)),
			lower(COALESCE(integrante_1_email, '')), lower(COALESCE(integrante_2_email, '')),
			lower(COALESCE(integrante_3_email, '')), lower(COALESCE(integrante_4_email, '')),
			lower(COALESCE(integrante_5_email, ''))
		FROM `+tableTeams,
		func(row pgx.CollectableRow) (models.TeamEntry, error) {
			var r models.TeamEntry
			err := row.Scan(&r.Name, &r.Captain, &r.Members[0], &r.Members[1], &r.Members[2], &r.Members[3], &r.Members[4])
			return r, err
		})
	if err != nil {
		return nil, err
	}

	return b, nil
}

func collect[T any](ctx context.Context, pool *pgxpool.Pool, query string, fn pgx.RowToFunc[T]) ([]T, error) {
	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying cloud store: %w", err)
	}
	out, err := pgx.CollectRows(rows, fn)
	if err != nil {
		return nil, fmt.Errorf("reading cloud rows: %w", err)
	}
	return out, nil
}
