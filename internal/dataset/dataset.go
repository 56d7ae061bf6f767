// Package dataset loads the event's CSV exports (participants, activities,
// attendance, contest teams) into typed records. Headers are checked up front:
// a missing required column or an unexpected column is an error, not a
// silently empty field.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jornadaii/certify/internal/errors"
	"github.com/jornadaii/certify/internal/models"
)

// File names inside the data directory
const (
	ParticipantsFile = "participantes.csv"
	AttendanceFile   = "asistencias.csv"
	ActivitiesFile   = "actividades.csv"
	TeamsFile        = "equipos_concurso.csv"
)

// Bundle is a full set of event records, ready for import
type Bundle struct {
	Participants []models.Participant
	Activities   []models.Activity
	Attendance   []models.AttendanceRecord
	Teams        []models.TeamEntry
}

type schema struct {
	required []string
	optional []string
}

var (
	participantSchema = schema{
		required: []string{"email", "nombres", "apellidos"},
		optional: []string{"encuesta_completada"},
	}
	activitySchema = schema{
		required: []string{"codigo", "titulo"},
		optional: []string{"tipo"},
	}
	attendanceSchema = schema{
		required: []string{"participante_email", "actividad_codigo"},
		optional: []string{"tipo_actividad"},
	}
	teamSchema = schema{
		required: []string{"nombre_equipo", "capitan_email"},
		optional: memberColumns(),
	}
)

func (s schema) columns() []string {
	out := make([]string, 0, len(s.required)+len(s.optional))
	out = append(out, s.required...)
	return append(out, s.optional...)
}

func memberColumns() []string {
	cols := make([]string, models.MaxTeamMembers)
	for i := range cols {
		cols[i] = fmt.Sprintf("integrante_%d_email", i+1)
	}
	return cols
}

// row gives named access to one CSV record
type row struct {
	line   int
	fields []string
	index  map[string]int
}

func (r row) get(col string) string {
	i, ok := r.index[col]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

// readTable parses a CSV stream, validates its header against s and calls fn
// for every data row. Blank lines are skipped by encoding/csv.
func readTable(rd io.Reader, name string, s schema, fn func(row) error) error {
	cr := csv.NewReader(rd)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return errors.Validationf("%s: file is empty", name)
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrValidation, name+": unreadable header")
	}

	index, err := checkHeader(name, header, s)
	if err != nil {
		return err
	}

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, errors.ErrValidation, name+": malformed record")
		}
		line, _ := cr.FieldPos(0)
		if err := fn(row{line: line, fields: rec, index: index}); err != nil {
			return err
		}
	}
}

func checkHeader(name string, header []string, s schema) (map[string]int, error) {
	allowed := make(map[string]bool, len(s.required)+len(s.optional))
	for _, c := range s.required {
		allowed[c] = true
	}
	for _, c := range s.optional {
		allowed[c] = true
	}

	index := make(map[string]int, len(header))
	var unknown []string
	for i, h := range header {
		col := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if !allowed[col] {
			unknown = append(unknown, col)
			continue
		}
		if _, dup := index[col]; dup {
			return nil, errors.Validationf("%s: duplicate column %q", name, col)
		}
		index[col] = i
	}

	var missing []string
	for _, c := range s.required {
		if _, ok := index[c]; !ok {
			missing = append(missing, c)
		}
	}

	if len(missing) > 0 || len(unknown) > 0 {
		details := make([]string, 0, len(missing)+len(unknown))
		for _, c := range missing {
			details = append(details, "missing column "+c)
		}
		for _, c := range unknown {
			details = append(details, "unknown column "+c)
		}
		return nil, errors.Validationf("%s: header does not match the expected columns", name).WithDetails(details...)
	}
	return index, nil
}

// NormalizeEmail is the canonical identifier form
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ReadParticipants parses participantes.csv
func ReadParticipants(rd io.Reader) ([]models.Participant, error) {
	var out []models.Participant
	seen := make(map[string]int)
	err := readTable(rd, ParticipantsFile, participantSchema, func(r row) error {
		email := NormalizeEmail(r.get("email"))
		if email == "" {
			return errors.Validationf("%s line %d: email is empty", ParticipantsFile, r.line)
		}
		if prev, dup := seen[email]; dup {
			return errors.Validationf("%s line %d: email %s already listed on line %d", ParticipantsFile, r.line, email, prev)
		}
		seen[email] = r.line

		done, err := parseFlag(r.get("encuesta_completada"))
		if err != nil {
			return errors.Validationf("%s line %d: %v", ParticipantsFile, r.line, err)
		}
		out = append(out, models.Participant{
			Email:           email,
			GivenNames:      r.get("nombres"),
			FamilyNames:     r.get("apellidos"),
			SurveyCompleted: done,
		})
		return nil
	})
	return out, err
}

// ReadActivities parses actividades.csv
func ReadActivities(rd io.Reader) ([]models.Activity, error) {
	var out []models.Activity
	err := readTable(rd, ActivitiesFile, activitySchema, func(r row) error {
		code := strings.ToUpper(r.get("codigo"))
		if code == "" {
			return errors.Validationf("%s line %d: codigo is empty", ActivitiesFile, r.line)
		}
		out = append(out, models.Activity{Code: code, Title: r.get("titulo"), Kind: r.get("tipo")})
		return nil
	})
	return out, err
}

// ReadAttendance parses asistencias.csv
func ReadAttendance(rd io.Reader) ([]models.AttendanceRecord, error) {
	var out []models.AttendanceRecord
	err := readTable(rd, AttendanceFile, attendanceSchema, func(r row) error {
		email := NormalizeEmail(r.get("participante_email"))
		code := strings.ToUpper(r.get("actividad_codigo"))
		if email == "" || code == "" {
			return errors.Validationf("%s line %d: participante_email and actividad_codigo are required", AttendanceFile, r.line)
		}
		out = append(out, models.AttendanceRecord{
			ParticipantEmail: email,
			ActivityCode:     code,
			ActivityType:     r.get("tipo_actividad"),
		})
		return nil
	})
	return out, err
}

// ReadTeams parses equipos_concurso.csv
func ReadTeams(rd io.Reader) ([]models.TeamEntry, error) {
	var out []models.TeamEntry
	cols := memberColumns()
	err := readTable(rd, TeamsFile, teamSchema, func(r row) error {
		team := models.TeamEntry{
			Name:    r.get("nombre_equipo"),
			Captain: NormalizeEmail(r.get("capitan_email")),
		}
		if team.Captain == "" {
			return errors.Validationf("%s line %d: capitan_email is empty", TeamsFile, r.line)
		}
		for i, c := range cols {
			team.Members[i] = NormalizeEmail(r.get(c))
		}
		out = append(out, team)
		return nil
	})
	return out, err
}

func parseFlag(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "", "0", "false", "no", "f":
		return false, nil
	case "1", "true", "si", "sí", "yes", "t":
		return true, nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f != 0, nil
	}
	return false, fmt.Errorf("encuesta_completada %q is not a boolean", s)
}

// LoadFS reads a full bundle from fsys. Participants and attendance are
// required; activities and teams may be absent.
func LoadFS(fsys fs.FS) (*Bundle, error) {
	b := &Bundle{}
	var err error

	if b.Participants, err = readFile(fsys, ParticipantsFile, true, ReadParticipants); err != nil {
		return nil, err
	}
	if b.Attendance, err = readFile(fsys, AttendanceFile, true, ReadAttendance); err != nil {
		return nil, err
	}
	if b.Activities, err = readFile(fsys, ActivitiesFile, false, ReadActivities); err != nil {
		return nil, err
	}
	if b.Teams, err = readFile(fsys, TeamsFile, false, ReadTeams); err != nil {
		return nil, err
	}
	return b, nil
}

func readFile[T any](fsys fs.FS, name string, required bool, parse func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := fsys.Open(name)
	if err != nil {
		if !required && os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.ErrNotFound, "opening "+name)
	}
	defer f.Close()
	return parse(f)
}

// WriteDir writes the bundle as CSV files into dir, creating it if needed.
// The files use the same headers LoadFS expects.
func WriteDir(dir string, b *Bundle) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tables := []struct {
		name   string
		header []string
		rows   [][]string
	}{
		{ParticipantsFile, participantSchema.columns(), participantRows(b.Participants)},
		{ActivitiesFile, activitySchema.columns(), activityRows(b.Activities)},
		{AttendanceFile, attendanceSchema.columns(), attendanceRows(b.Attendance)},
		{TeamsFile, teamSchema.columns(), teamRows(b.Teams)},
	}

	for _, t := range tables {
		if err := writeTable(filepath.Join(dir, t.name), t.header, t.rows); err != nil {
			return fmt.Errorf("writing %s: %w", t.name, err)
		}
	}
	return nil
}

func writeTable(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return f.Close()
}

func participantRows(ps []models.Participant) [][]string {
	out := make([][]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, []string{p.Email, p.GivenNames, p.FamilyNames, strconv.FormatBool(p.SurveyCompleted)})
	}
	return out
}

func activityRows(as []models.Activity) [][]string {
	out := make([][]string, 0, len(as))
	for _, a := range as {
		out = append(out, []string{a.Code, a.Title, a.Kind})
	}
	return out
}

func attendanceRows(rs []models.AttendanceRecord) [][]string {
	out := make([][]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, []string{r.ParticipantEmail, r.ActivityCode, r.ActivityType})
	}
	return out
}

func teamRows(ts []models.TeamEntry) [][]string {
	out := make([][]string, 0, len(ts))
	for _, t := range ts {
		out = append(out, append([]string{t.Name, t.Captain}, t.Members[:]...))
	}
	return out
}
