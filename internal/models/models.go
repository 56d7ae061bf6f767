package models

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Participant is a registered attendee, keyed by lower-cased email
type Participant struct {
	Email             string     `json:"email"`
	GivenNames        string     `json:"given_names"`
	FamilyNames       string     `json:"family_names"`
	SurveyCompleted   bool       `json:"survey_completed"`
	SurveyCompletedAt *time.Time `json:"survey_completed_at,omitempty"`
}

// FullName joins given and family names without any casing changes
func (p Participant) FullName() string {
	return strings.TrimSpace(strings.Join(strings.Fields(p.GivenNames+" "+p.FamilyNames), " "))
}

// Activity is a scheduled conference activity (keynote, workshop, panel...)
type Activity struct {
	Code  string `json:"code"`
	Title string `json:"title"`
	Kind  string `json:"kind"`
}

// AttendanceRecord links a participant to an activity they checked into
type AttendanceRecord struct {
	ParticipantEmail string `json:"participant_email"`
	ActivityCode     string `json:"activity_code"`
	ActivityType     string `json:"activity_type"`
	ActivityTitle    string `json:"activity_title,omitempty"` // joined from activities when known
}

var (
	workshopCode  = regexp.MustCompile(`^W(\d+)`)
	workshopTitle = regexp.MustCompile(`(?i)workshop\s*(\d+)`)
)

// IsWorkshop reports whether the record is a workshop attendance, either by
// its type tag or by an activity code starting with W and a number (W2, W1-A)
func (a AttendanceRecord) IsWorkshop() bool {
	return strings.EqualFold(strings.TrimSpace(a.ActivityType), "workshop") ||
		workshopCode.MatchString(strings.ToUpper(strings.TrimSpace(a.ActivityCode)))
}

// WorkshopNumber extracts the workshop number from the code (W3) or, failing
// that, from the title ("Workshop 3")
func (a AttendanceRecord) WorkshopNumber() (int, bool) {
	if m := workshopCode.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(a.ActivityCode))); m != nil {
		n, err := strconv.Atoi(m[1])
		return n, err == nil
	}
	if m := workshopTitle.FindStringSubmatch(a.ActivityTitle); m != nil {
		n, err := strconv.Atoi(m[1])
		return n, err == nil
	}
	return 0, false
}

// DisplayTitle is the activity title, or its code when the title is unknown
func (a AttendanceRecord) DisplayTitle() string {
	if t := strings.TrimSpace(a.ActivityTitle); t != "" {
		return t
	}
	return a.ActivityCode
}

// MaxTeamMembers is the number of member slots besides the captain
const MaxTeamMembers = 5

// TeamEntry is a contest team: a captain plus up to five members
type TeamEntry struct {
	Name    string                 `json:"name"`
	Captain string                 `json:"captain"`
	Members [MaxTeamMembers]string `json:"members"`
}

// CertificateKind identifies a certificate template family
type CertificateKind string

const (
	KindGeneral  CertificateKind = "general"
	KindWorkshop CertificateKind = "workshop"
	KindContest  CertificateKind = "contest"
)

// ParseCertificateKind accepts the canonical kind names
func ParseCertificateKind(s string) (CertificateKind, bool) {
	switch CertificateKind(strings.ToLower(strings.TrimSpace(s))) {
	case KindGeneral:
		return KindGeneral, true
	case KindWorkshop:
		return KindWorkshop, true
	case KindContest:
		return KindContest, true
	}
	return "", false
}

// CertificateOffer is derived on each eligibility check and never stored
type CertificateOffer struct {
	Kind        CertificateKind `json:"kind"`
	DisplayName string          `json:"display_name"`
	TemplateRef string          `json:"template_ref"`
	Variant     string          `json:"variant,omitempty"` // workshop number for workshop offers
}

// Eligibility bundles everything the evaluator computes for one participant
type Eligibility struct {
	Participant           Participant        `json:"participant"`
	DisplayName           string             `json:"display_name"`
	AttendanceCount       int                `json:"attendance_count"`
	MinAttendance         int                `json:"min_attendance"`
	WorkshopAttended      bool               `json:"workshop_attended"`
	WorkshopCode          string             `json:"workshop_code,omitempty"`
	WorkshopName          string             `json:"workshop_name,omitempty"`
	ContestAttended       bool               `json:"contest_attended"`
	EligibleGeneral       bool               `json:"eligible_general"`
	CertificatesAvailable []CertificateOffer `json:"certificates_available"`
	SurveyCompleted       bool               `json:"survey_completed"`
}

// Shortfall is how many more attendances are needed for the general certificate
func (e *Eligibility) Shortfall() int {
	if e.AttendanceCount >= e.MinAttendance {
		return 0
	}
	return e.MinAttendance - e.AttendanceCount
}

// Offer returns the offer of the given kind, if available
func (e *Eligibility) Offer(kind CertificateKind) (CertificateOffer, bool) {
	for _, o := range e.CertificatesAvailable {
		if o.Kind == kind {
			return o, true
		}
	}
	return CertificateOffer{}, false
}

// SurveyResponse is one stored answer
type SurveyResponse struct {
	SubmissionID     string    `json:"submission_id"`
	ParticipantEmail string    `json:"participant_email"`
	DisplayName      string    `json:"display_name"`
	QuestionID       int       `json:"question_id"`
	QuestionText     string    `json:"question_text"`
	Answer           string    `json:"answer"`
	SubmittedAt      time.Time `json:"submitted_at"`
}

// SurveyStats summarises stored responses
type SurveyStats struct {
	TotalResponses    int        `json:"total_responses"`
	TotalParticipants int        `json:"total_participants"`
	RegisteredCount   int        `json:"registered_count"`
	CompletedCount    int        `json:"completed_count"`
	LastResponseAt    *time.Time `json:"last_response_at,omitempty"`
}

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}
