package model

// Status represents the lifecycle state of a team OKR.
type Status string

const (
	StatusActive Status = "Activo"
	StatusClosed Status = "Cerrado"
)

// Health is the qualitative traffic-light indicator for an active OKR,
// distinct from numeric progress.
type Health string

const (
	HealthOnTrack  Health = "on_track"
	HealthAtRisk   Health = "at_risk"
	HealthOffTrack Health = "off_track"
)

// InitiativeStatus tracks an initiative through its workflow.
type InitiativeStatus string

const (
	InitiativePending    InitiativeStatus = "Pendiente"
	InitiativeInProgress InitiativeStatus = "En Progreso"
	InitiativeCompleted  InitiativeStatus = "Completado"
)

// KeyResultTypeMetric is the only key-result type currently supported.
const KeyResultTypeMetric = "metric"

// OrgObjective is one organizational objective in the shared
// organizational-context document. The whole list is replaced on save.
type OrgObjective struct {
	Objective  string         `json:"objective" yaml:"objective"`
	KeyResults []OrgKeyResult `json:"keyResults" yaml:"key_results"`
}

// OrgKeyResult is a named key result on an organizational objective.
type OrgKeyResult struct {
	Name string `json:"name" yaml:"name"`
}

// OrgContext is the singleton document holding organizational objectives.
type OrgContext struct {
	Okrs []OrgObjective `json:"okrs"`
}

// TeamOkr is a team-owned objective with measurable key results.
// ID is assigned by the store on creation. Progress is derived; the
// stored value is advisory only and recomputed on read.
type TeamOkr struct {
	ID            string         `json:"id,omitempty"`
	Objective     string         `json:"objective"`
	KeyResults    []KeyResult    `json:"keyResults"`
	AlignedTo     string         `json:"alignedTo"`
	Team          string         `json:"team"`
	Status        Status         `json:"status"`
	HealthStatus  Health         `json:"healthStatus"`
	Progress      int            `json:"progress"`
	UserID        string         `json:"userId"`
	Author        string         `json:"author"`
	CreatedAt     string         `json:"createdAt"`
	Retrospective *Retrospective `json:"retrospective,omitempty"`
}

// KeyResult is a measurable target on a team OKR. Progress is an
// append-only sequence of check-ins; entries are never mutated in place.
type KeyResult struct {
	Name         string          `json:"name"`
	Type         string          `json:"type"`
	StartValue   int             `json:"startValue"`
	TargetValue  int             `json:"targetValue"`
	CurrentValue int             `json:"currentValue"`
	Progress     []ProgressEntry `json:"progress,omitempty"`
}

// ProgressEntry is a single immutable progress check-in on a key result.
type ProgressEntry struct {
	Value   int    `json:"value"`
	Comment string `json:"comment,omitempty"`
	Date    string `json:"date"`
	Author  string `json:"author"`
}

// Initiative is a piece of work linked to a team OKR. LinkedOkrID is a
// weak reference: deleting the OKR leaves the initiative dangling.
type Initiative struct {
	ID          string           `json:"id,omitempty"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Owner       string           `json:"owner"`
	LinkedOkrID string           `json:"linkedOkrId"`
	Status      InitiativeStatus `json:"status"`
}

// SetupConfig is the singleton cycle configuration: cycle window plus
// the designated ambassador roles. Configuration only, no behavior.
type SetupConfig struct {
	CycleDuration            string           `json:"cycleDuration,omitempty"`
	CycleStartDate           string           `json:"cycleStartDate,omitempty"`
	CycleEndDate             string           `json:"cycleEndDate,omitempty"`
	OrganizationalAmbassador string           `json:"organizationalAmbassador,omitempty"`
	TeamAmbassadors          []TeamAmbassador `json:"teamAmbassadors,omitempty"`
}

// TeamAmbassador names the OKR facilitator for one team.
type TeamAmbassador struct {
	Team string `json:"team"`
	Name string `json:"name"`
}

// Retrospective is attached to a team OKR exactly once, at closure.
type Retrospective struct {
	Reflection   string `json:"reflection"`
	Achievements string `json:"achievements"`
	Learnings    string `json:"learnings"`
}

// ProblemReport is one entry in the append-only feedback log.
type ProblemReport struct {
	Description string `json:"description"`
	View        string `json:"view"`
	UserID      string `json:"userId"`
	UserEmail   string `json:"userEmail,omitempty"`
	UserName    string `json:"userName,omitempty"`
	Timestamp   string `json:"timestamp"`
	AppID       string `json:"appId"`
}

// HealthOrDefault returns the OKR's health status, defaulting to
// on_track for records that predate the field.
func (o TeamOkr) HealthOrDefault() Health {
	if o.HealthStatus == "" {
		return HealthOnTrack
	}
	return o.HealthStatus
}

// ParseHealth validates a health-status string.
func ParseHealth(value string) (Health, error) {
	switch Health(value) {
	case HealthOnTrack, HealthAtRisk, HealthOffTrack:
		return Health(value), nil
	default:
		return "", ValidationError{Field: "healthStatus", Message: "must be on_track, at_risk, or off_track"}
	}
}

// ParseInitiativeStatus validates an initiative-status string.
func ParseInitiativeStatus(value string) (InitiativeStatus, error) {
	switch InitiativeStatus(value) {
	case InitiativePending, InitiativeInProgress, InitiativeCompleted:
		return InitiativeStatus(value), nil
	default:
		return "", ValidationError{Field: "status", Message: "must be Pendiente, En Progreso, or Completado"}
	}
}
