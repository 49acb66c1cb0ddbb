package store

import "fmt"

// Well-known document keys under the config collection.
const (
	OrgContextKey = "organizational_context"
	SetupKey      = "implementation_setup"
)

// Paths resolves the logical storage layout for one application
// namespace. All shared data lives under artifacts/<appID>/public/data.
type Paths struct {
	AppID string
}

func (p Paths) base() string {
	return fmt.Sprintf("artifacts/%s/public/data", p.AppID)
}

// Okrs is the team OKR collection.
func (p Paths) Okrs() string {
	return p.base() + "/okrs"
}

// Initiatives is the initiative collection.
func (p Paths) Initiatives() string {
	return p.base() + "/initiatives"
}

// ProblemReports is the append-only feedback collection.
func (p Paths) ProblemReports() string {
	return p.base() + "/problem_reports"
}

// Config is the singleton-document config collection.
func (p Paths) Config() string {
	return p.base() + "/config"
}

// OrgContextDoc is the singleton organizational-objectives document.
func (p Paths) OrgContextDoc() string {
	return p.Config() + "/" + OrgContextKey
}

// SetupDoc is the singleton cycle-setup document.
func (p Paths) SetupDoc() string {
	return p.Config() + "/" + SetupKey
}

// DocPath joins a collection path and a document id.
func DocPath(collection, id string) string {
	return collection + "/" + id
}
