package output

import (
	"github.com/owenrumney/go-sarif/v3/pkg/report/v210/sarif"
	"github.com/pypes-dev/pypes/internal/domain/graph"
)

// ruleCatalog describes every RejectionReason as a stable SARIF rule,
// independent of which one actually fired, so tooling that diffs SARIF
// across runs sees a consistent rule set.
var ruleCatalog = []struct {
	id, name, description string
	level                  string
}{
	{string(graph.UnboundImport), "unbound-import", "A component declares an import with no wiring entry.", "error"},
	{string(graph.UnsatisfiedExport), "unsatisfied-export", "A wiring entry names a provider export that does not exist.", "error"},
	{string(graph.LethalTrifecta), "lethal-trifecta", "A component accumulates untrusted content, sensitive data, and exfiltration capability.", "error"},
	{string(graph.DeadlyDuo), "deadly-duo", "A component accumulates untrusted content and destructive-action capability.", "error"},
}

type sarifMapper struct {
	rejection *graph.Rejection
}

func newSARIFMapper(rejection *graph.Rejection) *sarifMapper {
	return &sarifMapper{rejection: rejection}
}

func (m *sarifMapper) mapToRun(run *sarif.Run) {
	m.addRules(run)
	if m.rejection != nil {
		run.AddResult(m.mapRejection(m.rejection))
	}
}

func (m *sarifMapper) addRules(run *sarif.Run) {
	for _, rule := range ruleCatalog {
		descriptor := sarif.NewReportingDescriptor().WithID(rule.id).WithName(rule.name)
		descriptor.WithShortDescription(&sarif.MultiformatMessageString{Text: &rule.description})
		descriptor.WithFullDescription(&sarif.MultiformatMessageString{Text: &rule.description})
		descriptor.WithDefaultConfiguration(&sarif.ReportingConfiguration{Level: rule.level})
		run.Tool.Driver.AddRule(descriptor)
	}
}

func (m *sarifMapper) mapRejection(rejection *graph.Rejection) *sarif.Result {
	result := sarif.NewRuleResult(string(rejection.Reason))
	result.Level = "error"
	result.Kind = "fail"
	result.Message = sarif.NewTextMessage(rejection.Error())

	if loc := m.componentLocation(rejection.Component); loc != nil {
		result.Locations = []*sarif.Location{loc}
	}

	props := sarif.NewPropertyBag()
	props.Add("component", rejection.Component)
	if len(rejection.Edges) > 0 {
		props.Add("edges", m.edgeSummaries(rejection.Edges))
	}
	result.WithProperties(props)

	return result
}

// componentLocation points at the component by name rather than a source
// file: the analyser never reads component source, only the blueprint's
// [components] table.
func (m *sarifMapper) componentLocation(component string) *sarif.Location {
	if component == "" {
		return nil
	}
	pLoc := sarif.NewPhysicalLocation().
		WithArtifactLocation(sarif.NewArtifactLocation().WithURI("component:" + component))
	return sarif.NewLocation().WithPhysicalLocation(pLoc)
}

type edgeSummary struct {
	Consumer       string   `json:"consumer"`
	ConsumerImport string   `json:"consumerImport"`
	Provider       string   `json:"provider"`
	ProviderExport string   `json:"providerExport"`
	Classes        []string `json:"classes"`
}

func (m *sarifMapper) edgeSummaries(edges []graph.Edge) []edgeSummary {
	out := make([]edgeSummary, 0, len(edges))
	for _, e := range edges {
		classes := make([]string, 0, len(e.Classes))
		for _, c := range e.Classes.Slice() {
			classes = append(classes, c.String())
		}
		out = append(out, edgeSummary{
			Consumer:       e.Consumer,
			ConsumerImport: e.ConsumerImport.Qualified(),
			Provider:       e.Provider,
			ProviderExport: e.ProviderExport.Qualified(),
			Classes:        classes,
		})
	}
	return out
}
