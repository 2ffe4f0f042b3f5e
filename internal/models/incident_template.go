package models

import "sort"

// IncidentTemplate pre-fills the narrative of a new incident.
type IncidentTemplate struct {
	Key                 string       `json:"key"`
	IncidentType        IncidentType `json:"incident_type"`
	Severity            Severity     `json:"severity"`
	DescriptionTemplate string       `json:"description_template"`
	ActionTemplate      string       `json:"action_template"`
}

var incidentTemplates = map[string]IncidentTemplate{
	"booboo": {
		Key:                 "booboo",
		IncidentType:        IncidentTypeInjury,
		Severity:            SeverityMinor,
		DescriptionTemplate: "Child sustained a minor bump or scrape during play.",
		ActionTemplate:      "Area cleaned, ice pack applied and child comforted. Child returned to normal activity.",
	},
	"behavioral": {
		Key:                 "behavioral",
		IncidentType:        IncidentTypeBehavioral,
		Severity:            SeverityModerate,
		DescriptionTemplate: "Child displayed behavior that required staff intervention.",
		ActionTemplate:      "Staff redirected the child, discussed expectations and monitored for the rest of the day.",
	},
	"illness": {
		Key:                 "illness",
		IncidentType:        IncidentTypeIllness,
		Severity:            SeverityModerate,
		DescriptionTemplate: "Child showed symptoms of illness during care.",
		ActionTemplate:      "Child was separated from the group, temperature checked and guardian contacted for pickup.",
	},
	"medication": {
		Key:                 "medication",
		IncidentType:        IncidentTypeMedication,
		Severity:            SeverityModerate,
		DescriptionTemplate: "Medication was administered to the child.",
		ActionTemplate:      "Dose, time and administering staff recorded. Child observed for reactions.",
	},
	"accident": {
		Key:                 "accident",
		IncidentType:        IncidentTypeInjury,
		Severity:            SeveritySerious,
		DescriptionTemplate: "Child was involved in an accident resulting in injury.",
		ActionTemplate:      "First aid administered, director notified and guardian contacted immediately. Medical attention sought as needed.",
	},
}

// LookupIncidentTemplate returns a copy of the template registered under key.
func LookupIncidentTemplate(key string) (IncidentTemplate, bool) {
	tpl, ok := incidentTemplates[key]
	return tpl, ok
}

// IncidentTemplates lists every template ordered by key.
func IncidentTemplates() []IncidentTemplate {
	out := make([]IncidentTemplate, 0, len(incidentTemplates))
	for _, tpl := range incidentTemplates {
		out = append(out, tpl)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
