package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatAndParseIncidentNumber(t *testing.T) {
	assert.Equal(t, "INC-2025-0007", FormatIncidentNumber(2025, 7))
	assert.Equal(t, "INC-2025-12345", FormatIncidentNumber(2025, 12345))

	year, seq, ok := ParseIncidentNumber("INC-2025-0007")
	require.True(t, ok)
	assert.Equal(t, 2025, year)
	assert.Equal(t, 7, seq)

	for _, bad := range []string{"", "INC-2025", "ABC-2025-0001", "INC-20x5-0001", "INC-2025-00a1", "INC-2025-0000"} {
		_, _, ok := ParseIncidentNumber(bad)
		assert.False(t, ok, bad)
	}
}

func TestHasSignature(t *testing.T) {
	var nilIncident *Incident
	assert.False(t, nilIncident.HasSignature())

	blank := "  "
	assert.False(t, (&Incident{SignatureData: &blank}).HasSignature())

	sig := "data:image/png;base64,AAAA"
	assert.True(t, (&Incident{SignatureData: &sig}).HasSignature())
}

func TestEnumValidity(t *testing.T) {
	assert.True(t, IncidentTypePropertyDamage.Valid())
	assert.False(t, IncidentType("fire").Valid())
	assert.True(t, SeverityCritical.Valid())
	assert.False(t, Severity("").Valid())
	assert.True(t, NotificationInPerson.Valid())
	assert.False(t, NotificationMethod("pigeon").Valid())
	assert.Len(t, AllIncidentStatuses(), 4)
}

type optionalPayload struct {
	Location Optional[string]   `json:"location"`
	Notes    Optional[string]   `json:"notes"`
	Witness  Optional[[]string] `json:"witness"`
}

func TestOptionalDistinguishesOmittedFromNull(t *testing.T) {
	var payload optionalPayload
	require.NoError(t, json.Unmarshal([]byte(`{"location":"Playground","notes":null}`), &payload))

	assert.True(t, payload.Location.HasValue())
	assert.Equal(t, "Playground", payload.Location.Value)
	assert.True(t, payload.Notes.Set)
	assert.True(t, payload.Notes.Null)
	assert.Nil(t, payload.Notes.Ptr())
	assert.False(t, payload.Witness.Set)

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"location":"Playground","notes":null,"witness":null}`, string(out))
}

func TestIncidentPatchColumns(t *testing.T) {
	occurred := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	patch := IncidentPatch{
		Location:        Some("Playground"),
		ActionTaken:     Cleared[string](),
		OccurredAt:      Some(occurred),
		WitnessStaffIDs: Cleared[[]string](),
	}

	cols := patch.Columns()
	require.Len(t, cols, 4)
	assert.Equal(t, ColumnValue{Column: "occurred_at", Value: occurred}, cols[0])
	assert.Equal(t, ColumnValue{Column: "location", Value: "Playground"}, cols[1])
	assert.Equal(t, ColumnValue{Column: "action_taken"}, cols[2])
	assert.Equal(t, ColumnValue{Column: "witness_staff_ids", Value: pq.StringArray{}}, cols[3])

	assert.False(t, patch.IsEmpty())
	assert.True(t, IncidentPatch{}.IsEmpty())
}

func TestIncidentPatchChangesRedactsSignature(t *testing.T) {
	patch := IncidentPatch{SignatureData: Some("data:image/png;base64,AAAA"), SignedByName: Some("Ana")}
	changes := patch.Changes()
	assert.Equal(t, "[redacted]", changes["signature_data"])
	assert.Equal(t, "Ana", changes["signed_by_name"])
}

func TestIncidentTemplates(t *testing.T) {
	tpl, ok := LookupIncidentTemplate("booboo")
	require.True(t, ok)
	assert.Equal(t, IncidentTypeInjury, tpl.IncidentType)
	assert.Equal(t, SeverityMinor, tpl.Severity)
	assert.NotEmpty(t, tpl.DescriptionTemplate)

	accident, ok := LookupIncidentTemplate("accident")
	require.True(t, ok)
	assert.Equal(t, SeveritySerious, accident.Severity)

	_, ok = LookupIncidentTemplate("unknown")
	assert.False(t, ok)

	list := IncidentTemplates()
	require.Len(t, list, 5)
	assert.Equal(t, "accident", list[0].Key)

	list[0].Severity = SeverityCritical
	again, _ := LookupIncidentTemplate("accident")
	assert.Equal(t, SeveritySerious, again.Severity)
}
