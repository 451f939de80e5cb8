package datasets

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTagsAreStableAndComplete(t *testing.T) {
	require.Equal(t, []string{Albrecht, China, Cocomo, Desharnais}, Tags())

	definitions := All()
	require.Len(t, definitions, 4)
	for i, definition := range definitions {
		require.Equal(t, Tags()[i], definition.Tag)
		require.NotEmpty(t, definition.Title)
		require.NotEmpty(t, definition.Fields)
	}
}

func TestLookupNormalisesTag(t *testing.T) {
	definition, ok := Lookup("  China ")
	require.True(t, ok)
	require.Equal(t, China, definition.Tag)
	require.Len(t, definition.Fields, 8)

	_, ok = Lookup("loc")
	require.False(t, ok)
}

func TestValidateAcceptsCompleteInput(t *testing.T) {
	for _, definition := range All() {
		values := make(map[string]float64, len(definition.Fields))
		for i, field := range definition.Fields {
			values[field.Name] = float64(i)
		}
		require.NoError(t, definition.Validate(values), definition.Tag)
	}
}

func TestValidateRejectsMissingField(t *testing.T) {
	definition, ok := Lookup(Albrecht)
	require.True(t, ok)

	values := map[string]float64{"Input": 10, "Output": 5, "Inquiry": 3, "File": 2}
	err := definition.Validate(values)
	require.Error(t, err)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Equal(t, Albrecht, validationErr.Dataset)
	require.Len(t, validationErr.Fields, 1)
	require.Equal(t, "AdjFP", validationErr.Fields[0].Field)
	require.Equal(t, "is required", validationErr.Fields[0].Message)
}

func TestValidateRejectsNegativeValue(t *testing.T) {
	definition, ok := Lookup(Desharnais)
	require.True(t, ok)

	values := map[string]float64{
		"TeamExp":        4,
		"ManagerExp":     7,
		"Length":         -1,
		"Transactions":   180,
		"Entities":       50,
		"PointsNonAjust": 300,
		"PointsAdjust":   280,
	}

	var validationErr *ValidationError
	require.ErrorAs(t, definition.Validate(values), &validationErr)
	require.Len(t, validationErr.Fields, 1)
	require.Equal(t, "Length", validationErr.Fields[0].Field)
	require.Equal(t, "must be a non-negative number", validationErr.Fields[0].Message)
}

func TestValidateRejectsUnknownKeys(t *testing.T) {
	definition, ok := Lookup(Cocomo)
	require.True(t, ok)

	values := map[string]float64{}
	for _, field := range definition.Fields {
		values[field.Name] = 1
	}
	values["AFP"] = 100

	var validationErr *ValidationError
	require.ErrorAs(t, definition.Validate(values), &validationErr)
	require.Len(t, validationErr.Fields, 1)
	require.Equal(t, "AFP", validationErr.Fields[0].Field)
	require.Equal(t, "is not a field of this dataset", validationErr.Fields[0].Message)
}

func TestValidateAggregatesFailures(t *testing.T) {
	definition, ok := Lookup(China)
	require.True(t, ok)

	values := map[string]float64{"AFP": -5, "Mystery": 1}
	var validationErr *ValidationError
	require.ErrorAs(t, definition.Validate(values), &validationErr)
	require.Len(t, validationErr.Fields, 9)
	require.Contains(t, validationErr.Error(), "AFP: must be a non-negative number")
	require.Contains(t, validationErr.Error(), "Mystery: is not a field of this dataset")
}
