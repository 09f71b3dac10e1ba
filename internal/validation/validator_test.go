package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Count int    `validate:"gte=1,lte=10"`
	Name  string `validate:"required"`
}

func TestValidateStruct_Valid(t *testing.T) {
	assert.Nil(t, ValidateStruct(&sample{Count: 5, Name: "ok"}))
}

func TestValidateStruct_CollectsAllFields(t *testing.T) {
	verr := ValidateStruct(&sample{Count: 11})
	require.NotNil(t, verr)

	fields := verr.Fields()
	assert.True(t, fields["Count"])
	assert.True(t, fields["Name"])
	assert.Len(t, verr.Errors(), 2)
	assert.Equal(t, "Count must be less than or equal to 10; Name is required", verr.Error())
}

func TestValidateStruct_ParamMessage(t *testing.T) {
	verr := ValidateStruct(&sample{Count: 0, Name: "x"})
	require.NotNil(t, verr)
	require.Len(t, verr.Errors(), 1)

	fe := verr.Errors()[0]
	assert.Equal(t, "Count", fe.Field)
	assert.Equal(t, "gte", fe.Tag)
	assert.Equal(t, "1", fe.Param)
	assert.Equal(t, "Count must be greater than or equal to 1", fe.Message)
}

func TestGet_ReturnsSingleton(t *testing.T) {
	assert.Same(t, Get(), Get())
}
