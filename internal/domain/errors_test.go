package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoImageryError_Message(t *testing.T) {
	assert.EqualError(t, &NoImageryError{Year: 2017, Base: true}, "No suitable imagery found for base year 2017")
	assert.EqualError(t, &NoImageryError{Year: 2026}, "No suitable imagery found for current year 2026")
}

func TestIsClientError(t *testing.T) {
	wrappedNoImagery := fmt.Errorf("compute map: %w", &NoImageryError{Year: 2020, Base: true})
	wrappedUpstream := fmt.Errorf("%w: status 503", ErrUpstream)

	assert.True(t, IsClientError(wrappedNoImagery))
	assert.True(t, IsClientError(&ValidationError{Field: "year", Message: "bad"}))
	assert.False(t, IsClientError(wrappedUpstream))
	assert.False(t, IsClientError(errors.New("boom")))
	assert.True(t, errors.Is(wrappedUpstream, ErrUpstream))
}
