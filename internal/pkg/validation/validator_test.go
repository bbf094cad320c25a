package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pointQuery struct {
	Lat    float64 `query:"lat" validate:"latitude"`
	Lon    float64 `query:"lon" validate:"longitude"`
	Format string  `query:"format" validate:"omitempty,oneof=wepp ntt"`
	HUC12  string  `json:"huc12" validate:"required,len=12,numeric"`
}

func TestValidateStruct_OK(t *testing.T) {
	err := ValidateStruct(&pointQuery{Lat: 42, Lon: -93.5, Format: "ntt", HUC12: "070801050306"})
	assert.NoError(t, err)
}

func TestValidateStruct_Fields(t *testing.T) {
	err := ValidateStruct(&pointQuery{Lat: 91, Lon: -93.5, Format: "csv"})
	require.Error(t, err)

	var verr *Error
	require.True(t, errors.As(err, &verr))

	fields := map[string]string{}
	for _, f := range verr.Fields {
		fields[f.Field] = f.Tag
	}
	assert.Equal(t, "latitude", fields["lat"])
	assert.Equal(t, "oneof", fields["format"])
	assert.Equal(t, "required", fields["huc12"])
	assert.NotContains(t, fields, "lon")

	assert.Contains(t, err.Error(), "format must be one of [wepp ntt]")
	assert.Contains(t, err.Error(), "huc12 is required")
}

func TestGetValidator_Singleton(t *testing.T) {
	assert.Same(t, GetValidator(), GetValidator())
}
