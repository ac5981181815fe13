package consumer

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestHttpErrorUnwrapping tests the Unwrap method of the HttpError type
func TestHttpErrorUnwrapping(t *testing.T) {
	testCases := []struct {
		name        string
		statusCode  int
		body        string
		expectedErr error
	}{
		{"Unauthorized", 401, "Login required", os.ErrPermission},
		{"Permission Denied", 403, "Permission denied", os.ErrPermission},
		{"Not Found", 404, "Not found", fs.ErrNotExist},
		{"Server Error", 500, "Internal server error", nil},
		{"Custom Error", 400, "Bad request", nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := &HttpError{Code: tc.statusCode, Body: []byte(tc.body)}

			assert.Equal(t, "HTTP Error "+strconv.Itoa(tc.statusCode)+": "+tc.body, err.Error())
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
			} else {
				assert.Nil(t, err.Unwrap())
			}
			assert.Equal(t, tc.statusCode == 404, IsNotFound(err))
		})
	}
}

func TestHttpErrorMessage(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"error":"not found"}`, "not found"},
		{`{"message":"slow down"}`, "slow down"},
		{`{"error":{"code":7},"message":"nested"}`, "nested"},
		{`{"error":42}`, ""},
		{`<html>bad gateway</html>`, ""},
		{``, ""},
	}
	for _, tt := range tests {
		err := &HttpError{Code: 500, Body: []byte(tt.body), Response: &Response{StatusCode: 500, Body: []byte(tt.body)}}
		assert.Equal(t, tt.want, err.Message(), "body %q", tt.body)
	}
	assert.Empty(t, (&HttpError{Code: 500}).Message())
}

func TestHttpErrorEmptyBody(t *testing.T) {
	err := &HttpError{Code: 504}
	assert.Equal(t, "HTTP Error 504: Gateway Timeout", err.Error())
}

func TestErrorKinds(t *testing.T) {
	cfgErr := error(&ConfigurationError{Field: "endpoint"})
	decErr := error(&DecodeError{Body: []byte("{"), Err: ErrNotJSON})
	httpErr := error(&HttpError{Code: 404})
	trErr := error(&TransportError{Method: "GET", URL: "http://x", Err: errors.New("dial")})

	assert.True(t, IsConfiguration(cfgErr))
	assert.Equal(t, "[consumer] endpoint is not set", cfgErr.Error())
	assert.False(t, IsConfiguration(decErr))

	assert.True(t, IsDecode(decErr))
	assert.ErrorIs(t, decErr, ErrNotJSON)
	assert.False(t, IsDecode(httpErr))
	assert.False(t, IsDecode(trErr))

	_, ok := IsHttpError(httpErr)
	assert.True(t, ok)
	_, ok = IsHttpError(decErr)
	assert.False(t, ok)
	_, ok = IsHttpError(trErr)
	assert.False(t, ok)

	assert.Equal(t, "[consumer] GET http://x failed: dial", trErr.Error())
}
