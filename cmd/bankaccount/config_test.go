package main

import (
	"errors"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	testCases := []struct {
		testName string
		config   Config
		errors   int
	}{
		{
			testName: "Should accept defaults",
			config:   Config{endpoint: "localhost:8090"},
		},
		{
			testName: "Should accept gateway urls",
			config: Config{
				endpoint:       "localhost:8090",
				payoutEndpoint: "http://localhost:8081",
				webhookURL:     "https://hooks.example.com/ledger",
			},
		},
		{
			testName: "Should report every malformed setting",
			config: Config{
				payoutEndpoint: "localhost:8081",
				webhookURL:     "http://",
			},
			errors: 3,
		},
		{
			testName: "Should keep errors found while reading the environment",
			config: Config{
				endpoint: "localhost:8090",
				invalid:  []error{errors.New("wallet opening balance: invalid syntax")},
			},
			errors: 1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.testName, func(t *testing.T) {
			err := tc.config.Validate()
			if tc.errors == 0 {
				assert.NoError(t, err)
				return
			}

			var merr *multierror.Error
			require.ErrorAs(t, err, &merr)
			assert.Len(t, merr.Errors, tc.errors)
		})
	}
}
