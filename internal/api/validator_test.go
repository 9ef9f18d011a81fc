package api

import (
	"errors"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatorsBuiltConcurrently(t *testing.T) {
	const n = 8
	msgs := make([]map[string]string, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v := newAppValidator()
			err := v.Validate(&drillRequest{Module: "poetry"})

			var vErrs validator.ValidationErrors
			if !errors.As(err, &vErrs) {
				return
			}
			msgs[i] = make(map[string]string, len(vErrs))
			for _, fe := range vErrs {
				msgs[i][fe.Field()] = v.translate(fe)
			}
		}(i)
	}
	wg.Wait()

	for i, m := range msgs {
		require.NotNil(t, m, "validator %d", i)
		assert.Equal(t, "prompt is a required field", m["prompt"])
		assert.Contains(t, m["module"], "module must be one of")
	}
}
