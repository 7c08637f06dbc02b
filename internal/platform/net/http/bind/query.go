package bind

import (
	"net/http"
	"sync"

	perr "harborlist/internal/platform/errors"

	"github.com/go-playground/form/v4"
)

var (
	qOnce sync.Once
	qDec  *form.Decoder
)

func queryDecoder() *form.Decoder {
	qOnce.Do(func() {
		qDec = form.NewDecoder()
		// share the json names used in validation messages
		qDec.SetTagName("json")
	})
	return qDec
}

// ParseQuery decodes the URL query into T and validates it like ParseJSON
func ParseQuery[T any](r *http.Request) (T, error) {
	var zero, dst T
	if err := queryDecoder().Decode(&dst, r.URL.Query()); err != nil {
		if de, ok := err.(form.DecodeErrors); ok {
			for field, fe := range de {
				return zero, perr.Validationf(field, "%v", fe)
			}
		}
		return zero, perr.Validationf("", "invalid query: %v", err)
	}

	if err := Validate(dst); err != nil {
		return zero, err
	}
	return dst, nil
}
