//go:build swag

package swaggerkit

import (
	"net/http"

	docs "harborlist/internal/services/api/docs"
)

var docReader = func() string { return docs.SwaggerInfo.ReadDoc() }

func serveDocJSON() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) { writeSpec(w, docReader()) }
}
