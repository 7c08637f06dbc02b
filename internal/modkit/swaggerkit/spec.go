package swaggerkit

import (
	"encoding/json"
	"net/http"
	"strings"
)

// BasePath is where the versioned API is mounted
const BasePath = "/api/v1"

// errorSchema mirrors the runtime error envelope
var errorSchema = map[string]any{
	"type":        "object",
	"description": "Error envelope",
	"properties": map[string]any{
		"status_code": map[string]any{"type": "integer", "format": "int32"},
		"status":      map[string]any{"type": "string"},
		"code":        map[string]any{"type": "integer", "format": "int32"},
		"error":       map[string]any{"type": "string"},
		"field":       map[string]any{"type": "string"},
		"state":       map[string]any{"type": "string"},
		"request_id":  map[string]any{"type": "string"},
	},
	"required": []any{"status_code", "status"},
}

// defaultErrors are added to every operation that does not declare them
var defaultErrors = []struct {
	status  string
	desc    string
	example map[string]any
}{
	{"400", "Bad Request", map[string]any{
		"status_code": 400, "status": "Bad Request", "code": 8,
		"error": "boatType must be one of [sail power pontoon fishing pwc other]", "field": "boatType",
	}},
	{"500", "Internal Server Error", map[string]any{
		"status_code": 500, "status": "Internal Server Error", "code": 0, "error": "internal error",
	}},
}

// decode parses raw swagger JSON and decorates it
func decode(raw string) (map[string]any, error) {
	var spec map[string]any
	if err := json.Unmarshal([]byte(raw), &spec); err != nil {
		return nil, err
	}
	decorate(spec)
	return spec, nil
}

// decorate lifts the spec to OAS 3.0.3 (the UI cannot render 3.1), points
// servers at BasePath and adds the shared error responses
func decorate(spec map[string]any) {
	if _, ok := spec["swagger"]; ok {
		delete(spec, "swagger")
		spec["openapi"] = "3.0.3"
	}
	if v, _ := spec["openapi"].(string); v == "" || strings.HasPrefix(v, "3.1") {
		spec["openapi"] = "3.0.3"
	}
	if _, ok := spec["servers"]; !ok {
		spec["servers"] = []any{map[string]any{"url": BasePath}}
	}

	schemas := child(child(spec, "components"), "schemas")
	if _, ok := schemas["ErrorResponse"]; !ok {
		schemas["ErrorResponse"] = errorSchema
	}

	paths, _ := spec["paths"].(map[string]any)
	for _, item := range paths {
		ops, ok := item.(map[string]any)
		if !ok {
			continue
		}
		for _, opAny := range ops {
			op, ok := opAny.(map[string]any)
			if !ok {
				continue
			}
			responses := child(op, "responses")
			for _, d := range defaultErrors {
				if _, exists := responses[d.status]; exists {
					continue
				}
				responses[d.status] = map[string]any{
					"description": d.desc,
					"content": map[string]any{
						"application/json": map[string]any{
							"schema":  map[string]any{"$ref": "#/components/schemas/ErrorResponse"},
							"example": d.example,
						},
					},
				}
			}
		}
	}
}

// child returns m[key] as an object, creating it when missing
func child(m map[string]any, key string) map[string]any {
	c, ok := m[key].(map[string]any)
	if !ok {
		c = map[string]any{}
		m[key] = c
	}
	return c
}

func writeSpec(w http.ResponseWriter, raw string) {
	spec, err := decode(raw)
	if err != nil {
		http.Error(w, "spec parse error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_ = json.NewEncoder(w).Encode(spec)
}
