// Package api holds the OpenAPI document for the HTTP status endpoints.
package api

import _ "embed"

//go:generate go tool oapi-codegen -config oapi-codegen.yaml openapi.yaml

// OpenAPISpec is served at /openapi.yaml.
//
//go:embed openapi.yaml
var OpenAPISpec []byte
