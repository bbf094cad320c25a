// Package api holds the OpenAPI description of the HTTP service.
package api

import _ "embed"

// Spec is the OpenAPI 3 document served at /docs/openapi.yaml.
//
//go:embed openapi.yaml
var Spec []byte
