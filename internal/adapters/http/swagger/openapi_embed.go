package swagger

import (
	_ "embed"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Document is the OpenAPI 3 description of the HTTP API.
//
//go:embed openapi.yaml
var Document []byte

// documentETag is a strong validator for Document.
var documentETag = `"` + strconv.FormatUint(xxhash.Sum64(Document), 16) + `"`
