// Package json is the codec used for provider payloads and audit records.
package json

import jsoniter "github.com/json-iterator/go"

var (
	// JSON is the shared jsoniter configuration.
	JSON = jsoniter.ConfigCompatibleWithStandardLibrary

	Marshal       = JSON.Marshal
	MarshalIndent = JSON.MarshalIndent
	Unmarshal     = JSON.Unmarshal
	NewDecoder    = JSON.NewDecoder
	NewEncoder    = JSON.NewEncoder
)
