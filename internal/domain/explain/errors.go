package explain

import "errors"

// ErrAuditWrite is returned when the audit record could not be appended.
// The explanation and record are still returned alongside it.
var ErrAuditWrite = errors.New("audit write failed")
