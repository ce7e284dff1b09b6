// Package syncerr implements the Result/Error Kernel: the SyncError
// taxonomy and record type shared by every other component, plus a
// generic Result type returned by the Remote Backend Port.
//
// Grounded on original_source/roadmap/core/services/sync/sync_errors.py
// and error_classification.py.
package syncerr

// Type is the complete SyncErrorType taxonomy. Every category named in
// the spec appears here verbatim; none are added or removed.
type Type string

const (
	AuthenticationFailed Type = "authentication_failed"
	TokenExpired         Type = "token_expired"
	PermissionDenied     Type = "permission_denied"

	NetworkError       Type = "network_error"
	Timeout            Type = "timeout"
	ServiceUnavailable Type = "service_unavailable"
	APIRateLimit       Type = "api_rate_limit"

	InvalidData      Type = "invalid_data"
	SchemaMismatch    Type = "schema_mismatch"
	DuplicateEntity   Type = "duplicate_entity"
	ValidationError   Type = "validation_error"

	ResourceNotFound  Type = "resource_not_found"
	ResourceDeleted   Type = "resource_deleted"
	MilestoneNotFound Type = "milestone_not_found"
	ProjectNotFound   Type = "project_not_found"

	Conflict      Type = "conflict"
	MergeConflict Type = "merge_conflict"

	DatabaseError     Type = "database_error"
	FileSystemError   Type = "file_system_error"
	ConfigurationError Type = "configuration_error"

	CircuitBreakerOpen Type = "circuit_breaker_open"
	RetryExhausted     Type = "retry_exhausted"

	UnknownError Type = "unknown_error"
)

// nonRecoverable is the set of categories considered unrecoverable,
// following spec.md §4.9 point 2's stated set verbatim. This is a union
// of the two divergent Python sources (error_classification.py and
// sync_errors.py) — see DESIGN.md for the reconciliation note.
var nonRecoverable = map[Type]bool{
	AuthenticationFailed: true,
	TokenExpired:         true,
	PermissionDenied:     true,
	SchemaMismatch:       true,
	ConfigurationError:   true,
}

// IsRecoverable reports whether errors of this category can be retried
// or worked around, as opposed to requiring operator intervention.
func IsRecoverable(t Type) bool {
	return !nonRecoverable[t]
}

// transientTypes are the categories the Sync Executor's retry policy
// applies to (spec.md §4.8).
var transientTypes = map[Type]bool{
	NetworkError:       true,
	Timeout:            true,
	ServiceUnavailable: true,
	APIRateLimit:       true,
}

// IsTransient reports whether this category is eligible for the
// executor's retry-with-backoff policy.
func IsTransient(t Type) bool {
	return transientTypes[t]
}

// suggestedFixes is the fixed per-category remediation string table.
var suggestedFixes = map[Type]string{
	AuthenticationFailed: "Check your credentials and token",
	TokenExpired:         "Refresh or regenerate your access token",
	PermissionDenied:     "Verify you have required permissions",
	APIRateLimit:         "Wait for rate limit to reset or reduce request frequency",
	Timeout:              "Check network connection and try again",
	NetworkError:         "Check network connection and try again",
	ResourceNotFound:     "Verify the resource exists and ID is correct",
	MilestoneNotFound:    "Run 'ghsync sync' again to pull missing milestones, or manually create the milestone locally",
	ProjectNotFound:      "Run 'ghsync sync' again to pull missing projects, or manually create the project locally",
	DuplicateEntity:      "Use duplicate detection to resolve conflicts",
	CircuitBreakerOpen:   "Wait for circuit breaker to reset, then retry",
	RetryExhausted:       "Check error logs and resolve underlying issue",
	ConfigurationError:   "Review and fix configuration settings",
	SchemaMismatch:       "Re-run migrations or check the file's frontmatter for stale fields",
	ServiceUnavailable:   "The remote is temporarily unavailable; retry later",
}

// SuggestedFix returns the fixed remediation string for a category, or
// the empty string if none is defined.
func SuggestedFix(t Type) string {
	return suggestedFixes[t]
}

// Bucket groups related categories for the classifier's summary_dict.
type Bucket string

const (
	BucketDependency Bucket = "dependency_errors"
	BucketAPI        Bucket = "api_errors"
	BucketAuth       Bucket = "auth_errors"
	BucketData       Bucket = "data_errors"
	BucketResource   Bucket = "resource_errors"
	BucketFileSystem Bucket = "file_system_errors"
	BucketUnknown    Bucket = "unknown_errors"
)

var bucketOf = map[Type]Bucket{
	MilestoneNotFound: BucketDependency,
	ProjectNotFound:   BucketDependency,

	NetworkError:       BucketAPI,
	Timeout:            BucketAPI,
	ServiceUnavailable: BucketAPI,
	APIRateLimit:       BucketAPI,

	AuthenticationFailed: BucketAuth,
	TokenExpired:         BucketAuth,
	PermissionDenied:     BucketAuth,

	InvalidData:     BucketData,
	SchemaMismatch:  BucketData,
	DuplicateEntity: BucketData,
	ValidationError: BucketData,
	Conflict:        BucketData,
	MergeConflict:   BucketData,

	ResourceNotFound: BucketResource,
	ResourceDeleted:  BucketResource,

	FileSystemError:    BucketFileSystem,
	DatabaseError:      BucketFileSystem,
	ConfigurationError: BucketFileSystem,

	CircuitBreakerOpen: BucketUnknown,
	RetryExhausted:     BucketUnknown,
	UnknownError:       BucketUnknown,
}

// BucketFor returns the higher-level remediation bucket a category
// rolls up into.
func BucketFor(t Type) Bucket {
	if b, ok := bucketOf[t]; ok {
		return b
	}

	return BucketUnknown
}

// bucketRecommendations is the top-level remediation string per bucket.
var bucketRecommendations = map[Bucket]string{
	BucketDependency: "Sync again to pull missing dependencies, or create them manually.",
	BucketAPI:        "Check network connectivity and remote service status; transient errors usually clear on retry.",
	BucketAuth:       "Verify the configured token has not expired and carries the required scopes.",
	BucketData:       "Inspect the affected files' frontmatter and the remote payloads for schema drift.",
	BucketResource:   "Confirm the referenced entities still exist locally and remotely.",
	BucketFileSystem: "Check disk space, file permissions, and the store's configuration.",
	BucketUnknown:    "Inspect the error samples for a pattern; file an issue if the category is unclear.",
}

// Recommendation returns the remediation string for a bucket.
func Recommendation(b Bucket) string {
	return bucketRecommendations[b]
}
