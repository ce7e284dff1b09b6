package syncerr

import (
	"fmt"
	"strings"
)

// SyncError is the structured error record carried across every
// component boundary. It implements the standard error interface so
// callers can use errors.As/errors.Is/errors.Unwrap against it exactly
// like any other Go error, while still exposing the categorized fields
// the classifier and CLI summary need.
type SyncError struct {
	Category     Type
	Message      string
	EntityType   string // "Issue" | "Milestone" | "Project" | "Unknown"
	EntityID     string
	Recoverable  bool
	SuggestedFix string
	Metadata     map[string]any
	Cause        error
}

// New constructs a SyncError, filling Recoverable and SuggestedFix from
// the category's fixed tables unless the caller overrides them with
// With* below.
func New(category Type, message string) *SyncError {
	return &SyncError{
		Category:     category,
		Message:      message,
		EntityType:   "Unknown",
		Recoverable:  IsRecoverable(category),
		SuggestedFix: SuggestedFix(category),
	}
}

// Error implements the error interface.
func (e *SyncError) Error() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s: %s", e.Category, e.Message)

	if e.EntityID != "" {
		fmt.Fprintf(&b, " (entity: %s #%s)", e.EntityType, e.EntityID)
	}

	if e.SuggestedFix != "" {
		fmt.Fprintf(&b, " Fix: %s", e.SuggestedFix)
	}

	return b.String()
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As chains.
func (e *SyncError) Unwrap() error {
	return e.Cause
}

// WithEntity returns a copy of e carrying entity information.
func (e *SyncError) WithEntity(entityType, entityID string) *SyncError {
	cp := *e
	cp.EntityType = entityType
	cp.EntityID = entityID

	return &cp
}

// WithSuggestion returns a copy of e carrying a recovery suggestion.
func (e *SyncError) WithSuggestion(fix string) *SyncError {
	cp := *e
	cp.SuggestedFix = fix

	return &cp
}

// WithMetadata returns a copy of e with the given metadata merged in.
func (e *SyncError) WithMetadata(kv map[string]any) *SyncError {
	cp := *e
	cp.Metadata = make(map[string]any, len(e.Metadata)+len(kv))

	for k, v := range e.Metadata {
		cp.Metadata[k] = v
	}

	for k, v := range kv {
		cp.Metadata[k] = v
	}

	return &cp
}

// FromError wraps an arbitrary Go error into a SyncError, inferring a
// category from the message when one isn't supplied. Mirrors
// SyncError.from_exception's message-pattern matching; order matters,
// most specific pattern first.
func FromError(err error, entityType, entityID string) *SyncError {
	if se, ok := err.(*SyncError); ok {
		return se
	}

	category := inferCategory(err.Error())

	se := &SyncError{
		Category:     category,
		Message:      err.Error(),
		EntityType:   entityType,
		EntityID:     entityID,
		Recoverable:  IsRecoverable(category),
		SuggestedFix: SuggestedFix(category),
		Cause:        err,
	}
	if entityType == "" {
		se.EntityType = "Unknown"
	}

	return se
}

// messagePattern is one (keywords, category) rule; all keywords must
// appear in the lower-cased message for the rule to match.
type messagePattern struct {
	keywords []string
	category Type
}

// messagePatterns mirrors sync_errors.py's ordered list: more specific
// patterns first so e.g. "token expired" wins over the bare "timeout"
// fallback.
var messagePatterns = []messagePattern{
	{[]string{"token", "expired"}, TokenExpired},
	{[]string{"milestone", "not found"}, MilestoneNotFound},
	{[]string{"project", "not found"}, ProjectNotFound},
	{[]string{"timeout"}, Timeout},
	{[]string{"connection"}, NetworkError},
	{[]string{"rate limit"}, APIRateLimit},
	{[]string{"429"}, APIRateLimit},
	{[]string{"auth"}, AuthenticationFailed},
	{[]string{"401"}, AuthenticationFailed},
	{[]string{"permission"}, PermissionDenied},
	{[]string{"403"}, PermissionDenied},
	{[]string{"not found"}, ResourceNotFound},
	{[]string{"404"}, ResourceNotFound},
	{[]string{"validation"}, ValidationError},
	{[]string{"duplicate"}, DuplicateEntity},
	{[]string{"unique"}, DuplicateEntity},
	{[]string{"schema"}, SchemaMismatch},
	{[]string{"conflict"}, Conflict},
}

func inferCategory(message string) Type {
	lower := strings.ToLower(message)

	for _, p := range messagePatterns {
		matched := true

		for _, kw := range p.keywords {
			if !strings.Contains(lower, kw) {
				matched = false
				break
			}
		}

		if matched {
			return p.category
		}
	}

	return UnknownError
}

// Convenience constructors, mirroring sync_errors.py's module-level
// helpers.

// Authentication builds an AuthenticationFailed error.
func Authentication(message string) *SyncError {
	if message == "" {
		message = "Authentication failed"
	}

	return New(AuthenticationFailed, message)
}

// Network builds a NetworkError.
func Network(message string) *SyncError {
	if message == "" {
		message = "Network error occurred"
	}

	return New(NetworkError, message)
}

// RateLimit builds an APIRateLimit error, recording retryAfterSeconds in
// metadata when positive.
func RateLimit(retryAfterSeconds int) *SyncError {
	message := "API rate limit exceeded"
	if retryAfterSeconds > 0 {
		message = fmt.Sprintf("%s (retry after %ds)", message, retryAfterSeconds)
	}

	se := New(APIRateLimit, message)
	if retryAfterSeconds > 0 {
		se.Metadata = map[string]any{"retry_after": retryAfterSeconds}
	}

	return se
}

// ResourceNotFoundErr builds a non-recoverable ResourceNotFound error for
// a specific resource.
func ResourceNotFoundErr(resourceType, resourceID string) *SyncError {
	se := New(ResourceNotFound, fmt.Sprintf("%s not found", resourceType))
	se.EntityType = resourceType
	se.EntityID = resourceID
	se.Recoverable = false

	return se
}

// ConflictErr builds a Conflict error for an entity.
func ConflictErr(entityType, entityID, message string) *SyncError {
	if message == "" {
		message = "Conflict detected"
	}

	se := New(Conflict, message)
	se.EntityType = entityType
	se.EntityID = entityID
	se.SuggestedFix = "Resolve the conflict manually or use --interactive mode"

	return se
}
