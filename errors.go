package avroskema

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/reoring/avroskema/i18n"
)

// Error codes (exported consts for IDE completion and type safety by convention)
const (
	CodeInvalidNamespace    = "invalid_namespace"
	CodeInvalidName         = "invalid_name"
	CodeConflictingOverride = "conflicting_override"
	CodeRegistryFrozen      = "registry_frozen"
	CodeUnknownType         = "unknown_type"
	CodeInvalidDescriptor   = "invalid_descriptor"
	// Structural failures found while assembling a document
	CodeNameCollision        = "name_collision"
	CodeUnsupportedRecursion = "unsupported_recursion"
	CodeInvalidUnionNesting  = "invalid_union_nesting"
	CodeDuplicateUnionBranch = "duplicate_union_branch"
	CodeInvalidFixedSize     = "invalid_fixed_size"
	CodeDuplicateField       = "duplicate_field"
	CodeInvalidEnum          = "invalid_enum"
)

type coder interface{ Code() string }

// ErrorCode returns the code of the first coded error in err's chain, or ""
// when there is none.
func ErrorCode(err error) string {
	var c coder
	if errors.As(err, &c) {
		return c.Code()
	}
	return ""
}

// InvalidNamespaceError reports an override namespace that is empty or has a
// segment outside the identifier grammar. Reported at registration time.
type InvalidNamespaceError struct {
	ID        TypeID
	Namespace string
	Segment   string // offending segment; empty when the namespace is empty
}

func (e *InvalidNamespaceError) Error() string {
	return i18n.T(CodeInvalidNamespace, map[string]string{
		"id": e.ID.String(), "namespace": strconv.Quote(e.Namespace), "segment": strconv.Quote(e.Segment),
	})
}
func (e *InvalidNamespaceError) Code() string { return CodeInvalidNamespace }

// InvalidNameError reports a local, field or override name outside the
// identifier grammar, or a resolved namespace that is not a valid dotted path.
type InvalidNameError struct {
	ID   TypeID
	Name string
}

func (e *InvalidNameError) Error() string {
	return i18n.T(CodeInvalidName, map[string]string{"id": e.ID.String(), "name": strconv.Quote(e.Name)})
}
func (e *InvalidNameError) Code() string { return CodeInvalidName }

// ConflictingOverrideError reports a second, different registration for the
// same TypeID.
type ConflictingOverrideError struct {
	ID        TypeID
	Existing  Override
	Requested Override
}

func (e *ConflictingOverrideError) Error() string {
	return i18n.T(CodeConflictingOverride, map[string]string{
		"id": e.ID.String(), "existing": e.Existing.String(), "requested": e.Requested.String(),
	})
}
func (e *ConflictingOverrideError) Code() string { return CodeConflictingOverride }

type registryFrozenError struct{}

func (registryFrozenError) Error() string { return i18n.T(CodeRegistryFrozen, nil) }
func (registryFrozenError) Code() string  { return CodeRegistryFrozen }

// ErrRegistryFrozen is returned by Register after the registry was frozen.
var ErrRegistryFrozen error = registryFrozenError{}

// UnknownTypeError reports a TypeID the provider could not describe.
type UnknownTypeError struct {
	ID  TypeID
	Err error
}

func (e *UnknownTypeError) Error() string {
	msg := i18n.T(CodeUnknownType, map[string]string{"id": e.ID.String()})
	if e.Err != nil && !errors.Is(e.Err, ErrNotDescribed) {
		msg += ": " + e.Err.Error()
	}
	return msg
}
func (e *UnknownTypeError) Code() string  { return CodeUnknownType }
func (e *UnknownTypeError) Unwrap() error { return e.Err }

// InvalidDescriptorError reports a descriptor the engine cannot interpret
// (unknown kind or primitive, missing element type, ...).
type InvalidDescriptorError struct {
	ID     TypeID
	Reason string
}

func (e *InvalidDescriptorError) Error() string {
	return i18n.T(CodeInvalidDescriptor, map[string]string{"id": e.ID.String(), "reason": e.Reason})
}
func (e *InvalidDescriptorError) Code() string { return CodeInvalidDescriptor }

// NameCollisionError reports two distinct TypeIDs resolving to the same
// QualifiedName within one document.
type NameCollisionError struct {
	Name   QualifiedName
	First  TypeID
	Second TypeID
}

func (e *NameCollisionError) Error() string {
	return i18n.T(CodeNameCollision, map[string]string{
		"name": e.Name.FullName(), "first": e.First.String(), "second": e.Second.String(),
	})
}
func (e *NameCollisionError) Code() string { return CodeNameCollision }

// UnsupportedRecursionError reports an array or map that reaches itself
// without an intervening named type. Path lists the cycle, starting and ending
// at ID.
type UnsupportedRecursionError struct {
	ID   TypeID
	Path []TypeID
}

func (e *UnsupportedRecursionError) Error() string {
	return i18n.T(CodeUnsupportedRecursion, map[string]string{"id": e.ID.String(), "path": renderPath(e.Path)})
}
func (e *UnsupportedRecursionError) Code() string { return CodeUnsupportedRecursion }

// InvalidUnionNestingError reports a union branch that is itself a union.
type InvalidUnionNestingError struct {
	ID     TypeID
	Branch TypeID
}

func (e *InvalidUnionNestingError) Error() string {
	return i18n.T(CodeInvalidUnionNesting, map[string]string{"id": e.ID.String(), "branch": e.Branch.String()})
}
func (e *InvalidUnionNestingError) Code() string { return CodeInvalidUnionNesting }

// DuplicateUnionBranchError reports two union branches of the same unnamed
// type or the same full name.
type DuplicateUnionBranchError struct {
	ID     TypeID
	Branch string
}

func (e *DuplicateUnionBranchError) Error() string {
	return i18n.T(CodeDuplicateUnionBranch, map[string]string{"id": e.ID.String(), "branch": e.Branch})
}
func (e *DuplicateUnionBranchError) Code() string { return CodeDuplicateUnionBranch }

// InvalidFixedSizeError reports a fixed type whose size is not positive.
type InvalidFixedSizeError struct {
	ID   TypeID
	Size int
}

func (e *InvalidFixedSizeError) Error() string {
	return i18n.T(CodeInvalidFixedSize, map[string]string{"id": e.ID.String(), "size": strconv.Itoa(e.Size)})
}
func (e *InvalidFixedSizeError) Code() string { return CodeInvalidFixedSize }

// DuplicateFieldError reports a record declaring the same field name twice.
type DuplicateFieldError struct {
	ID    TypeID
	Field string
}

func (e *DuplicateFieldError) Error() string {
	return i18n.T(CodeDuplicateField, map[string]string{"id": e.ID.String(), "field": strconv.Quote(e.Field)})
}
func (e *DuplicateFieldError) Code() string { return CodeDuplicateField }

// InvalidEnumError reports an invalid or duplicate symbol, or a default
// symbol missing from the symbol list.
type InvalidEnumError struct {
	ID     TypeID
	Reason string
}

func (e *InvalidEnumError) Error() string {
	return i18n.T(CodeInvalidEnum, map[string]string{"id": e.ID.String(), "reason": e.Reason})
}
func (e *InvalidEnumError) Code() string { return CodeInvalidEnum }

// DeriveError wraps any failure of a derivation pass with the root being
// derived and the chain of TypeIDs that led to the failure.
type DeriveError struct {
	Root TypeID
	Path []TypeID
	Err  error
}

func (e *DeriveError) Error() string {
	if len(e.Path) == 0 {
		return fmt.Sprintf("avroskema: derive %s: %v", e.Root, e.Err)
	}
	return fmt.Sprintf("avroskema: derive %s at %s: %v", e.Root, renderPath(e.Path), e.Err)
}
func (e *DeriveError) Unwrap() error { return e.Err }

func renderPath(path []TypeID) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = p.String()
	}
	return strings.Join(parts, " -> ")
}
