package schema

import (
	"fmt"
	"strings"
)

// Validation error codes (E200-E299)
const (
	ErrDuplicateEntity    = "E201" // entity declared twice
	ErrMissingTable       = "E202" // entity has no root table
	ErrMissingIdentifier  = "E203" // entity has no identifier
	ErrDuplicateAttribute = "E204" // attribute declared twice
	ErrUnknownTarget      = "E205" // association targets an unknown entity
	ErrForeignTable       = "E206" // column owned by a table the entity does not map
	ErrKeyMismatch        = "E207" // fk/key column count differs from target identifier
	ErrEmbeddableShape    = "E208" // embedded columns do not match components
	ErrNestedEmbeddable   = "E209" // embeddable nesting beyond one level
	ErrMisplacedID        = "E210" // identifier declared as a regular attribute
	ErrUnreadableType     = "E211" // column type has no Go value conversion
)

// ValidationError is a single mapping problem.
type ValidationError struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidationErrors collects every problem found in one pass.
type ValidationErrors []*ValidationError

// Error implements the error interface.
func (errs ValidationErrors) Error() string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks every entity mapping in md. Returns all errors found
// (does not fail-fast), or nil.
func Validate(md *Metadata) ValidationErrors {
	var errs ValidationErrors
	for _, e := range md.Entities() {
		errs = append(errs, validateEntity(md, e)...)
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func validateEntity(md *Metadata, e *EntityType) ValidationErrors {
	var errs ValidationErrors
	add := func(code, field, format string, args ...any) {
		errs = append(errs, &ValidationError{Code: code, Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if e.RootTable == nil {
		add(ErrMissingTable, e.Name, "root table is required")
		return errs
	}
	if e.Identifier == nil || len(e.Identifier.Columns) == 0 {
		add(ErrMissingIdentifier, e.Name, "identifier is required")
		return errs
	}

	owned := map[*Table]bool{e.RootTable: true}
	for _, st := range e.SecondaryTables {
		owned[st.Table] = true
		if len(st.KeyColumns) != len(e.Identifier.Columns) {
			add(ErrKeyMismatch, e.Name+"."+st.Table.Name,
				"secondary table has %d key columns, identifier has %d", len(st.KeyColumns), len(e.Identifier.Columns))
		}
	}
	checkColumns := func(field string, cols []*Column) {
		for _, c := range cols {
			if !owned[c.Table] {
				add(ErrForeignTable, field, "column %s is not in a table mapped by %s", c, e.Name)
			}
			if !c.Type.Readable() {
				add(ErrUnreadableType, field, "column %s has type %s, which cannot be read", c, c.Type)
			}
		}
	}
	checkColumns(e.Name+"."+e.Identifier.Name, e.Identifier.Columns)

	seen := map[string]bool{e.Identifier.Name: true}
	for _, attr := range e.Attributes {
		field := e.Name + "." + attr.AttributeName()
		if seen[attr.AttributeName()] {
			add(ErrDuplicateAttribute, field, "attribute declared twice")
			continue
		}
		seen[attr.AttributeName()] = true

		switch a := attr.(type) {
		case *BasicAttribute:
			checkColumns(field, []*Column{a.Column})
		case *ToOneAttribute:
			checkColumns(field, a.Columns)
			target := md.ResolveEntityReference(a.Target)
			if target == nil {
				add(ErrUnknownTarget, field, "unknown target entity %q", a.Target)
				continue
			}
			if target.Identifier != nil && len(target.Identifier.Columns) != len(a.Columns) {
				add(ErrKeyMismatch, field, "%d foreign key columns for a %d column identifier",
					len(a.Columns), len(target.Identifier.Columns))
			}
		case *EmbeddedAttribute:
			checkColumns(field, a.Columns)
			if a.Embeddable == nil || len(a.Embeddable.Components) != len(a.Columns) {
				add(ErrEmbeddableShape, field, "embedded columns do not match embeddable components")
			}
		case *IdentifierAttribute:
			add(ErrMisplacedID, field, "identifier may only be declared once, as the entity identifier")
		}
	}
	return errs
}
