package scanner

import (
	"fmt"
	"strings"
)

// Confidence is the ordered trust level attached to a piece of evidence.
// The ordering is total and drives both filtering and dedup conflict
// resolution.
type Confidence int

const (
	ConfidenceLow Confidence = iota
	ConfidenceMedium
	ConfidenceHigh
)

func (c Confidence) String() string {
	switch c {
	case ConfidenceHigh:
		return "HIGH"
	case ConfidenceMedium:
		return "MEDIUM"
	case ConfidenceLow:
		return "LOW"
	default:
		return fmt.Sprintf("confidence(%d)", int(c))
	}
}

// ParseConfidence parses a case-insensitive confidence name.
func ParseConfidence(s string) (Confidence, error) {
	switch strings.ToUpper(s) {
	case "HIGH":
		return ConfidenceHigh, nil
	case "MEDIUM":
		return ConfidenceMedium, nil
	case "LOW":
		return ConfidenceLow, nil
	default:
		return 0, fmt.Errorf("unknown confidence level %q", s)
	}
}

// ReferenceKind classifies the syntactic pattern that produced a piece of
// evidence. The set is closed: every switch over it must be exhaustive so
// that adding a kind without updating consumers fails loudly.
type ReferenceKind int

const (
	KindSchemaColumn ReferenceKind = iota
	KindSchemaReference
	KindMigrationAddReference
	KindMigrationAddColumn
	KindMigrationAddForeignKey
	KindMigrationCreateTableRef
	KindMigrationRemove
	KindModelBelongsTo
	KindModelHasManyThrough
	KindModelIndirectAssociation
	KindModelHasManyReverse
	KindModelHasOneReverse
	KindRawSQLColumnRef
	KindRawSQLTableRef
	KindRawSQLJoin
	KindRawSQLQueryMethod
	KindRawSQLInterpolation
	KindConfigTableRef
	KindContextualVariable
	KindContextualComment
	KindPolymorphicSchema
	KindPolymorphicModel
)

func (k ReferenceKind) String() string {
	switch k {
	case KindSchemaColumn:
		return "schema_column"
	case KindSchemaReference:
		return "schema_reference"
	case KindMigrationAddReference:
		return "migration_add_reference"
	case KindMigrationAddColumn:
		return "migration_add_column"
	case KindMigrationAddForeignKey:
		return "migration_add_foreign_key"
	case KindMigrationCreateTableRef:
		return "migration_create_table_ref"
	case KindMigrationRemove:
		return "migration_remove"
	case KindModelBelongsTo:
		return "model_belongs_to"
	case KindModelHasManyThrough:
		return "model_has_many_through"
	case KindModelIndirectAssociation:
		return "model_indirect_association"
	case KindModelHasManyReverse:
		return "model_has_many_reverse"
	case KindModelHasOneReverse:
		return "model_has_one_reverse"
	case KindRawSQLColumnRef:
		return "raw_sql_column_ref"
	case KindRawSQLTableRef:
		return "raw_sql_table_ref"
	case KindRawSQLJoin:
		return "raw_sql_join"
	case KindRawSQLQueryMethod:
		return "raw_sql_query_method"
	case KindRawSQLInterpolation:
		return "raw_sql_interpolation"
	case KindConfigTableRef:
		return "config_table_ref"
	case KindContextualVariable:
		return "contextual_variable"
	case KindContextualComment:
		return "contextual_comment"
	case KindPolymorphicSchema:
		return "polymorphic_schema"
	case KindPolymorphicModel:
		return "polymorphic_model"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Reverse reports whether the kind describes a reverse-direction association:
// the foreign key lives on the target table pointing back at another table.
// Reverse evidence supports downstream reasoning but must never surface as a
// direct dependency claim.
func (k ReferenceKind) Reverse() bool {
	switch k {
	case KindModelHasManyReverse, KindModelHasOneReverse:
		return true
	case KindSchemaColumn, KindSchemaReference,
		KindMigrationAddReference, KindMigrationAddColumn,
		KindMigrationAddForeignKey, KindMigrationCreateTableRef,
		KindMigrationRemove,
		KindModelBelongsTo, KindModelHasManyThrough, KindModelIndirectAssociation,
		KindRawSQLColumnRef, KindRawSQLTableRef, KindRawSQLJoin,
		KindRawSQLQueryMethod, KindRawSQLInterpolation,
		KindConfigTableRef,
		KindContextualVariable, KindContextualComment,
		KindPolymorphicSchema, KindPolymorphicModel:
		return false
	default:
		return false
	}
}

// MarshalJSON renders the confidence by name for the HTTP front end.
func (c Confidence) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.String() + `"`), nil
}

// MarshalJSON renders the kind by name for the HTTP front end.
func (k ReferenceKind) MarshalJSON() ([]byte, error) {
	return []byte(`"` + k.String() + `"`), nil
}

// Evidence is one detected reference from source text to the target table.
type Evidence struct {
	FilePath   string        `json:"file_path"`
	LineNumber int           `json:"line_number"`
	TableName  string        `json:"table_name"`
	ColumnName string        `json:"column_name"`
	Kind       ReferenceKind `json:"reference_type"`
	Snippet    string        `json:"code_snippet"`
	Confidence Confidence    `json:"confidence"`

	// SchemaVerified is true until validation disproves the column.
	SchemaVerified bool `json:"schema_verified"`
	// ColumnDatatype is attached when the column is confirmed in the schema.
	ColumnDatatype string `json:"column_datatype,omitempty"`
}

// Key identifies evidence for deduplication. It is deliberately not globally
// unique across kinds: two scanners may produce distinct claims on one line.
type Key struct {
	FilePath   string
	LineNumber int
	Kind       ReferenceKind
}

// Key returns the evidence's dedup identity.
func (e Evidence) Key() Key {
	return Key{FilePath: e.FilePath, LineNumber: e.LineNumber, Kind: e.Kind}
}

// snippetMax caps stored source snippets; they exist for human review only.
const snippetMax = 200

// snippet trims and caps a source line for storage on an Evidence.
func snippet(line string) string {
	s := strings.TrimSpace(line)
	if len(s) > snippetMax {
		return s[:snippetMax]
	}
	return s
}
