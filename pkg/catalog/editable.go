package catalog

import "time"

// Normalize maps an empty string to absent. It is the single normalization
// point for editable values: the editor applies it to both sides of a
// comparison and to every value it writes.
func Normalize(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	return &v
}

// Normalized returns a copy with every field passed through Normalize.
func (e Editable) Normalized() Editable {
	return Editable{
		Owner:              Normalize(e.Owner),
		SubOwner:           Normalize(e.SubOwner),
		Publish:            Normalize(e.Publish),
		Scope:              Normalize(e.Scope),
		ApplicationProject: Normalize(e.ApplicationProject),
		Comment:            Normalize(e.Comment),
	}
}

// Equal compares two editable sets under Normalize.
func (e Editable) Equal(other Editable) bool {
	a, b := e.Normalized(), other.Normalized()
	return equalPtr(a.Owner, b.Owner) &&
		equalPtr(a.SubOwner, b.SubOwner) &&
		equalPtr(a.Publish, b.Publish) &&
		equalPtr(a.Scope, b.Scope) &&
		equalPtr(a.ApplicationProject, b.ApplicationProject) &&
		equalPtr(a.Comment, b.Comment)
}

// Values returns the fields in EditableColumns order.
func (e Editable) Values() []*string {
	return []*string{e.Owner, e.SubOwner, e.Publish, e.Scope, e.ApplicationProject, e.Comment}
}

// ReadOnlyEqual reports whether every non-editable field matches, identity included.
func (e Entry) ReadOnlyEqual(other Entry) bool {
	return e.TableName == other.TableName &&
		e.Location == other.Location &&
		equalPtr(e.Account, other.Account) &&
		equalPtr(e.Classification, other.Classification) &&
		equalPtr(e.ColumnCount, other.ColumnCount) &&
		equalPtr(e.RecordCount, other.RecordCount) &&
		equalTimePtr(e.CreationDate, other.CreationDate) &&
		equalTimePtr(e.UpdateDate, other.UpdateDate) &&
		equalPtr(e.TableComment, other.TableComment) &&
		equalPtr(e.ColumnComment, other.ColumnComment) &&
		equalPtr(e.ColumnCommentFlag, other.ColumnCommentFlag)
}

func equalTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
