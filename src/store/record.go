package store

// FileExt is the extension of every record file in a collection directory.
const FileExt = ".json"

// IDField is the reserved document field holding the storage id.
const IDField = "_id"

// Record is one persisted string-keyed document. All mutation goes through
// the owning Store so that every change is flushed to disk immediately.
type Record struct {
	data map[string]any
}

// ID returns the storage id of the record. It is stable for the record's
// lifetime and derives the file name.
func (r *Record) ID() string {
	id, _ := r.data[IDField].(string)
	return id
}

// Data exposes the underlying document. Callers must not mutate it
// directly; use Store.Set or Store.Update so changes reach storage.
func (r *Record) Data() map[string]any {
	return r.data
}

// Get returns a field value and whether the field is present.
func (r *Record) Get(field string) (any, bool) {
	v, ok := r.data[field]
	return v, ok
}

// Has reports whether the field is present in the document.
func (r *Record) Has(field string) bool {
	_, ok := r.data[field]
	return ok
}

// GetString returns the field as a string, or "" when absent or not a
// string.
func (r *Record) GetString(field string) string {
	s, _ := r.data[field].(string)
	return s
}
