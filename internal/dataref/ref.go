package dataref

// DatasetLookup finds where a dataset type lives for a given ID.
type DatasetLookup interface {
	DatasetPath(datasetType string, id ID) (string, error)
}

// Ref is a resolved data reference.
type Ref struct {
	id     ID
	lookup DatasetLookup
}

// NewRef binds an ID to the repository that resolved it. lookup may be nil
// for a reference without datasets.
func NewRef(id ID, lookup DatasetLookup) *Ref {
	return &Ref{id: id, lookup: lookup}
}

// ID returns the data identifier.
func (r *Ref) ID() ID { return r.id }

// Lookup returns the location of the given dataset type for this reference.
func (r *Ref) Lookup(datasetType string) (string, error) {
	if r.lookup == nil {
		return "", &ParseError{Token: datasetType, Reason: "reference has no dataset lookup"}
	}
	return r.lookup.DatasetPath(datasetType, r.id)
}

// String renders the data identifier.
func (r *Ref) String() string { return r.id.String() }
