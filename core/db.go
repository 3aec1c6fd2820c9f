package core

// DBOrdering describes a single ORDER BY term. Repositories decide
// which fields are orderable; unknown fields are ignored.
type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}
