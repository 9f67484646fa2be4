package domain

// Category is one node of the upstream ITIL category taxonomy. Read-only
// from this service's point of view.
type Category struct {
	ID           int
	Name         string
	CompleteName string
	ParentID     *int
}
