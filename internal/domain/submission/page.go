package submission

// Page is one window of records of a tenant and kind, oldest first.
type Page struct {
	Records []Record
	// Total is the number of stored records of the kind, before filtering.
	Total int64
	// NextCursor resumes the scan after the last examined record when HasMore is set.
	NextCursor int64
	HasMore    bool
}
