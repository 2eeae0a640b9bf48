package export

// Table defines tabular export content with ordered rows.
type Table struct {
	Title    string
	Subtitle string
	Headers  []string
	Rows     [][]string
}

// cell returns the row value for column i, tolerating ragged rows.
func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
