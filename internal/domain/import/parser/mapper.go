package parser

// MapRows keys every data row by the header names. Short rows are padded with
// empty values and fields beyond the last header are ignored.
func MapRows(headers []string, rows [][]string) []Row {
	out := make([]Row, len(rows))
	for i, fields := range rows {
		values := make(map[string]string, len(headers))
		for j, h := range headers {
			if j < len(fields) {
				values[h] = fields[j]
			} else {
				values[h] = ""
			}
		}
		out[i] = Row{
			Line:   i + 2, // +2 for 1-indexed and header
			Values: values,
		}
	}
	return out
}
