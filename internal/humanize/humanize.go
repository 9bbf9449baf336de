// Package humanize holds small display-formatting helpers shared by
// the CLI, generalized from the teacher's utils package.
package humanize

import "strconv"

// Bytes formats a byte count using binary (1024-based) units.
func Bytes(n int64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
		TB = 1024 * GB
	)

	switch {
	case n >= TB:
		return strconv.FormatFloat(float64(n)/float64(TB), 'f', 2, 64) + " TB"
	case n >= GB:
		return strconv.FormatFloat(float64(n)/float64(GB), 'f', 2, 64) + " GB"
	case n >= MB:
		return strconv.FormatFloat(float64(n)/float64(MB), 'f', 2, 64) + " MB"
	case n >= KB:
		return strconv.FormatFloat(float64(n)/float64(KB), 'f', 2, 64) + " KB"
	default:
		return strconv.FormatInt(n, 10) + " B"
	}
}

// Percent formats done/total as a "NN.N%" string, returning "0.0%" for
// a zero or negative total rather than dividing by zero.
func Percent(done, total int64) string {
	if total <= 0 {
		return "0.0%"
	}
	return strconv.FormatFloat(float64(done)/float64(total)*100, 'f', 1, 64) + "%"
}
