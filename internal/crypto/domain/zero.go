package domain

// Zero overwrites b with zeros. Safe to call with a nil slice.
func Zero(b []byte) {
	clear(b)
}
