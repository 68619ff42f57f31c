package recent

// Ellipsis marks a truncated description.
const Ellipsis = "..."

// Truncate shortens s to at most limit characters, ellipsis included.
// Strings that already fit are returned unchanged. Length is counted in runes.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	el := []rune(Ellipsis)
	if limit <= len(el) {
		return string(el[:limit])
	}
	return string(r[:limit-len(el)]) + Ellipsis
}
