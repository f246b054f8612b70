package router

// chunk splits texts into consecutive slices of at most size elements. The
// slices share texts' backing array.
func chunk(texts []string, size int) [][]string {
	if size <= 0 {
		size = len(texts)
	}
	if len(texts) == 0 {
		return nil
	}
	out := make([][]string, 0, (len(texts)+size-1)/size)
	for start := 0; start < len(texts); start += size {
		end := min(start+size, len(texts))
		out = append(out, texts[start:end:end])
	}
	return out
}
