package core

// Input is one piece of content submitted for vectorization or querying.
// Exactly one of Text, Data, or URL should be set; MIME and Modality are
// optional hints, detected from content when absent.
type Input struct {
	Text     string
	Data     []byte
	URL      string
	MIME     string
	Modality Modality // explicit override; skips MIME detection
	Name     string   // label used in results and failure reports
}

// Empty reports whether the input carries no content at all.
func (in Input) Empty() bool {
	return in.Text == "" && len(in.Data) == 0 && in.URL == ""
}
