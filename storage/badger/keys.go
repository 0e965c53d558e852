package badger

import "github.com/cobaltash/vectorize/core"

// Key prefixes for stored data
const (
	documentPrefix = "vecdoc"
)

// makeDocumentKey generates the key for a document by id.
func makeDocumentKey(id core.ID) []byte {
	return []byte(documentPrefix + ":" + string(id))
}
