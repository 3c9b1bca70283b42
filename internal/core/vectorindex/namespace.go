package vectorindex

import "fmt"

// Namespace derives the vector-store namespace for a document. It is a
// pure function of (document ID, filename) so it can be reconstructed
// without a side table; the report's insights.namespace remains the
// authoritative pointer.
func Namespace(docID, filename string) string {
	return fmt.Sprintf("%s_%s", docID, filename)
}
