package driven

import "encoding"

// VectorIndex is an ordered arena of fixed-dimension vectors searched by inner product.
//
// Vectors are addressed by dense integer ids assigned in insertion order,
// starting at 0. There is no delete or update: changing what a game contributes
// means building a new index.
type VectorIndex interface {
	// Add appends vectors and returns the id given to the first one.
	// The remaining vectors get consecutive ids.
	Add(vectors [][]float32) (firstID int, err error)

	// Search returns up to k hits ordered by descending similarity.
	Search(query []float32, k int) ([]VectorHit, error)

	// Reconstruct returns a copy of the vector stored at id.
	Reconstruct(id int) ([]float32, error)

	// Count returns the number of stored vectors.
	Count() int

	// Dimension returns the vector size.
	Dimension() int

	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ID is the vector id.
	ID int

	// Similarity is the inner product with the query; cosine for unit vectors.
	Similarity float64
}
