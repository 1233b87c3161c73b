// Package mock provides test double implementations of the ai interfaces.
//
// The mock embedder lets tests run without an external embedding
// service while staying deterministic: the same text always maps to the
// same vector, regardless of batching.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockEmbedder := mock.NewMockEmbedder()
//	vectors, err := mockEmbedder.EmbedTexts(ctx, []string{"a", "b"})
//
//	// Custom behavior injection
//	mockEmbedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
//	    return nil, errors.New("backend down")
//	}
//
//	// Check call counts
//	count := mockEmbedder.CallCount()
package mock
