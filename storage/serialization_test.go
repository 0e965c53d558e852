package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobaltash/vectorize/core"
)

func TestVectorDocumentRoundTrip(t *testing.T) {
	created := time.Date(2026, 3, 14, 9, 26, 53, 589000, time.UTC)
	doc := &core.VectorDocument{
		Id:     "doc-1",
		Vector: []float32{0.1, -0.2, 0.3, 0.0, 1.5},
		Metadata: map[string]string{
			"modality": "text",
			"mime":     "text/plain",
			"source":   "notes.txt",
		},
		CreatedAt: created,
	}

	data := MarshalVectorDocument(doc)
	require.NotEmpty(t, data)

	got, err := UnmarshalVectorDocument(data)
	require.NoError(t, err)

	assert.Equal(t, doc.Id, got.Id)
	assert.Equal(t, doc.Vector, got.Vector)
	assert.Equal(t, doc.Metadata, got.Metadata)
	assert.True(t, doc.CreatedAt.Equal(got.CreatedAt),
		"expected %v, got %v", doc.CreatedAt, got.CreatedAt)
}

func TestVectorDocumentRoundTrip_EmptyFields(t *testing.T) {
	doc := &core.VectorDocument{
		Id:        "empty",
		CreatedAt: time.Unix(0, 0).UTC(),
	}

	got, err := UnmarshalVectorDocument(MarshalVectorDocument(doc))
	require.NoError(t, err)
	assert.Equal(t, doc.Id, got.Id)
	assert.Empty(t, got.Vector)
	assert.Empty(t, got.Metadata)
}

func TestUnmarshalVectorDocument_Corrupt(t *testing.T) {
	doc := &core.VectorDocument{
		Id:        "doc-1",
		Vector:    []float32{1, 2, 3},
		CreatedAt: time.Now().UTC(),
	}
	data := MarshalVectorDocument(doc)

	_, err := UnmarshalVectorDocument(data[:len(data)/2])
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestVectorDocumentMUS_SizeMatchesMarshal(t *testing.T) {
	doc := core.VectorDocument{
		Id:        "sized",
		Vector:    []float32{0.5, 0.25},
		Metadata:  map[string]string{"k": "v"},
		CreatedAt: time.Now().UTC(),
	}

	buf := make([]byte, VectorDocumentMUS.Size(doc))
	n := VectorDocumentMUS.Marshal(doc, buf)
	assert.Equal(t, len(buf), n, "Size must match bytes written by Marshal")

	skipped, err := VectorDocumentMUS.Skip(buf)
	require.NoError(t, err)
	assert.Equal(t, n, skipped)
}
