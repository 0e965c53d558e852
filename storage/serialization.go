// Copyright 2026 Cobalt Ash
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import (
	"fmt"
	"time"

	"github.com/cobaltash/vectorize/core"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for persisted types. Written by hand in the shape musgen
// emits; vectors are raw float32, timestamps are unix micro varints.
var (
	vectorSer   = ord.NewSliceSer[float32](raw.Float32)
	metadataSer = ord.NewMapSer[string, string](ord.String, ord.String)

	// VectorDocumentMUS serializes core.VectorDocument values.
	VectorDocumentMUS = vectorDocumentMUS{}
)

type vectorDocumentMUS struct{}

func (s vectorDocumentMUS) Marshal(d core.VectorDocument, bs []byte) (n int) {
	n = ord.String.Marshal(string(d.Id), bs)
	n += vectorSer.Marshal(d.Vector, bs[n:])
	n += metadataSer.Marshal(d.Metadata, bs[n:])
	n += varint.Int64.Marshal(d.CreatedAt.UnixMicro(), bs[n:])
	return n
}

func (s vectorDocumentMUS) Unmarshal(bs []byte) (d core.VectorDocument, n int, err error) {
	id, n, err := ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	d.Id = core.ID(id)

	var n1 int
	d.Vector, n1, err = vectorSer.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}

	d.Metadata, n1, err = metadataSer.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}

	var micros int64
	micros, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	d.CreatedAt = time.UnixMicro(micros).UTC()
	return
}

func (s vectorDocumentMUS) Size(d core.VectorDocument) (size int) {
	size = ord.String.Size(string(d.Id))
	size += vectorSer.Size(d.Vector)
	size += metadataSer.Size(d.Metadata)
	size += varint.Int64.Size(d.CreatedAt.UnixMicro())
	return size
}

func (s vectorDocumentMUS) Skip(bs []byte) (n int, err error) {
	n, err = ord.String.Skip(bs)
	if err != nil {
		return
	}
	var n1 int
	n1, err = vectorSer.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = metadataSer.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = varint.Int64.Skip(bs[n:])
	n += n1
	return
}

// MarshalVectorDocument serializes a VectorDocument to bytes.
func MarshalVectorDocument(doc *core.VectorDocument) []byte {
	buf := make([]byte, VectorDocumentMUS.Size(*doc))
	VectorDocumentMUS.Marshal(*doc, buf)
	return buf
}

// UnmarshalVectorDocument deserializes a VectorDocument from bytes.
func UnmarshalVectorDocument(data []byte) (*core.VectorDocument, error) {
	doc, _, err := VectorDocumentMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &doc, nil
}
