// Package codec provides the serializers bound to a concrete payload type.
// A Codec is chosen once when an adapter is built; decoding never inspects
// the stored bytes to discover the type.
package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
