package model

import (
	"gonum.org/v1/gonum/mat"
)

// GobDense wraps *mat.Dense so fitted weights can be stored with
// encoding/gob. gonum matrices have no exported fields and only implement
// encoding.BinaryMarshaler, which gob ignores; this wrapper bridges the two.
type GobDense struct {
	Dense *mat.Dense
}

// WrapDense wraps d for gob serialization. A nil d is encoded as empty.
func WrapDense(d *mat.Dense) GobDense {
	return GobDense{Dense: d}
}

// GobEncode implements gob.GobEncoder via the matrix's binary marshaling.
func (g GobDense) GobEncode() ([]byte, error) {
	if g.Dense == nil {
		return nil, nil
	}
	return g.Dense.MarshalBinary()
}

// GobDecode implements gob.GobDecoder.
func (g *GobDense) GobDecode(data []byte) error {
	if len(data) == 0 {
		g.Dense = nil
		return nil
	}
	g.Dense = &mat.Dense{}
	return g.Dense.UnmarshalBinary(data)
}
