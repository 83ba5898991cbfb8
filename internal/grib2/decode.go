package grib2

import "math"

// Decode unpacks Section 7's raw payload into grid-point values, per
// whichever Section 5 data-representation template this message uses.
func (m *Message) Decode() ([]float64, error) {
	switch {
	case m.DataRepresentationDefinition.Data.Simple != nil:
		return decodeSimple(&m.DataRepresentationDefinition, m.Data)
	case m.DataRepresentationDefinition.Data.Complex != nil:
		return decodeComplex(&m.DataRepresentationDefinition, m.Data)
	case m.DataRepresentationDefinition.Data.ComplexSpatialDiff != nil:
		return decodeComplexSpatialDiff(&m.DataRepresentationDefinition, m.Data)
	default:
		return nil, &DecodeError{Msg: "not implemented data decoder"}
	}
}

func simpleScale(referenceValue float64, binaryScaleFactor, decimalScaleFactor int16) func(float64) float64 {
	binaryScale := math.Pow(2, float64(binaryScaleFactor))
	decimalScale := math.Pow(10, -float64(decimalScaleFactor))
	return func(encoded float64) float64 {
		return (referenceValue + encoded*binaryScale) * decimalScale
	}
}

func decodeSimple(drd *DataRepresentationDefinition, slice []byte) ([]float64, error) {
	data := drd.Data.Simple

	if data.NumBits == 0 {
		out := make([]float64, drd.NumPoints)
		for i := range out {
			out[i] = float64(data.ReferenceValue)
		}
		return out, nil
	}

	scale := simpleScale(float64(data.ReferenceValue), data.BinaryScaleFactor, data.DecimalScaleFactor)
	reader := newBitReader(slice, data.NumBits)

	out := make([]float64, 0, drd.NumPoints)
	for {
		v, ok := reader.next()
		if !ok {
			break
		}
		out = append(out, scale(float64(v)))
	}

	if len(out) != drd.NumPoints {
		return nil, &DecodeError{Msg: "length mismatch"}
	}

	return out, nil
}

// group is a single complex-packing group: its reference value, bit width,
// and number of values.
type group struct {
	reference int64
	width     int
	length    int
}

func octetLength(numBits, numGroups int) int {
	totalBits := numGroups * numBits
	return (totalBits + 7) / 8
}

// decodeGroups parses the three bit-packed regions (references, widths,
// lengths) that precede a complex-packing payload, returning the resulting
// groups and the byte length of those three regions.
func decodeGroups(numBits int, gd GroupDefinition, slice []byte) ([]group, int, error) {
	referencesEnd := octetLength(numBits, gd.NumGroups)
	if referencesEnd > len(slice) {
		return nil, 0, &DecodeError{Msg: "group references truncated"}
	}
	references := newBitReader(slice[0:referencesEnd], numBits).take(gd.NumGroups)

	widthsEnd := referencesEnd + octetLength(gd.GroupWidthsNumBits, gd.NumGroups)
	if widthsEnd > len(slice) {
		return nil, 0, &DecodeError{Msg: "group widths truncated"}
	}
	rawWidths := newBitReader(slice[referencesEnd:widthsEnd], gd.GroupWidthsNumBits).take(gd.NumGroups)

	lengthsEnd := widthsEnd + octetLength(gd.GroupScaledLengthsNumBits, gd.NumGroups)
	if lengthsEnd > len(slice) {
		return nil, 0, &DecodeError{Msg: "group lengths truncated"}
	}
	rawLengths := newBitReader(slice[widthsEnd:lengthsEnd], gd.GroupScaledLengthsNumBits).take(gd.NumGroups - 1)

	groups := make([]group, gd.NumGroups)
	for i := 0; i < gd.NumGroups; i++ {
		width := uint64(gd.GroupWidthsReference) + rawWidths[i]

		var length uint64
		if i < len(rawLengths) {
			length = uint64(gd.GroupLengthsReference) + uint64(gd.GroupLengthsIncrement)*rawLengths[i]
		} else {
			length = uint64(gd.GroupLengthsLast)
		}

		groups[i] = group{reference: int64(references[i]), width: int(width), length: int(length)}
	}

	return groups, lengthsEnd, nil
}

// decodeComplexValues unpacks the group-referenced, variable-width payload
// that follows the three group-definition regions into a flat i64 sequence.
func decodeComplexValues(groups []group, slice []byte) []int64 {
	out := make([]int64, 0)
	pos := 0
	startOffsetBits := 0

	for _, g := range groups {
		totalBits := g.width*g.length + startOffsetBits
		posEnd := pos + totalBits/8
		offsetBits := totalBits % 8
		offsetByte := 0
		if offsetBits > 0 {
			offsetByte = 1
		}

		end := posEnd + offsetByte
		if end > len(slice) {
			end = len(slice)
		}

		values := newBitReader(slice[pos:end], g.width).withOffset(startOffsetBits).take(g.length)
		for _, v := range values {
			out = append(out, g.reference+AsGribInt64(v))
		}

		pos = posEnd
		startOffsetBits = offsetBits
	}

	return out
}

func decodeComplex(drd *DataRepresentationDefinition, slice []byte) ([]float64, error) {
	data := drd.Data.Complex

	groups, groupsNumBytes, err := decodeGroups(data.NumBits, data.GroupDefinition, slice)
	if err != nil {
		return nil, err
	}

	values := decodeComplexValues(groups, slice[groupsNumBytes:])

	scale := simpleScale(float64(data.ReferenceValue), data.BinaryScaleFactor, data.DecimalScaleFactor)
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = scale(float64(v))
	}
	return out, nil
}

// undiffSpatial2ndOrder reverses 1st- or 2nd-order spatial differencing. The
// preamble seeds the first `order` grid values directly (y0=z1, and for
// order 2 also y1=z2); diffs holds one decoded delta per remaining grid
// point, so out is len(diffs)+order long and each out[i] for i>=order
// consumes diffs[i-order]:
//
//	order 1: y[i] = diffs[i-order] + y[i-1]
//	order 2: y[i] = diffs[i-order] + 2*y[i-1] - y[i-2]
func undiffSpatial2ndOrder(diffs []int64, z1, z2 int64, hasZ2 bool) []int64 {
	order := 1
	if hasZ2 {
		order = 2
	}

	out := make([]int64, len(diffs)+order)
	if len(out) == 0 {
		return out
	}
	out[0] = z1
	if order == 2 && len(out) > 1 {
		out[1] = z2
	}

	for i := order; i < len(out); i++ {
		if order == 2 {
			out[i] = diffs[i-order] + 2*out[i-1] - out[i-2]
		} else {
			out[i] = diffs[i-order] + out[i-1]
		}
	}
	return out
}

func decodeComplexSpatialDiff(drd *DataRepresentationDefinition, slice []byte) ([]float64, error) {
	data := drd.Data.ComplexSpatialDiff

	if len(slice) < 4 {
		return nil, &DecodeError{Msg: "spatial diff preamble truncated"}
	}

	var cpt int
	var z2 int64
	hasZ2 := data.SpatialDifferenceOrder == 2

	z1 := int64(AsGribInt16(readU16(slice, 0)))
	var zMin int64
	if hasZ2 {
		cpt = 6
		z2 = int64(AsGribInt16(readU16(slice, 2)))
		zMin = int64(AsGribInt16(readU16(slice, 4)))
	} else {
		cpt = 4
		zMin = int64(AsGribInt16(readU16(slice, 2)))
	}

	groups, groupsNumBytes, err := decodeGroups(data.NumBits, data.GroupDefinition, slice[cpt:])
	if err != nil {
		return nil, err
	}
	toSkip := groupsNumBytes + cpt

	diffs := decodeComplexValues(groups, slice[toSkip:])
	for i := range diffs {
		diffs[i] += zMin
	}
	values := undiffSpatial2ndOrder(diffs, z1, z2, hasZ2)
	if len(values) != drd.NumPoints {
		return nil, &DecodeError{Msg: "length mismatch"}
	}

	scale := simpleScale(float64(data.ReferenceValue), data.BinaryScaleFactor, data.DecimalScaleFactor)
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = scale(float64(v))
	}
	return out, nil
}
