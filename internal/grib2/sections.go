package grib2

import "time"

// Indicator is GRIB2 Section 0: discipline and the total message length.
type Indicator struct {
	Discipline  uint8
	TotalLength uint64
}

// Identification is GRIB2 Section 1.
type Identification struct {
	CentreID            uint16
	SubcentreID         uint16
	MasterTableVersion  uint8
	LocalTableVersion   uint8
	RefTimeSignificance uint8
	RefTime             time.Time
	ProdStatus          uint8
	DataType            uint8
}

// GridDefinition is GRIB2 Section 3.
type GridDefinition struct {
	Source                         uint8
	NumPoints                      int
	OptionalNumListSize            int
	OptionalNumListInterpretation  uint8
	TemplateNumber                 uint16
	Grid                           Grid
}

// Grid is the Section 3 grid-definition template payload. Only template 0
// (lat/lon) is interpreted; anything else is kept raw.
type Grid struct {
	Template0 *Grid0
	Raw       []byte
}

// ScaledValue is a (scale, value) pair as GRIB2 encodes the earth's axes.
type ScaledValue struct {
	Scale uint8
	Value uint32
}

// BasicAngle expresses the i/j direction increments as a (basic angle,
// subdivisions) pair, per Grid Template 3.0.
type BasicAngle struct {
	BasicAngle    uint32
	BasicAngleSub uint32
}

// Grid0 is Grid Definition Template 3.0: Latitude/longitude (equidistant
// cylindrical / Plate Carree).
type Grid0 struct {
	EarthShape                  uint8
	SphericalRadius             ScaledValue
	MajorAxis                   ScaledValue
	MinorAxis                   ScaledValue
	NI, NJ                      uint32
	InitialProdBasicAngle       BasicAngle
	La1, Lo1                    int32
	ResolutionComponentFlags    uint8
	La2, Lo2                    int32
	DI, DJ                      uint32
	ScanningMode                uint8
}

func gridFromTemplate(templateNumber uint16, buf []byte) Grid {
	if templateNumber != 0 {
		return Grid{Raw: buf}
	}

	return Grid{Template0: &Grid0{
		EarthShape:               buf[0],
		SphericalRadius:          ScaledValue{Scale: buf[1], Value: readU32(buf, 2)},
		MajorAxis:                ScaledValue{Scale: buf[6], Value: readU32(buf, 7)},
		MinorAxis:                ScaledValue{Scale: buf[11], Value: readU32(buf, 12)},
		NI:                       readU32(buf, 16),
		NJ:                       readU32(buf, 20),
		InitialProdBasicAngle:    BasicAngle{BasicAngle: readU32(buf, 24), BasicAngleSub: readU32(buf, 28)},
		La1:                      int32(readU32(buf, 32)),
		Lo1:                      int32(readU32(buf, 36)),
		ResolutionComponentFlags: buf[40],
		La2:                      int32(readU32(buf, 41)),
		Lo2:                      int32(readU32(buf, 45)),
		DI:                       readU32(buf, 49),
		DJ:                       readU32(buf, 53),
		ScanningMode:             buf[57],
	}}
}

// Surface is a GRIB2 fixed surface descriptor (type/scale/value).
type Surface struct {
	SurfaceType uint8
	ScaleFactor uint8
	ScaledValue uint32
}

// ProductDefinition is GRIB2 Section 4.
type ProductDefinition struct {
	NumCoordinates  uint16
	TemplateNumber  uint16
	Product         Product
}

// Product is the Section 4 product-definition template payload. Only
// template 0 is interpreted; anything else is kept raw.
type Product struct {
	Template0 *Product0
	Raw       []byte
}

// Product0 is Product Definition Template 4.0: analysis/forecast at a point
// in time.
type Product0 struct {
	ParameterCategory uint8
	ParameterNumber   uint8
	ProcessType       uint8
	BackgroundProcess uint8
	AnalysisProcess   uint8
	Hours             uint16
	Minutes           uint8
	ForecastTime      time.Duration
	FirstSurface      Surface
	SecondSurface     Surface
}

func productFromTemplate(templateNumber uint16, buf []byte) (Product, error) {
	if templateNumber != 0 {
		return Product{Raw: buf}, nil
	}

	forecastTime, err := forecastTimeUnit(buf[8], readU32(buf, 9))
	if err != nil {
		return Product{}, err
	}

	return Product{Template0: &Product0{
		ParameterCategory: buf[0],
		ParameterNumber:   buf[1],
		ProcessType:       buf[2],
		BackgroundProcess: buf[3],
		AnalysisProcess:   buf[4],
		Hours:             readU16(buf, 5),
		Minutes:           buf[7],
		ForecastTime:      forecastTime,
		FirstSurface: Surface{
			SurfaceType: buf[13],
			ScaleFactor: buf[14],
			ScaledValue: readU32(buf, 15),
		},
		SecondSurface: Surface{
			SurfaceType: buf[19],
			ScaleFactor: buf[20],
			ScaledValue: readU32(buf, 21),
		},
	}}, nil
}

func forecastTimeUnit(code uint8, n uint32) (time.Duration, error) {
	const (
		minute = time.Minute
		hour   = time.Hour
		day    = 24 * time.Hour
		year   = 365 * day
	)

	switch code {
	case 0:
		return time.Duration(n) * minute, nil
	case 1:
		return time.Duration(n) * hour, nil
	case 2:
		return time.Duration(n) * day, nil
	case 3:
		return time.Duration(n) * 30 * day, nil
	case 4:
		return time.Duration(n) * year, nil
	case 5:
		return time.Duration(n) * 10 * year, nil
	case 6:
		return time.Duration(n) * 30 * year, nil
	case 7:
		return time.Duration(n) * 100 * year, nil
	case 10:
		return time.Duration(n) * 3 * hour, nil
	case 11:
		return time.Duration(n) * 6 * hour, nil
	case 12:
		return time.Duration(n) * 12 * hour, nil
	case 13:
		return time.Duration(n) * time.Second, nil
	default:
		return 0, &DecodeError{Msg: "forecast time unit does not exist"}
	}
}

// DataRepresentationDefinition is GRIB2 Section 5.
type DataRepresentationDefinition struct {
	NumPoints      int
	TemplateNumber uint16
	Data           Data
}

// Data is the Section 5 data-representation template payload: simple
// packing (template 0), complex packing (2), complex packing with spatial
// differencing (3), or an unrecognized template kept raw.
type Data struct {
	Simple             *Data0
	Complex            *Data2
	ComplexSpatialDiff *Data3
	Raw                []byte
}

// Data0 is Data Representation Template 5.0: grid point data, simple packing.
type Data0 struct {
	ReferenceValue     float32
	BinaryScaleFactor  int16
	DecimalScaleFactor int16
	NumBits            int
	ValuesType         uint8
}

// GroupDefinition is the shared group layout of templates 5.2 and 5.3.
type GroupDefinition struct {
	NumGroups                 int
	GroupWidthsReference      uint8
	GroupWidthsNumBits        int
	GroupLengthsReference     uint32
	GroupLengthsIncrement     uint8
	GroupLengthsLast          uint32
	GroupScaledLengthsNumBits int
}

// Data2 is Data Representation Template 5.2: grid point data, complex
// packing.
type Data2 struct {
	ReferenceValue              float32
	BinaryScaleFactor           int16
	DecimalScaleFactor          int16
	NumBits                     int
	ValuesType                  uint8
	GroupMethod                 uint8
	MissingValue                uint8
	MissingSubstitutePrimary    uint32
	MissingSubstituteSecondary  uint32
	GroupDefinition             GroupDefinition
}

// Data3 is Data Representation Template 5.3: grid point data, complex
// packing with spatial differencing.
type Data3 struct {
	ReferenceValue             float32
	BinaryScaleFactor          int16
	DecimalScaleFactor         int16
	NumBits                    int
	ValuesType                 uint8
	GroupMethod                uint8
	MissingValue               uint8
	MissingSubstitutePrimary   uint32
	MissingSubstituteSecondary uint32
	GroupDefinition            GroupDefinition
	SpatialDifferenceOrder     uint8
	SpatialDifferenceSize      uint8
}

func dataFromTemplate(templateNumber uint16, buf []byte) (Data, error) {
	r := &byteReader{buf: buf}

	switch templateNumber {
	case 0:
		return Data{Simple: &Data0{
			ReferenceValue:     r.float32(),
			BinaryScaleFactor:  AsGribInt16(r.uint16()),
			DecimalScaleFactor: AsGribInt16(r.uint16()),
			NumBits:            int(r.uint8()),
			ValuesType:         r.uint8(),
		}}, r.err
	case 2:
		d := &Data2{
			ReferenceValue:             r.float32(),
			BinaryScaleFactor:          AsGribInt16(r.uint16()),
			DecimalScaleFactor:         AsGribInt16(r.uint16()),
			NumBits:                    int(r.uint8()),
			ValuesType:                 r.uint8(),
			GroupMethod:                r.uint8(),
			MissingValue:               r.uint8(),
			MissingSubstitutePrimary:   r.uint32(),
			MissingSubstituteSecondary: r.uint32(),
		}
		d.GroupDefinition = GroupDefinition{
			NumGroups:                 int(r.uint32()),
			GroupWidthsReference:      r.uint8(),
			GroupWidthsNumBits:        int(r.uint8()),
			GroupLengthsReference:     r.uint32(),
			GroupLengthsIncrement:     r.uint8(),
			GroupLengthsLast:          r.uint32(),
			GroupScaledLengthsNumBits: int(r.uint8()),
		}
		return Data{Complex: d}, r.err
	case 3:
		d := &Data3{
			ReferenceValue:             r.float32(),
			BinaryScaleFactor:          AsGribInt16(r.uint16()),
			DecimalScaleFactor:         AsGribInt16(r.uint16()),
			NumBits:                    int(r.uint8()),
			ValuesType:                 r.uint8(),
			GroupMethod:                r.uint8(),
			MissingValue:               r.uint8(),
			MissingSubstitutePrimary:   r.uint32(),
			MissingSubstituteSecondary: r.uint32(),
		}
		d.GroupDefinition = GroupDefinition{
			NumGroups:                 int(r.uint32()),
			GroupWidthsReference:      r.uint8(),
			GroupWidthsNumBits:        int(r.uint8()),
			GroupLengthsReference:     r.uint32(),
			GroupLengthsIncrement:     r.uint8(),
			GroupLengthsLast:          r.uint32(),
			GroupScaledLengthsNumBits: int(r.uint8()),
		}
		d.SpatialDifferenceOrder = r.uint8()
		d.SpatialDifferenceSize = r.uint8()
		return Data{ComplexSpatialDiff: d}, r.err
	default:
		return Data{Raw: buf}, nil
	}
}

// BitMap is GRIB2 Section 6.
type BitMap struct {
	Indicator uint8
	Bitmap    []byte
}

// identificationRefTime reads the Y/M/D/h/m/s reference time out of
// Section 1's fixed 16-octet body (octets 7-13, 0-indexed within it).
func identificationRefTime(buf []byte) time.Time {
	year := int(readU16(buf, 7))
	month := time.Month(buf[9])
	day := int(buf[10])
	hour, min, sec := int(buf[11]), int(buf[12]), int(buf[13])
	return time.Date(year, month, day, hour, min, sec, 0, time.UTC)
}
