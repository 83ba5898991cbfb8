// Package grib2 decodes GRIB edition-2 messages: the section 0/1/3/4/5/6/7/8
// framing, and the simple/complex/complex-with-spatial-differencing grid
// point data packings.
package grib2

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

const (
	sect0Magic   = "GRIB"
	sect0Size    = 16
	sectionHdrSz = 5
	sect8Magic   = "7777"
)

// Message is one self-contained GRIB2 record: indicator, identification,
// grid/product/data-representation definitions, the bitmap, and the raw
// Section 7 payload ready for Decode.
type Message struct {
	Indicator                    Indicator
	Identification               Identification
	GridDefinition                GridDefinition
	ProductDefinition             ProductDefinition
	DataRepresentationDefinition  DataRepresentationDefinition
	BitMap                        BitMap
	Data                          []byte
}

// Grib is a decoded GRIB2 file: one or more concatenated messages.
type Grib struct {
	Messages []Message
}

// DecodeError reports a malformed GRIB2 byte stream or an unsupported
// encoding within one.
type DecodeError struct{ Msg string }

func (e *DecodeError) Error() string { return e.Msg }

// FromReader decodes every GRIB2 message in r, in order.
func FromReader(r io.Reader) (*Grib, error) {
	gr := &reader{r: r}

	var messages []Message
	for {
		header, indicator, err := gr.readSect0()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		remaining := indicator.TotalLength - uint64(header.size)
		total := indicator.TotalLength

		sections := []section{{kind: sectIndicator, indicator: indicator}}

		for remaining > 0 {
			if remaining == uint64(len(sect8Magic)) {
				sec, err := gr.readSect8Body(len(sect8Magic))
				if err != nil {
					return nil, err
				}
				sections = append(sections, sec)
				break
			}

			hdr, sec, err := gr.readSection()
			if err != nil {
				return nil, errors.Wrapf(err, "reading section (remaining %d/%d)", remaining, total)
			}
			remaining -= uint64(hdr.size)
			sections = append(sections, sec)
		}

		msg, err := assembleMessage(sections)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	return &Grib{Messages: messages}, nil
}

type sectionKind int

const (
	sectIndicator sectionKind = iota
	sectIdentification
	sectLocalUse
	sectGrid
	sectProduct
	sectDataRepr
	sectBitMap
	sectData
	sectEnd
)

type section struct {
	kind           sectionKind
	indicator      Indicator
	identification Identification
	grid           GridDefinition
	product        ProductDefinition
	dataRepr       DataRepresentationDefinition
	bitMap         BitMap
	data           []byte
}

func assembleMessage(sections []section) (Message, error) {
	var msg Message
	var have [sectEnd + 1]bool

	for _, s := range sections {
		switch s.kind {
		case sectIndicator:
			msg.Indicator = s.indicator
			have[sectIndicator] = true
		case sectIdentification:
			msg.Identification = s.identification
			have[sectIdentification] = true
		case sectGrid:
			msg.GridDefinition = s.grid
			have[sectGrid] = true
		case sectProduct:
			msg.ProductDefinition = s.product
			have[sectProduct] = true
		case sectDataRepr:
			msg.DataRepresentationDefinition = s.dataRepr
			have[sectDataRepr] = true
		case sectBitMap:
			msg.BitMap = s.bitMap
			have[sectBitMap] = true
		case sectData:
			msg.Data = s.data
			have[sectData] = true
		}
	}

	missing := func(ok bool, name string) error {
		if !ok {
			return &DecodeError{Msg: "missing section " + name}
		}
		return nil
	}
	for _, m := range []struct {
		ok   bool
		name string
	}{
		{have[sectIndicator], "0"},
		{have[sectIdentification], "1"},
		{have[sectGrid], "3"},
		{have[sectProduct], "4"},
		{have[sectDataRepr], "5"},
		{have[sectBitMap], "6"},
		{have[sectData], "7"},
	} {
		if err := missing(m.ok, m.name); err != nil {
			return Message{}, err
		}
	}

	return msg, nil
}

type sectionHeader struct {
	size   int
	number uint8
}

type reader struct {
	r io.Reader
}

func (gr *reader) readExact(buf []byte) error {
	_, err := io.ReadFull(gr.r, buf)
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	return err
}

func (gr *reader) readSect0() (sectionHeader, Indicator, error) {
	buf := make([]byte, sect0Size)
	if err := gr.readExact(buf); err != nil {
		return sectionHeader{}, Indicator{}, err
	}

	if string(buf[0:len(sect0Magic)]) != sect0Magic {
		return sectionHeader{}, Indicator{}, &DecodeError{Msg: "not a GRIB message"}
	}

	discipline := buf[6]
	version := buf[7]
	if version != 2 {
		return sectionHeader{}, Indicator{}, errors.Errorf("GRIB version mismatch: %d", version)
	}

	totalLength := binary.BigEndian.Uint64(buf[8:16])

	return sectionHeader{size: sect0Size, number: 0}, Indicator{Discipline: discipline, TotalLength: totalLength}, nil
}

func (gr *reader) readHeader() (sectionHeader, error) {
	buf := make([]byte, sectionHdrSz)
	if err := gr.readExact(buf); err != nil {
		return sectionHeader{}, err
	}

	length := binary.BigEndian.Uint32(buf[0:4])
	number := buf[4]

	return sectionHeader{size: int(length), number: number}, nil
}

func (gr *reader) readSection() (sectionHeader, section, error) {
	header, err := gr.readHeader()
	if err != nil {
		return sectionHeader{}, section{}, err
	}

	bodySize := header.size - sectionHdrSz

	var sec section
	switch header.number {
	case 1:
		sec, err = gr.readSect1Body(bodySize)
	case 2:
		err = gr.skip(bodySize)
		sec = section{kind: sectLocalUse}
	case 3:
		sec, err = gr.readSect3Body(bodySize)
	case 4:
		sec, err = gr.readSect4Body(bodySize)
	case 5:
		sec, err = gr.readSect5Body(bodySize)
	case 6:
		sec, err = gr.readSect6Body(bodySize)
	case 7:
		sec, err = gr.readSect7Body(bodySize)
	default:
		return sectionHeader{}, section{}, errors.Errorf("unknown section %d", header.number)
	}

	return header, sec, err
}

func (gr *reader) skip(n int) error {
	if n <= 0 {
		return nil
	}
	buf := make([]byte, n)
	return gr.readExact(buf)
}

func (gr *reader) readSect1Body(bodySize int) (section, error) {
	buf := make([]byte, 16)
	if err := gr.readExact(buf); err != nil {
		return section{}, err
	}
	if err := gr.skip(bodySize - len(buf)); err != nil {
		return section{}, err
	}

	return section{kind: sectIdentification, identification: Identification{
		CentreID:            readU16(buf, 0),
		SubcentreID:         readU16(buf, 2),
		MasterTableVersion:  buf[4],
		LocalTableVersion:   buf[5],
		RefTimeSignificance: buf[6],
		RefTime:             identificationRefTime(buf),
		ProdStatus:          buf[14],
		DataType:            buf[15],
	}}, nil
}

func (gr *reader) readSect3Body(bodySize int) (section, error) {
	buf := make([]byte, 9)
	if err := gr.readExact(buf); err != nil {
		return section{}, err
	}

	templateNumber := readU16(buf, 7)
	optionalNumListSize := int(buf[5])

	templateSize := bodySize - len(buf) - optionalNumListSize
	tbuf := make([]byte, templateSize)
	if err := gr.readExact(tbuf); err != nil {
		return section{}, err
	}

	return section{kind: sectGrid, grid: GridDefinition{
		Source:                        buf[0],
		NumPoints:                     int(readU32(buf, 1)),
		OptionalNumListSize:           optionalNumListSize,
		OptionalNumListInterpretation: buf[6],
		TemplateNumber:                templateNumber,
		Grid:                          gridFromTemplate(templateNumber, tbuf),
	}}, nil
}

func (gr *reader) readSect4Body(bodySize int) (section, error) {
	buf := make([]byte, 4)
	if err := gr.readExact(buf); err != nil {
		return section{}, err
	}

	numCoordinates := readU16(buf, 0)
	templateNumber := readU16(buf, 2)

	templateSize := bodySize - len(buf) - 4*int(numCoordinates)
	tbuf := make([]byte, templateSize)
	if err := gr.readExact(tbuf); err != nil {
		return section{}, err
	}

	product, err := productFromTemplate(templateNumber, tbuf)
	if err != nil {
		return section{}, err
	}

	return section{kind: sectProduct, product: ProductDefinition{
		NumCoordinates: numCoordinates,
		TemplateNumber: templateNumber,
		Product:        product,
	}}, nil
}

func (gr *reader) readSect5Body(bodySize int) (section, error) {
	buf := make([]byte, 6)
	if err := gr.readExact(buf); err != nil {
		return section{}, err
	}

	templateNumber := readU16(buf, 4)

	templateSize := bodySize - len(buf)
	tbuf := make([]byte, templateSize)
	if err := gr.readExact(tbuf); err != nil {
		return section{}, err
	}

	data, err := dataFromTemplate(templateNumber, tbuf)
	if err != nil {
		return section{}, err
	}

	return section{kind: sectDataRepr, dataRepr: DataRepresentationDefinition{
		NumPoints:      int(readU32(buf, 0)),
		TemplateNumber: templateNumber,
		Data:           data,
	}}, nil
}

func (gr *reader) readSect6Body(bodySize int) (section, error) {
	buf := make([]byte, 1)
	if err := gr.readExact(buf); err != nil {
		return section{}, err
	}

	bitmap := make([]byte, bodySize-len(buf))
	if err := gr.readExact(bitmap); err != nil {
		return section{}, err
	}

	return section{kind: sectBitMap, bitMap: BitMap{Indicator: buf[0], Bitmap: bitmap}}, nil
}

func (gr *reader) readSect7Body(bodySize int) (section, error) {
	buf := make([]byte, bodySize)
	if err := gr.readExact(buf); err != nil {
		return section{}, err
	}
	return section{kind: sectData, data: buf}, nil
}

func (gr *reader) readSect8Body(bodySize int) (section, error) {
	buf := make([]byte, bodySize)
	if err := gr.readExact(buf); err != nil {
		return section{}, err
	}
	if string(buf) != sect8Magic {
		return section{}, &DecodeError{Msg: "end section mismatch"}
	}
	return section{kind: sectEnd}, nil
}
