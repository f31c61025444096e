package registry

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"incback/internal/model"
	"io"
	"math"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
)

// DPF layout, all integers little endian:
//
//	header: magic[4] version u16 rows u16 reserved[4]
//	row:    type u8 copyMode u8 ignoreCount u8 pathLen u16 path[pathLen]
//	        { nameLen u16 name[nameLen] } * ignoreCount
//
// Text is UTF-16LE and every length counts bytes.
const (
	Version    uint16 = 1
	HeaderSize        = 12
)

var Magic = [4]byte{'D', 'P', 'F', 0x01}

var (
	ErrInvalidHeader      = errors.New("dpf: invalid header")
	ErrUnsupportedVersion = errors.New("dpf: unsupported version")
	ErrTruncated          = errors.New("dpf: truncated data")
	ErrTooLarge           = errors.New("dpf: value exceeds field width")
)

func textEncoding() encoding.Encoding {
	return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
}

func Marshal(paths []model.DataPath) ([]byte, error) {
	if len(paths) > math.MaxUint16 {
		return nil, fmt.Errorf("%w: %d rows", ErrTooLarge, len(paths))
	}

	var buf bytes.Buffer
	buf.Write(Magic[:])
	_ = binary.Write(&buf, binary.LittleEndian, Version)
	_ = binary.Write(&buf, binary.LittleEndian, uint16(len(paths)))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(0))

	for _, p := range paths {
		if err := writeRow(&buf, p); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

func Unmarshal(data []byte) ([]model.DataPath, error) {
	if len(data) < HeaderSize || !bytes.Equal(data[:4], Magic[:]) {
		return nil, ErrInvalidHeader
	}

	if v := binary.LittleEndian.Uint16(data[4:6]); v != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}

	rows := binary.LittleEndian.Uint16(data[6:8])
	r := bytes.NewReader(data[HeaderSize:])

	paths := make([]model.DataPath, 0, rows)
	for i := range int(rows) {
		p, err := readRow(r)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrTruncated, i, err)
		}
		paths = append(paths, p)
	}

	return paths, nil
}

func writeRow(w io.Writer, p model.DataPath) error {
	if len(p.IgnoreNames) > math.MaxUint8 {
		return fmt.Errorf("%w: %d ignore names on %s", ErrTooLarge, len(p.IgnoreNames), p.SourcePath)
	}

	if _, err := w.Write([]byte{byte(p.Type), byte(p.CopyMode), byte(len(p.IgnoreNames))}); err != nil {
		return err
	}

	if err := writeString(w, p.SourcePath); err != nil {
		return err
	}

	for _, name := range p.IgnoreNames {
		if err := writeString(w, name); err != nil {
			return err
		}
	}

	return nil
}

func readRow(r io.Reader) (model.DataPath, error) {
	var p model.DataPath

	head := make([]byte, 3)
	if _, err := io.ReadFull(r, head); err != nil {
		return p, err
	}
	p.Type = model.PathTypeFromCode(head[0])
	p.CopyMode = model.CopyModeFromCode(head[1])

	path, err := readString(r)
	if err != nil {
		return p, err
	}
	p.SourcePath = path
	p.Volume = (*model.VolumeResolver)(nil).Volume(path)

	if n := int(head[2]); n > 0 {
		p.IgnoreNames = make([]string, 0, n)
		for range n {
			name, err := readString(r)
			if err != nil {
				return p, err
			}
			p.IgnoreNames = append(p.IgnoreNames, name)
		}
	}

	return p, nil
}

func writeString(w io.Writer, s string) error {
	b, err := textEncoding().NewEncoder().Bytes([]byte(s))
	if err != nil {
		return fmt.Errorf("failed to encode %q: %w", s, err)
	}

	if len(b) > math.MaxUint16 {
		return fmt.Errorf("%w: %d byte string", ErrTooLarge, len(b))
	}

	if err := binary.Write(w, binary.LittleEndian, uint16(len(b))); err != nil {
		return err
	}

	_, err = w.Write(b)
	return err
}

func readString(r io.Reader) (string, error) {
	var length uint16
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		return "", err
	}

	b := make([]byte, length)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}

	s, err := textEncoding().NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}

	return string(s), nil
}
