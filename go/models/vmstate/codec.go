package vmstate

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"io"

	"github.com/golang/snappy"
	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"
)

// snapshot file format:
//
// file header
// [4]byte("VCST")
// uint32(file format version)
// uint32(crc32 of compressed body)
// uint64(length of compressed body)
// remainder is snappy-compressed
//
// -- uncompressed body --
// uint32(number of records)
// 1..num: int32(instance id), section
//
// section
// uint16(name length), name, uint32(version)
// uint32(data length), field data
// uint16(number of subsections), subsections...

var MAGIC = "VCST"

const (
	FILE_VERSION = 1

	maxBody  = 1 << 30
	maxDepth = 16
)

var options = &struc.Options{Order: binary.BigEndian}

type fileHeader struct {
	Magic    string `struc:"[4]byte"`
	Version  uint32
	Checksum uint32
	Length   uint64
}

type streamHeader struct {
	Count uint32
}

type recordHeader struct {
	InstanceID int32
}

type sectionHeader struct {
	NameLen  int `struc:"uint16,sizeof=Name"`
	Name     string
	Version  uint32
	DataLen  int `struc:"uint32,sizeof=Data"`
	Data     []byte
	SubCount uint16
}

func packSection(w io.Writer, s *Section) error {
	hdr := &sectionHeader{
		Name:     s.Name,
		Version:  uint32(s.Version),
		Data:     s.Data,
		SubCount: uint16(len(s.Subsections)),
	}
	if err := struc.PackWithOptions(w, hdr, options); err != nil {
		return errors.Wrapf(err, "packing section %s", s.Name)
	}
	for _, sub := range s.Subsections {
		if err := packSection(w, sub); err != nil {
			return err
		}
	}
	return nil
}

func unpackSection(r io.Reader, depth int) (*Section, error) {
	if depth > maxDepth {
		return nil, errors.New("subsections nested too deeply")
	}
	var hdr sectionHeader
	if err := struc.UnpackWithOptions(r, &hdr, options); err != nil {
		return nil, errors.Wrap(err, "unpacking section header")
	}
	s := &Section{Name: hdr.Name, Version: int(hdr.Version), Data: hdr.Data}
	for i := 0; i < int(hdr.SubCount); i++ {
		sub, err := unpackSection(r, depth+1)
		if err != nil {
			return nil, errors.Wrapf(err, "in section %s", s.Name)
		}
		s.Subsections = append(s.Subsections, sub)
	}
	return s, nil
}

// Encode writes s in the snapshot file format.
func Encode(w io.Writer, s *Stream) error {
	var body bytes.Buffer
	if err := struc.PackWithOptions(&body, &streamHeader{Count: uint32(len(s.Records))}, options); err != nil {
		return errors.Wrap(err, "packing stream header")
	}
	for _, rec := range s.Records {
		if err := struc.PackWithOptions(&body, &recordHeader{InstanceID: int32(rec.InstanceID)}, options); err != nil {
			return errors.Wrap(err, "packing record header")
		}
		if err := packSection(&body, rec.Section); err != nil {
			return err
		}
	}
	data := snappy.Encode(nil, body.Bytes())
	hdr := &fileHeader{
		Magic:    MAGIC,
		Version:  FILE_VERSION,
		Checksum: crc32.ChecksumIEEE(data),
		Length:   uint64(len(data)),
	}
	if err := struc.PackWithOptions(w, hdr, options); err != nil {
		return errors.Wrap(err, "failed to pack file header")
	}
	_, err := w.Write(data)
	return errors.Wrap(err, "failed to write snapshot body")
}

// Decode reads a stream written by Encode.
func Decode(r io.Reader) (*Stream, error) {
	var hdr fileHeader
	if err := struc.UnpackWithOptions(r, &hdr, options); err != nil {
		return nil, errors.Wrap(err, "failed to unpack file header")
	}
	if hdr.Magic != MAGIC {
		return nil, errors.New("invalid snapshot file magic")
	}
	if hdr.Version != FILE_VERSION {
		return nil, errors.Errorf("unsupported snapshot file version %d", hdr.Version)
	}
	if hdr.Length > maxBody {
		return nil, errors.Errorf("snapshot body too large (%d bytes)", hdr.Length)
	}
	data := make([]byte, hdr.Length)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, errors.Wrap(err, "failed to read snapshot body")
	}
	if crc32.ChecksumIEEE(data) != hdr.Checksum {
		return nil, errors.New("snapshot checksum mismatch")
	}
	raw, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decompress snapshot body")
	}
	body := bytes.NewReader(raw)
	var sh streamHeader
	if err := struc.UnpackWithOptions(body, &sh, options); err != nil {
		return nil, errors.Wrap(err, "unpacking stream header")
	}
	s := &Stream{}
	for i := 0; i < int(sh.Count); i++ {
		var rh recordHeader
		if err := struc.UnpackWithOptions(body, &rh, options); err != nil {
			return nil, errors.Wrapf(err, "unpacking record %d", i)
		}
		sec, err := unpackSection(body, 0)
		if err != nil {
			return nil, errors.Wrapf(err, "unpacking record %d", i)
		}
		s.Records = append(s.Records, &Record{InstanceID: int(rh.InstanceID), Section: sec})
	}
	return s, nil
}
