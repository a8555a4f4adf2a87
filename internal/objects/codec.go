package objects

import (
	"bytes"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v4"
)

// codecVersion is written as the first byte of every encoded
// MultiObject/RepoData so the wire format can evolve without breaking
// readers of old blobs.
const codecVersion uint8 = 1

func encodeOID(enc *msgpack.Encoder, oid OID) error {
	return enc.EncodeString(string(oid))
}

func decodeOID(dec *msgpack.Decoder) (OID, error) {
	s, err := dec.DecodeString()
	if err != nil {
		return "", err
	}
	return OID(s), nil
}

func encodeOIDList(enc *msgpack.Encoder, oids []OID) error {
	if err := enc.EncodeArrayLen(len(oids)); err != nil {
		return err
	}
	for _, oid := range oids {
		if err := encodeOID(enc, oid); err != nil {
			return err
		}
	}
	return nil
}

func decodeOIDList(dec *msgpack.Decoder) ([]OID, error) {
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, nil
	}
	out := make([]OID, n)
	for i := 0; i < n; i++ {
		oid, err := decodeOID(dec)
		if err != nil {
			return nil, err
		}
		out[i] = oid
	}
	return out, nil
}

// encodeGitObject writes a GitObject as: hash, data, kind
// discriminator, then the variant's own fields.
func encodeGitObject(enc *msgpack.Encoder, o *GitObject) error {
	if err := encodeOID(enc, o.Hash); err != nil {
		return err
	}
	if err := enc.EncodeBytes(o.Data); err != nil {
		return err
	}
	if err := enc.EncodeUint8(uint8(o.Kind)); err != nil {
		return err
	}
	switch o.Kind {
	case KindBlob:
		return nil
	case KindTree:
		return encodeOIDList(enc, o.Tree.EntryOIDs)
	case KindCommit:
		if err := encodeOIDList(enc, o.Commit.ParentOIDs); err != nil {
			return err
		}
		return encodeOID(enc, o.Commit.TreeOID)
	case KindTag:
		return encodeOID(enc, o.Tag.TargetOID)
	default:
		return errors.Errorf("encode: unsupported object kind %d", o.Kind)
	}
}

func decodeGitObject(dec *msgpack.Decoder) (*GitObject, error) {
	hash, err := decodeOID(dec)
	if err != nil {
		return nil, err
	}
	data, err := dec.DecodeBytes()
	if err != nil {
		return nil, err
	}
	kindByte, err := dec.DecodeUint8()
	if err != nil {
		return nil, err
	}
	o := &GitObject{Hash: hash, Data: data, Kind: Kind(kindByte)}
	switch o.Kind {
	case KindBlob:
	case KindTree:
		entries, err := decodeOIDList(dec)
		if err != nil {
			return nil, err
		}
		o.Tree = &TreeMeta{EntryOIDs: entries}
	case KindCommit:
		parents, err := decodeOIDList(dec)
		if err != nil {
			return nil, err
		}
		treeOID, err := decodeOID(dec)
		if err != nil {
			return nil, err
		}
		o.Commit = &CommitMeta{ParentOIDs: parents, TreeOID: treeOID}
	case KindTag:
		target, err := decodeOID(dec)
		if err != nil {
			return nil, err
		}
		o.Tag = &TagMeta{TargetOID: target}
	default:
		return nil, errors.Errorf("decode: unsupported object kind %d", kindByte)
	}
	return o, nil
}

// EncodeMultiObject renders m to its canonical on-wire bytes.
// GitHashes preserves insertion order, so objects are written in that
// order rather than as a Go map (whose iteration order is
// unspecified).
func EncodeMultiObject(m *MultiObject) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := enc.EncodeUint8(codecVersion); err != nil {
		return nil, err
	}
	if err := enc.EncodeString(m.Hash); err != nil {
		return nil, err
	}
	if err := enc.EncodeArrayLen(len(m.GitHashes)); err != nil {
		return nil, err
	}
	for _, oid := range m.GitHashes {
		obj, ok := m.Objects[oid]
		if !ok {
			return nil, errors.Errorf("encode multiobject: git_hashes entry %s missing from objects", oid)
		}
		if err := encodeGitObject(enc, obj); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// DecodeMultiObject parses bytes produced by EncodeMultiObject.
func DecodeMultiObject(data []byte) (*MultiObject, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	version, err := dec.DecodeUint8()
	if err != nil {
		return nil, errors.Wrap(err, "decode multiobject version")
	}
	if version != codecVersion {
		return nil, errors.Errorf("decode multiobject: unsupported codec version %d", version)
	}
	label, err := dec.DecodeString()
	if err != nil {
		return nil, err
	}
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return nil, err
	}
	m := NewMultiObject()
	m.Hash = label
	for i := 0; i < n; i++ {
		obj, err := decodeGitObject(dec)
		if err != nil {
			return nil, errors.Wrap(err, "decode multiobject entry")
		}
		m.Add(obj)
	}
	return m, nil
}

// EncodeRepoData renders r to its canonical on-wire bytes. Refs and
// Objects are written as ordered pairs sorted by key so the encoding
// is deterministic across runs (useful for tests and for content
// addressing the manifest blob itself).
func EncodeRepoData(r *RepoData) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := enc.EncodeUint8(codecVersion); err != nil {
		return nil, err
	}

	refNames := make([]string, 0, len(r.Refs))
	for name := range r.Refs {
		refNames = append(refNames, name)
	}
	sortStrings(refNames)
	if err := enc.EncodeArrayLen(len(refNames)); err != nil {
		return nil, err
	}
	for _, name := range refNames {
		if err := enc.EncodeString(name); err != nil {
			return nil, err
		}
		if err := encodeOID(enc, r.Refs[name]); err != nil {
			return nil, err
		}
	}

	objOIDs := make([]OID, 0, len(r.Objects))
	for oid := range r.Objects {
		objOIDs = append(objOIDs, oid)
	}
	sortOIDs(objOIDs)
	if err := enc.EncodeArrayLen(len(objOIDs)); err != nil {
		return nil, err
	}
	for _, oid := range objOIDs {
		if err := encodeOID(enc, oid); err != nil {
			return nil, err
		}
		if err := enc.EncodeString(r.Objects[oid]); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// DecodeRepoData parses bytes produced by EncodeRepoData.
func DecodeRepoData(data []byte) (*RepoData, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	version, err := dec.DecodeUint8()
	if err != nil {
		return nil, errors.Wrap(err, "decode repodata version")
	}
	if version != codecVersion {
		return nil, errors.Errorf("decode repodata: unsupported codec version %d", version)
	}

	r := NewRepoData()
	nRefs, err := dec.DecodeArrayLen()
	if err != nil {
		return nil, err
	}
	for i := 0; i < nRefs; i++ {
		name, err := dec.DecodeString()
		if err != nil {
			return nil, err
		}
		oid, err := decodeOID(dec)
		if err != nil {
			return nil, err
		}
		r.Refs[name] = oid
	}

	nObjs, err := dec.DecodeArrayLen()
	if err != nil {
		return nil, err
	}
	for i := 0; i < nObjs; i++ {
		oid, err := decodeOID(dec)
		if err != nil {
			return nil, err
		}
		label, err := dec.DecodeString()
		if err != nil {
			return nil, err
		}
		r.Objects[oid] = label
	}
	return r, nil
}
