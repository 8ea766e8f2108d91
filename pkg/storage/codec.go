package storage

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/SciGraph/SciGraph-sub002/pkg/graph"
)

// ErrCorruptRecord is returned when a stored record cannot be decoded.
var ErrCorruptRecord = errors.New("corrupt reachability record")

const codecVersion byte = 1

// EncodeRecord serializes the two hub arrays of rec. Layout:
//
//	version | len(out) | out... | len(in) | in...
//
// Each array stores its first id as a zig-zag varint and every following
// id as the uvarint gap to its predecessor, which only works for strictly
// ascending input.
func EncodeRecord(rec Record) ([]byte, error) {
	buf := make([]byte, 1, 1+2*binary.MaxVarintLen64+(len(rec.Out)+len(rec.In))*2)
	buf[0] = codecVersion

	var err error
	if buf, err = appendIDs(buf, rec.Out); err != nil {
		return nil, fmt.Errorf("out list of %d: %w", rec.Node, err)
	}
	if buf, err = appendIDs(buf, rec.In); err != nil {
		return nil, fmt.Errorf("in list of %d: %w", rec.Node, err)
	}
	return buf, nil
}

// DecodeRecord is the inverse of EncodeRecord.
func DecodeRecord(id graph.NodeID, data []byte) (Record, error) {
	if len(data) == 0 || data[0] != codecVersion {
		return Record{}, fmt.Errorf("%w: node %d: bad header", ErrCorruptRecord, id)
	}
	rest := data[1:]

	out, rest, err := readIDs(rest)
	if err != nil {
		return Record{}, fmt.Errorf("%w: node %d out list: %v", ErrCorruptRecord, id, err)
	}
	in, rest, err := readIDs(rest)
	if err != nil {
		return Record{}, fmt.Errorf("%w: node %d in list: %v", ErrCorruptRecord, id, err)
	}
	if len(rest) != 0 {
		return Record{}, fmt.Errorf("%w: node %d: %d trailing bytes", ErrCorruptRecord, id, len(rest))
	}
	return Record{Node: id, Out: out, In: in}, nil
}

func appendIDs(buf []byte, ids []graph.NodeID) ([]byte, error) {
	buf = binary.AppendUvarint(buf, uint64(len(ids)))
	for i, id := range ids {
		if i == 0 {
			buf = binary.AppendVarint(buf, int64(id))
			continue
		}
		if id <= ids[i-1] {
			return nil, fmt.Errorf("ids not strictly ascending at %d", i)
		}
		buf = binary.AppendUvarint(buf, uint64(id-ids[i-1]))
	}
	return buf, nil
}

func readIDs(data []byte) ([]graph.NodeID, []byte, error) {
	n, k := binary.Uvarint(data)
	if k <= 0 {
		return nil, nil, errors.New("bad length")
	}
	data = data[k:]
	// Every id takes at least one byte.
	if n > uint64(len(data)) {
		return nil, nil, fmt.Errorf("length %d exceeds payload", n)
	}
	if n == 0 {
		return nil, data, nil
	}

	ids := make([]graph.NodeID, n)
	first, k := binary.Varint(data)
	if k <= 0 {
		return nil, nil, errors.New("bad first id")
	}
	data = data[k:]
	ids[0] = graph.NodeID(first)

	for i := uint64(1); i < n; i++ {
		gap, k := binary.Uvarint(data)
		if k <= 0 || gap == 0 {
			return nil, nil, fmt.Errorf("bad gap at %d", i)
		}
		data = data[k:]
		ids[i] = ids[i-1] + graph.NodeID(gap)
	}
	return ids, data, nil
}

// nodeKey renders id as a fixed-width, order-preserving string suffix.
func nodeKey(id graph.NodeID) string {
	return fmt.Sprintf("%020d", uint64(id)^(1<<63))
}
