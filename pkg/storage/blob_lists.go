package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/SciGraph/SciGraph-sub002/pkg/graph"
)

const (
	blobNodesDir   = "nodes"
	blobMetaObject = "meta.json"
	blobSuffix     = ".rx"
	// blobParallelism bounds concurrent object writes and deletes.
	blobParallelism = 16
)

// BlobListStore lays the index out as one object per node plus meta.json
// under a prefix of any BlobStore (local directory or S3 bucket).
// A batch is not atomic; the metadata record written last is what marks
// the index as complete.
type BlobListStore struct {
	blobs  BlobStore
	prefix string
}

func NewBlobListStore(blobs BlobStore, prefix string) *BlobListStore {
	return &BlobListStore{blobs: blobs, prefix: strings.Trim(prefix, "/")}
}

func (s *BlobListStore) key(parts ...string) string {
	return path.Join(append([]string{s.prefix}, parts...)...)
}

func (s *BlobListStore) recordKey(id graph.NodeID) string {
	return s.key(blobNodesDir, nodeKey(id)+blobSuffix)
}

func (s *BlobListStore) WriteRecords(ctx context.Context, recs []Record) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(blobParallelism)

	for _, rec := range recs {
		g.Go(func() error {
			val, err := EncodeRecord(rec)
			if err != nil {
				return err
			}
			return s.blobs.Put(ctx, s.recordKey(rec.Node), val)
		})
	}
	return g.Wait()
}

func (s *BlobListStore) ReadRecord(ctx context.Context, id graph.NodeID) (Record, bool, error) {
	data, err := s.blobs.Get(ctx, s.recordKey(id))
	if errors.Is(err, ErrNotFound) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	rec, err := DecodeRecord(id, data)
	if err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

func (s *BlobListStore) ClearRecords(ctx context.Context) error {
	dir := s.key(blobNodesDir)
	keys, err := s.blobs.List(ctx, dir+"/")
	if err != nil {
		return fmt.Errorf("list records: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(blobParallelism)
	for _, k := range keys {
		if !strings.HasSuffix(k, blobSuffix) {
			continue
		}
		g.Go(func() error {
			return s.blobs.Delete(ctx, k)
		})
	}
	return g.Wait()
}

func (s *BlobListStore) ReadMetadata(ctx context.Context) (Metadata, error) {
	data, err := s.blobs.Get(ctx, s.key(blobMetaObject))
	if errors.Is(err, ErrNotFound) {
		return Metadata{}, nil
	}
	if err != nil {
		return Metadata{}, err
	}
	return decodeMetadata(data)
}

func (s *BlobListStore) WriteMetadata(ctx context.Context, m Metadata) error {
	data, err := encodeMetadata(m)
	if err != nil {
		return err
	}
	return s.blobs.Put(ctx, s.key(blobMetaObject), data)
}

func (s *BlobListStore) Close() error { return nil }
