package datafile

import (
	"context"
	"encoding/binary"

	"github.com/nebulastore/store/pkg/blobstore"
)

// EntryKind identifies the kind of change a transaction log entry records.
type EntryKind uint8

const (
	EntryCreate   EntryKind = 1
	EntryStore    EntryKind = 2
	EntryTransfer EntryKind = 3
	EntryDelete   EntryKind = 4
	EntryTruncate EntryKind = 5
)

const txEntrySize = 1 + 8 + 8 + 8 + 8 // kind + timestamp_ms + file_number + offset + length

// TxEntry is one transaction log record.
type TxEntry struct {
	Kind        EntryKind
	TimestampMS int64
	FileNumber  int64
	Offset      int64
	Length      int64
}

func encodeTxEntry(e TxEntry) []byte {
	buf := make([]byte, txEntrySize)
	buf[0] = byte(e.Kind)
	binary.LittleEndian.PutUint64(buf[1:9], uint64(e.TimestampMS))
	binary.LittleEndian.PutUint64(buf[9:17], uint64(e.FileNumber))
	binary.LittleEndian.PutUint64(buf[17:25], uint64(e.Offset))
	binary.LittleEndian.PutUint64(buf[25:33], uint64(e.Length))
	return buf
}

func decodeTxEntry(buf []byte) (TxEntry, error) {
	if len(buf) < txEntrySize {
		return TxEntry{}, errTruncatedHeader
	}
	kind := EntryKind(buf[0])
	if kind < EntryCreate || kind > EntryTruncate {
		return TxEntry{}, errUnknownEntryKind
	}
	return TxEntry{
		Kind:        kind,
		TimestampMS: int64(binary.LittleEndian.Uint64(buf[1:9])),
		FileNumber:  int64(binary.LittleEndian.Uint64(buf[9:17])),
		Offset:      int64(binary.LittleEndian.Uint64(buf[17:25])),
		Length:      int64(binary.LittleEndian.Uint64(buf[25:33])),
	}, nil
}

// TransactionLog is the append-only, per-channel ordered sequence of
// create/store/transfer/delete/truncate entries. Initialize replays it at
// startup; the replay does not discard any write.
type TransactionLog struct {
	conn Connector
	path string
}

// Connector is the subset of blobstore.Connector the transaction log and
// data file manager need; narrowing the dependency keeps this package
// testable against a fake without constructing a full blobstore.LocalFS.
type Connector = blobstore.Connector

func newTransactionLog(conn Connector, path string) *TransactionLog {
	return &TransactionLog{conn: conn, path: path}
}

// Append writes one entry to the end of the log.
func (t *TransactionLog) Append(ctx context.Context, entry TxEntry) error {
	exists, err := t.conn.FileExists(ctx, t.path)
	if err != nil {
		return err
	}
	if !exists {
		if err := t.conn.CreateFile(ctx, t.path); err != nil {
			return err
		}
	}
	_, err = t.conn.Append(ctx, t.path, encodeTxEntry(entry))
	return err
}

// ReplayFrom reads every entry in the log and calls fn for each, in
// order. Initialize calls it at startup and skips entries older than its
// consistent store timestamp.
func (t *TransactionLog) ReplayFrom(ctx context.Context, fn func(TxEntry) error) error {
	exists, err := t.conn.FileExists(ctx, t.path)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}

	size, err := t.conn.FileSize(ctx, t.path)
	if err != nil {
		return err
	}

	var offset int64
	for offset+txEntrySize <= size {
		raw, err := t.conn.ReadRange(ctx, t.path, offset, txEntrySize)
		if err != nil {
			return err
		}
		entry, err := decodeTxEntry(raw)
		if err != nil {
			return err
		}
		if err := fn(entry); err != nil {
			return err
		}
		offset += txEntrySize
	}
	return nil
}
