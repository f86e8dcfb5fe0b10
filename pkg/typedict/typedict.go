// Package typedict is the thread-safe registry of type ids, type
// definitions, and their version lineages. It is consulted on every store
// (to resolve a Go-level type to a TID) and every load (to resolve a TID
// back to a Handler capable of walking the record's references), and it
// persists itself to a single JSON file so a restart does not have to
// re-derive type ids from scratch.
//
// Grounded on the teacher's pkg/storage/boltdb.go Marshal-then-persist
// shape (here: Marshal the whole dictionary to bytes, write the file,
// rather than one bucket entry per record, since the dictionary is small
// and rewritten wholesale on every Save) and pkg/manager/fsm.go's
// apply-then-persist ordering (mutate the in-memory registry first, then
// serialize).
package typedict

import (
	"context"
	"fmt"
	"sync"
	"time"

	gojson "github.com/goccy/go-json"

	"github.com/nebulastore/store/pkg/blobstore"
	"github.com/nebulastore/store/pkg/log"
	"github.com/nebulastore/store/pkg/metrics"
	"github.com/nebulastore/store/pkg/types"
)

func marshalJSON(v any) ([]byte, error) {
	return gojson.Marshal(v)
}

func unmarshalJSON(data []byte, v any) error {
	return gojson.Unmarshal(data, v)
}

// Dictionary is the registry described in the package doc comment. Zero
// value is not usable; construct with New.
type Dictionary struct {
	mu sync.RWMutex

	definitions map[types.TID]types.TypeDefinition
	lineages    map[string]*types.Lineage
	handlers    map[types.TID]Handler

	nextTID types.TID
}

// New creates a Dictionary with every built-in primitive type
// (types.TIDObject..types.TIDPrimitiveArray) pre-registered using
// MemberOffsetHandler, and the next free user TID set to
// types.FirstUserTID.
func New() *Dictionary {
	d := &Dictionary{
		definitions: make(map[types.TID]types.TypeDefinition),
		lineages:    make(map[string]*types.Lineage),
		handlers:    make(map[types.TID]Handler),
		nextTID:     types.FirstUserTID,
	}
	for tid := types.TIDObject; tid <= types.TIDPrimitiveArray; tid++ {
		name := builtinName(tid)
		def := types.TypeDefinition{
			TID:         tid,
			Name:        name,
			Version:     1,
			IsPrimitive: true,
			MinLength:   0,
			MaxLength:   1 << 62,
			CreatedAt:   time.Time{},
			ModifiedAt:  time.Time{},
		}
		d.definitions[tid] = def
		d.handlers[tid] = MemberOffsetHandler{}
		d.lineages[name] = &types.Lineage{TypeName: name, CurrentTypeName: name, VersionTIDs: []types.TID{tid}}
	}
	return d
}

func builtinName(tid types.TID) string {
	switch tid {
	case types.TIDObject:
		return "object"
	case types.TIDString:
		return "string"
	case types.TIDInt8:
		return "int8"
	case types.TIDInt16:
		return "int16"
	case types.TIDInt32:
		return "int32"
	case types.TIDInt64:
		return "int64"
	case types.TIDUint8:
		return "uint8"
	case types.TIDUint16:
		return "uint16"
	case types.TIDUint32:
		return "uint32"
	case types.TIDUint64:
		return "uint64"
	case types.TIDBool:
		return "bool"
	case types.TIDByte:
		return "byte"
	case types.TIDFloat32:
		return "float32"
	case types.TIDFloat64:
		return "float64"
	case types.TIDDecimal:
		return "decimal"
	case types.TIDDateTime:
		return "datetime"
	case types.TIDGUID:
		return "guid"
	case types.TIDPrimitiveArray:
		return "primitive-array"
	default:
		return "unknown"
	}
}

// RegisterType registers def under handler, applying the registration
// rules: the first registration of a name assigns the next free TID; a
// structurally identical re-registration (same name, same member layout)
// returns the existing TID; a structurally different definition for an
// existing name appends a new version to the lineage, and the new
// version's Version must be greater than the latest registered version
// and its IsPrimitive must match the lineage's.
func (d *Dictionary) RegisterType(def types.TypeDefinition, handler Handler) (types.TID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	lineage, exists := d.lineages[def.Name]
	if !exists {
		tid := d.nextTID
		d.nextTID++
		def.TID = tid
		d.definitions[tid] = def
		d.handlers[tid] = handler
		d.lineages[def.Name] = &types.Lineage{
			TypeName:        def.Name,
			CurrentTypeName: def.Name,
			VersionTIDs:     []types.TID{tid},
		}
		metrics.TypeDictionaryRegistrationsTotal.Inc()
		log.Debug(fmt.Sprintf("type registered: name=%s tid=%d version=%d", def.Name, tid, def.Version))
		return tid, nil
	}

	latestTID := lineage.VersionTIDs[len(lineage.VersionTIDs)-1]
	latest := d.definitions[latestTID]

	if sameShape(latest, def) {
		return latestTID, nil
	}

	if def.Version <= latest.Version {
		return 0, errVersionNotIncreasing
	}
	if def.IsPrimitive != latest.IsPrimitive {
		return 0, errPrimitiveMismatch
	}

	tid := d.nextTID
	d.nextTID++
	def.TID = tid
	d.definitions[tid] = def
	d.handlers[tid] = handler
	lineage.VersionTIDs = append(lineage.VersionTIDs, tid)
	lineage.CurrentTypeName = def.Name

	metrics.TypeDictionaryRegistrationsTotal.Inc()
	log.Debug(fmt.Sprintf("type version registered: name=%s tid=%d version=%d", def.Name, tid, def.Version))
	return tid, nil
}

func sameShape(a, b types.TypeDefinition) bool {
	if a.Name != b.Name || a.IsPrimitive != b.IsPrimitive || len(a.Members) != len(b.Members) {
		return false
	}
	for i := range a.Members {
		if a.Members[i] != b.Members[i] {
			return false
		}
	}
	return true
}

// TypeID returns the TID currently registered for name, and whether one
// was found. When a name has multiple lineage versions, the most recent
// is returned.
func (d *Dictionary) TypeID(name string) (types.TID, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	lineage, ok := d.lineages[name]
	if !ok {
		return 0, false
	}
	return lineage.VersionTIDs[len(lineage.VersionTIDs)-1], true
}

// TypeOf returns the human-readable type name for tid.
func (d *Dictionary) TypeOf(tid types.TID) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	def, ok := d.definitions[tid]
	if !ok {
		return "", false
	}
	return def.Name, true
}

// Definition returns the TypeDefinition registered for tid.
func (d *Dictionary) Definition(tid types.TID) (types.TypeDefinition, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	def, ok := d.definitions[tid]
	return def, ok
}

// Lineage returns the version history for a type name.
func (d *Dictionary) Lineage(name string) (types.Lineage, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	lineage, ok := d.lineages[name]
	if !ok {
		return types.Lineage{}, false
	}
	return *lineage, true
}

// Handler returns the reference-iteration handler registered for tid.
func (d *Dictionary) Handler(tid types.TID) (Handler, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	h, ok := d.handlers[tid]
	return h, ok
}

// ValidateEntity checks that tid has a registered handler and that length
// falls within the type's declared [MinLength, MaxLength] bounds. Callers
// (pkg/channel's inventory callback during the data file manager's
// startup scan) treat a non-nil error as
// invalid-entity-length and abort startup.
func (d *Dictionary) ValidateEntity(length int64, tid types.TID, oid types.OID) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if _, ok := d.handlers[tid]; !ok {
		return errHandlerMissing
	}
	def, ok := d.definitions[tid]
	if !ok {
		return errUnknownTID
	}
	if length < def.MinLength || length > def.MaxLength {
		return errLengthOutOfRange
	}
	return nil
}

// persistedDictionary is the on-disk shape written by Save and read by
// Load: every definition and lineage, flattened out of the maps above.
type persistedDictionary struct {
	Definitions []types.TypeDefinition `json:"type_definitions"`
	Lineages    []types.Lineage        `json:"type_lineages"`
}

// Save serializes the dictionary to path through conn, overwriting
// whatever was there before.
func (d *Dictionary) Save(ctx context.Context, conn blobstore.Connector, path string) error {
	d.mu.RLock()
	persisted := persistedDictionary{
		Definitions: make([]types.TypeDefinition, 0, len(d.definitions)),
		Lineages:    make([]types.Lineage, 0, len(d.lineages)),
	}
	for _, def := range d.definitions {
		persisted.Definitions = append(persisted.Definitions, def)
	}
	for _, lineage := range d.lineages {
		persisted.Lineages = append(persisted.Lineages, *lineage)
	}
	d.mu.RUnlock()

	data, err := marshalJSON(persisted)
	if err != nil {
		return err
	}

	exists, err := conn.FileExists(ctx, path)
	if err != nil {
		return err
	}
	if exists {
		if err := conn.Delete(ctx, path); err != nil {
			return err
		}
	}
	if err := conn.CreateFile(ctx, path); err != nil {
		return err
	}
	_, err = conn.Append(ctx, path, data)
	return err
}

// Load replaces the dictionary's contents with whatever was persisted at
// path, and sets next_tid to max(all_tids)+1 as the registration rules
// require. Load is intended to run once, at startup, before any
// RegisterType call.
func (d *Dictionary) Load(ctx context.Context, conn blobstore.Connector, path string) error {
	exists, err := conn.FileExists(ctx, path)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}

	size, err := conn.FileSize(ctx, path)
	if err != nil {
		return err
	}
	data, err := conn.ReadRange(ctx, path, 0, size)
	if err != nil {
		return err
	}

	var persisted persistedDictionary
	if err := unmarshalJSON(data, &persisted); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	highest := d.nextTID - 1
	for _, def := range persisted.Definitions {
		d.definitions[def.TID] = def
		if _, ok := d.handlers[def.TID]; !ok {
			d.handlers[def.TID] = MemberOffsetHandler{}
		}
		if def.TID > highest {
			highest = def.TID
		}
	}
	for i := range persisted.Lineages {
		lineage := persisted.Lineages[i]
		d.lineages[lineage.TypeName] = &lineage
	}
	d.nextTID = highest + 1

	log.Debug(fmt.Sprintf("type dictionary loaded: definitions=%d lineages=%d", len(persisted.Definitions), len(persisted.Lineages)))
	return nil
}
