package typedict_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nebulastore/store/pkg/blobstore"
	"github.com/nebulastore/store/pkg/typedict"
	"github.com/nebulastore/store/pkg/types"
)

func personDef(version int) types.TypeDefinition {
	return types.TypeDefinition{
		Name:        "demo.Person",
		Version:     version,
		IsPrimitive: false,
		MinLength:   16,
		MaxLength:   1024,
		Members: []types.Member{
			{Name: "Name", DeclaredType: "string", ByteOffset: 0, ByteLength: 8},
			{Name: "Best", DeclaredType: "ref", IsReference: true, ByteOffset: 8, ByteLength: 8},
		},
	}
}

func TestBuiltinTypesPreRegistered(t *testing.T) {
	d := typedict.New()

	tid, ok := d.TypeID("string")
	require.True(t, ok)
	assert.Equal(t, types.TIDString, tid)

	def, ok := d.Definition(types.TIDString)
	require.True(t, ok)
	assert.True(t, def.IsPrimitive)
}

func TestRegisterTypeAssignsNextFreeTID(t *testing.T) {
	d := typedict.New()

	tid, err := d.RegisterType(personDef(1), typedict.MemberOffsetHandler{})
	require.NoError(t, err)
	assert.Equal(t, types.FirstUserTID, tid)
}

func TestRegisterTypeIsIdempotentForIdenticalShape(t *testing.T) {
	d := typedict.New()

	tid1, err := d.RegisterType(personDef(1), typedict.MemberOffsetHandler{})
	require.NoError(t, err)
	tid2, err := d.RegisterType(personDef(1), typedict.MemberOffsetHandler{})
	require.NoError(t, err)
	assert.Equal(t, tid1, tid2)
}

func TestRegisterTypeNewVersionExtendsLineage(t *testing.T) {
	d := typedict.New()

	v1, err := d.RegisterType(personDef(1), typedict.MemberOffsetHandler{})
	require.NoError(t, err)

	def2 := personDef(2)
	def2.Members = append(def2.Members, types.Member{Name: "Age", DeclaredType: "int32", ByteOffset: 16, ByteLength: 4})
	v2, err := d.RegisterType(def2, typedict.MemberOffsetHandler{})
	require.NoError(t, err)
	assert.NotEqual(t, v1, v2)

	lineage, ok := d.Lineage("demo.Person")
	require.True(t, ok)
	assert.Equal(t, []types.TID{v1, v2}, lineage.VersionTIDs)
}

func TestRegisterTypeRejectsNonIncreasingVersion(t *testing.T) {
	d := typedict.New()

	_, err := d.RegisterType(personDef(2), typedict.MemberOffsetHandler{})
	require.NoError(t, err)

	changed := personDef(2)
	changed.Members = append(changed.Members, types.Member{Name: "Extra", ByteOffset: 16, ByteLength: 4})
	_, err = d.RegisterType(changed, typedict.MemberOffsetHandler{})
	assert.Error(t, err)
}

func TestValidateEntityRejectsUnknownHandler(t *testing.T) {
	d := typedict.New()
	err := d.ValidateEntity(10, types.TID(99999), types.OID(1))
	assert.Error(t, err)
}

func TestValidateEntityRejectsLengthOutOfRange(t *testing.T) {
	d := typedict.New()
	tid, err := d.RegisterType(personDef(1), typedict.MemberOffsetHandler{})
	require.NoError(t, err)

	err = d.ValidateEntity(4, tid, types.OID(1))
	assert.Error(t, err)

	err = d.ValidateEntity(32, tid, types.OID(1))
	assert.NoError(t, err)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	conn, err := blobstore.NewLocalFS(t.TempDir())
	require.NoError(t, err)

	d1 := typedict.New()
	tid, err := d1.RegisterType(personDef(1), typedict.MemberOffsetHandler{})
	require.NoError(t, err)
	require.NoError(t, d1.Save(ctx, conn, "type_dictionary.json"))

	d2 := typedict.New()
	require.NoError(t, d2.Load(ctx, conn, "type_dictionary.json"))

	def, ok := d2.Definition(tid)
	require.True(t, ok)
	assert.Equal(t, "demo.Person", def.Name)

	nextTID, err := d2.RegisterType(personDef(1), typedict.MemberOffsetHandler{})
	require.NoError(t, err)
	assert.Equal(t, tid, nextTID)
}

func TestLoadMissingFileIsNoop(t *testing.T) {
	ctx := context.Background()
	conn, err := blobstore.NewLocalFS(t.TempDir())
	require.NoError(t, err)

	d := typedict.New()
	require.NoError(t, d.Load(ctx, conn, "does-not-exist.json"))
}

func TestMemberOffsetHandlerSkipsNilReference(t *testing.T) {
	def := personDef(1)
	record := make([]byte, 16)
	var seen []types.OID
	h := typedict.MemberOffsetHandler{}
	require.NoError(t, h.IterateReferences(def, record, func(oid types.OID) {
		seen = append(seen, oid)
	}))
	assert.Empty(t, seen)
}
