package objtypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvidnet/netmgrd/internal/omp"
)

func TestHostLookupByNameAfterCreate(t *testing.T) {
	ht := NewHostType()
	obj, err := ht.Create()
	require.NoError(t, err)

	spec := omp.NewBag()
	spec.Set("name", omp.String("printer"))
	spec.Set("address", omp.String("10.0.0.5"))
	require.NoError(t, omp.UpdateObject(obj, spec))

	lookupSpec := omp.NewBag()
	lookupSpec.Set("name", omp.String("printer"))
	found, err := ht.Lookup(lookupSpec)
	require.NoError(t, err)
	assert.Same(t, obj, found)

	v, err := found.GetValue("address")
	require.NoError(t, err)
	s, err := v.AsString()
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5", s)
}

func TestHostLookupMissingNameIsNoKeys(t *testing.T) {
	ht := NewHostType()
	_, err := ht.Lookup(omp.NewBag())
	assert.ErrorIs(t, err, omp.ErrNoKeys)
}

func TestHostRenameMovesIndexEntry(t *testing.T) {
	ht := NewHostType()
	h := &Host{typ: ht}
	h.rename("old-name")
	h.rename("new-name")

	_, stillOld := ht.byName["old-name"]
	assert.False(t, stillOld)

	spec := omp.NewBag()
	spec.Set("name", omp.String("new-name"))
	found, err := ht.Lookup(spec)
	require.NoError(t, err)
	assert.Same(t, h, found)
}

func TestHostRemoveDropsFromIndex(t *testing.T) {
	ht := NewHostType()
	obj, _ := ht.Create()
	spec := omp.NewBag()
	spec.Set("name", omp.String("h1"))
	require.NoError(t, omp.UpdateObject(obj, spec))

	require.NoError(t, ht.Remove(obj))

	_, err := ht.Lookup(spec)
	assert.ErrorIs(t, err, omp.ErrNotFound)
}

func TestHostStuffValuesRoundTripsSetFields(t *testing.T) {
	ht := NewHostType()
	obj, _ := ht.Create()
	spec := omp.NewBag()
	spec.Set("name", omp.String("h1"))
	spec.Set("address", omp.String("192.168.1.1"))
	spec.Set("mac-address", omp.String("aa:bb:cc:dd:ee:ff"))
	require.NoError(t, omp.UpdateObject(obj, spec))

	out := omp.NewBag()
	require.NoError(t, obj.StuffValues(out))

	for _, nv := range spec.All() {
		v, ok := out.Get(nv.Name)
		require.True(t, ok)
		gotS, _ := v.AsString()
		wantS, _ := nv.Value.AsString()
		assert.Equal(t, wantS, gotS)
	}
}

func TestLeaseLookupByIPAddress(t *testing.T) {
	lt := NewLeaseType()
	obj, err := lt.Create()
	require.NoError(t, err)

	spec := omp.NewBag()
	spec.Set("ip-address", omp.String("10.0.0.9"))
	spec.Set("client-id", omp.String("client-42"))
	spec.Set("expires", omp.Int(1790000000))
	require.NoError(t, omp.UpdateObject(obj, spec))

	lookupSpec := omp.NewBag()
	lookupSpec.Set("ip-address", omp.String("10.0.0.9"))
	found, err := lt.Lookup(lookupSpec)
	require.NoError(t, err)
	assert.Same(t, obj, found)
}

func TestLeaseRemoveRejectsForeignObject(t *testing.T) {
	lt := NewLeaseType()
	err := lt.Remove(&Host{})
	assert.ErrorIs(t, err, omp.ErrInvalidArg)
}
