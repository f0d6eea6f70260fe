package catalog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContainerLookupOnInvalidRecord(t *testing.T) {
	r := NewRating("Amazon's Choice", "")
	require.False(t, r.IsValid())

	// Lookup and friends keep working on invalid records for the
	// declared attribute names.
	_, ok := r.Lookup("star_text")
	assert.False(t, ok, "absent attribute")

	assert.Equal(t, "fallback", r.GetDefault("star_text", "fallback"))

	_, err := r.Get("no_such_key")
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "no_such_key", notFound.Key)

	// Enumeration is gated on validity.
	assert.Empty(t, r.Items())
	assert.Empty(t, r.Keys())
	assert.Empty(t, r.Values())
}

func TestContainerEnumerationOrder(t *testing.T) {
	r := NewRating("4.5 out of 5 stars", "1,234")
	require.True(t, r.IsValid())

	assert.Equal(t, []string{"star_text", "count_text"}, r.Keys())
	assert.Equal(t, []any{"4.5 out of 5 stars", "1,234"}, r.Values())

	items := r.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "star_text", items[0].Name)
	assert.Equal(t, "4.5 out of 5 stars", items[0].Value)
}

func TestDocKeepsInsertionOrder(t *testing.T) {
	d := NewDoc()
	d.Set("zeta", "1")
	d.Set("alpha", "2")
	d.Set("mid", "3")
	d.Set("zeta", "overwritten")

	assert.Equal(t, []string{"zeta", "alpha", "mid"}, d.Keys())
	assert.Equal(t, 3, d.Len())

	v, ok := d.GetString("zeta")
	require.True(t, ok)
	assert.Equal(t, "overwritten", v)
}

func TestDocMarshalJSONOrdered(t *testing.T) {
	d := NewDoc()
	d.Set("b", "first")
	d.Set("a", 2)

	raw, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `{"b":"first","a":2}`, string(raw))
}

func TestDocNilReceiver(t *testing.T) {
	var d *Doc
	assert.Equal(t, 0, d.Len())
	assert.Nil(t, d.Keys())

	_, ok := d.Get("title")
	assert.False(t, ok)
	_, ok = d.GetString("title")
	assert.False(t, ok)
}

func TestToDocRecursiveAndFlatten(t *testing.T) {
	p := newProduct("US")
	p.Title = "Wireless Mouse"
	p.Rating = NewRating("4.5 out of 5 stars", "1,234")
	p.markValid()

	nested := p.ToDoc(true, false)
	ratingVal, ok := nested.Get("rating")
	require.True(t, ok)
	ratingDoc, ok := ratingVal.(*Doc)
	require.True(t, ok, "recursive serialization yields a nested doc")
	star, _ := ratingDoc.GetString("star_text")
	assert.Equal(t, "4.5 out of 5 stars", star)

	flat := p.ToDoc(true, true)
	_, hasRating := flat.Get("rating")
	assert.False(t, hasRating)
	star, ok = flat.GetString("star_text")
	require.True(t, ok, "flatten merges child keys into the parent")
	assert.Equal(t, "4.5 out of 5 stars", star)

	// Without recursive the composite value is stored as-is.
	plain := p.ToDoc(false, false)
	ratingVal, ok = plain.Get("rating")
	require.True(t, ok)
	assert.IsType(t, &Rating{}, ratingVal)
}
