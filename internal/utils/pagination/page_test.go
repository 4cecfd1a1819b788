package pagination_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberapp/ember-server/internal/utils/pagination"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   pagination.Page
		want pagination.Page
	}{
		{"zero value", pagination.Page{}, pagination.Page{Number: 1, Limit: 20}},
		{"negative page", pagination.Page{Number: -3, Limit: 10}, pagination.Page{Number: 1, Limit: 10}},
		{"limit above max", pagination.Page{Number: 2, Limit: 500}, pagination.Page{Number: 2, Limit: 100}},
		{"already sane", pagination.Page{Number: 3, Limit: 50}, pagination.Page{Number: 3, Limit: 50}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.in.Normalize(20, 100))
		})
	}
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, pagination.Page{Number: 1, Limit: 20}.Offset())
	assert.Equal(t, 40, pagination.Page{Number: 3, Limit: 20}.Offset())
}

func TestPageCount(t *testing.T) {
	assert.Equal(t, 0, pagination.PageCount(0, 20))
	assert.Equal(t, 1, pagination.PageCount(20, 20))
	assert.Equal(t, 2, pagination.PageCount(21, 20))
	assert.Equal(t, 0, pagination.PageCount(10, 0))
}

func TestCursorRoundTrip(t *testing.T) {
	token, err := pagination.Encode(pagination.Cursor{ID: 42, CreatedUnix: 1700000000000})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	cur, err := pagination.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), cur.ID)
	assert.Equal(t, int64(1700000000000), cur.CreatedUnix)
}

func TestDecodeEmptyToken(t *testing.T) {
	cur, err := pagination.Decode("")
	require.NoError(t, err)
	assert.Zero(t, cur.ID)
}

func TestDecodeGarbage(t *testing.T) {
	_, err := pagination.Decode("not base64 json!!")
	assert.Error(t, err)
}
