package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullJSON_Scan(t *testing.T) {
	var j NullJSON
	require.NoError(t, j.Scan(nil))
	assert.False(t, j.Valid)
	assert.Nil(t, j.Bytes())

	require.NoError(t, j.Scan([]byte(`{"a":1}`)))
	assert.True(t, j.Valid)
	assert.JSONEq(t, `{"a":1}`, string(j.Bytes()))
}

func TestNullJSON_Value(t *testing.T) {
	v, err := NullJSON{}.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = NewNullJSON([]byte(`{"a":1}`)).Value()
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"a":1}`), v)
}

func TestNullJSON_JSON(t *testing.T) {
	body, err := json.Marshal(struct {
		Empty NullJSON `json:"empty"`
		Set   NullJSON `json:"set"`
	}{Set: NewNullJSON([]byte(`{"a":1}`))})
	require.NoError(t, err)
	assert.JSONEq(t, `{"empty":null,"set":{"a":1}}`, string(body))

	var decoded struct {
		Empty NullJSON `json:"empty"`
		Set   NullJSON `json:"set"`
	}
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.False(t, decoded.Empty.Valid)
	assert.True(t, decoded.Set.Valid)
	assert.JSONEq(t, `{"a":1}`, string(decoded.Set.Bytes()))
}
