// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID   int    `json:"id" msgpack:"id"`
	Name string `json:"name" msgpack:"name"`
}

func TestCodecs(t *testing.T) {
	t.Parallel()

	testCases := map[string]Codec{
		"json":    JSON{},
		"msgpack": MsgPack{},
	}

	for name, codec := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			original := []item{{ID: 1, Name: "first"}, {ID: 2, Name: "second"}}
			data, err := codec.Marshal(original)
			require.NoError(t, err)

			var decoded []item
			require.NoError(t, codec.Unmarshal(data, &decoded))
			assert.Equal(t, original, decoded)
			assert.Equal(t, name, codec.Name())
		})
	}
}

func TestFromName(t *testing.T) {
	t.Parallel()

	codec, err := FromName("")
	require.NoError(t, err)
	assert.Equal(t, Default, codec)

	codec, err = FromName("MsgPack")
	require.NoError(t, err)
	assert.Equal(t, "msgpack", codec.Name())

	_, err = FromName("xml")
	assert.ErrorContains(t, err, `unknown codec "xml"`)
}
