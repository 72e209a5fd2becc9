package textgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJsonSerializer(t *testing.T) {
	type j struct {
		Output string `json:"output"`
	}

	data := j{"Hello, world!"}
	req := NewRequest().WithSerializable(RoleUser, Serializers.Json, data)

	assert.Nil(t, req.err)
	assert.Len(t, req.Messages, 1)
	assert.Equal(t, RoleUser, req.Messages[0].Role)
	assert.JSONEq(t, `{"output":"Hello, world!"}`, req.Messages[0].Content)
}

func TestCsvSerializer(t *testing.T) {
	data := [][]string{
		{"one", "two"},
		{"three", "four"},
		{"five", "six"},
	}

	req := NewRequest().WithSerializable(RoleUser, Serializers.Csv, data)

	assert.Nil(t, req.err)
	assert.Len(t, req.Messages, 1)
	assert.Equal(t, "one,two\nthree,four\nfive,six\n", req.Messages[0].Content)
}

func TestCsvSerializerInvalidInput(t *testing.T) {
	req := NewRequest().WithSerializable(RoleUser, Serializers.Csv, "not rows")

	assert.ErrorContains(t, req.err, "csv serializer expects [][]string")
	assert.Len(t, req.Messages, 0)
}
