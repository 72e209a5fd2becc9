package textgen

import (
	"bytes"
	"encoding/csv"

	"github.com/cockroachdb/errors"
	"github.com/goccy/go-json"
)

// Serializer turns structured data into message content.
type Serializer interface {
	Serialize(input any) (string, error)
}

// Serializers lists the built-in serializers, to be used with
// Request.WithSerializable.
var Serializers = struct {
	Json Serializer
	Csv  Serializer
}{
	Json: jsonSerializer{},
	Csv:  csvSerializer{},
}

type jsonSerializer struct{}

func (jsonSerializer) Serialize(input any) (string, error) {
	out, err := json.Marshal(input)
	if err != nil {
		return "", err
	}

	return string(out), nil
}

type csvSerializer struct{}

// Serialize expects rows of cells, as [][]string.
func (csvSerializer) Serialize(input any) (string, error) {
	rows, ok := input.([][]string)
	if !ok {
		return "", errors.Newf("csv serializer expects [][]string, got %T", input)
	}

	var buf bytes.Buffer

	w := csv.NewWriter(&buf)

	if err := w.WriteAll(rows); err != nil {
		return "", err
	}

	return buf.String(), nil
}
