package serde

import (
	"encoding/json"
	"errors"
	goAvro "github.com/elodina/go-avro"
	"github.com/hujiexuan/kafka-rest/constants"
	"github.com/hujiexuan/kafka-rest/entry"
	"github.com/xeipuuv/gojsonschema"
	"strings"
)

// Decoder turns a raw record value into its schema-typed representation.
type Decoder interface {
	Decode(value []byte) (interface{}, error)
}

// NewDecoder builds the decoder for the configured schema type. BINARY needs
// no schema; AVRO requires one; JSON validates against a schema only when
// one is supplied.
func NewDecoder(schemaType entry.SerializationSchema, avroSchema, jsonSchema string) (Decoder, error) {
	switch schemaType {
	case entry.Binary:
		return &binaryDecoder{}, nil
	case entry.Avro:
		schema, err := goAvro.ParseSchema(avroSchema)
		if err != nil {
			return nil, err
		}
		reader := goAvro.NewGenericDatumReader()
		reader.SetSchema(schema)
		return &avroDecoder{schema: schema, reader: reader}, nil
	case entry.Json:
		this := &jsonDecoder{}
		if jsonSchema != "" {
			schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(jsonSchema))
			if err != nil {
				return nil, err
			}
			this.schema = schema
		}
		return this, nil
	default:
		return nil, errors.New(constants.ErrUnidentifiedSchema)
	}
}

type binaryDecoder struct{}

func (this *binaryDecoder) Decode(value []byte) (interface{}, error) {
	return value, nil
}

type avroDecoder struct {
	schema goAvro.Schema
	reader *goAvro.GenericDatumReader
}

func (this *avroDecoder) Decode(value []byte) (interface{}, error) {
	record := goAvro.NewGenericRecord(this.schema)
	if err := this.reader.Read(record, goAvro.NewBinaryDecoder(value)); err != nil {
		return nil, err
	}
	return record.Map(), nil
}

type jsonDecoder struct {
	schema *gojsonschema.Schema
}

func (this *jsonDecoder) Decode(value []byte) (interface{}, error) {
	var decoded interface{}
	if err := json.Unmarshal(value, &decoded); err != nil {
		return nil, err
	}
	if this.schema != nil {
		result, err := this.schema.Validate(gojsonschema.NewGoLoader(decoded))
		if err != nil {
			return nil, err
		}
		if !result.Valid() {
			var reasons []string
			for _, desc := range result.Errors() {
				reasons = append(reasons, desc.String())
			}
			return nil, errors.New("json schema validation failed: " + strings.Join(reasons, "; "))
		}
	}
	return decoded, nil
}
